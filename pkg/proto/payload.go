//
//  Copyright 2023 PayPal Inc.
//
//  Licensed to the Apache Software Foundation (ASF) under one or more
//  contributor license agreements.  See the NOTICE file distributed with
//  this work for additional information regarding copyright ownership.
//  The ASF licenses this file to You under the Apache License, Version 2.0
//  (the "License"); you may not use this file except in compliance with
//  the License.  You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//

package proto

import (
	"bytes"
	"fmt"
	"io"

	"github.com/golang/glog"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zlib"
)

type Compression string

const (
	ZlibCompression   Compression = "zlib"
	SnappyCompression Compression = "snappy"
)

var (
	ErrUnsupportedCompressionType = fmt.Errorf("unsupported compression type")
)

func ParseCompression(s string) (Compression, error) {
	switch c := Compression(s); c {
	case "":
		return ZlibCompression, nil
	case ZlibCompression, SnappyCompression:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedCompressionType, s)
}

// Decompress inflates the payload of a frame whose compression flag is set.
// maxSize bounds the inflated size.
func Decompress(payload []byte, c Compression, maxSize int) (value []byte, err error) {
	switch c {
	case ZlibCompression, "":
		var r io.ReadCloser
		if r, err = zlib.NewReader(bytes.NewReader(payload)); err != nil {
			return
		}
		defer r.Close()
		var buf bytes.Buffer
		var n int64
		if n, err = buf.ReadFrom(io.LimitReader(r, int64(maxSize)+1)); err != nil {
			return
		}
		if n > int64(maxSize) {
			return nil, fmt.Errorf("inflated payload exceeds %d bytes", maxSize)
		}
		value = buf.Bytes()
	case SnappyCompression:
		var sz int
		if sz, err = snappy.DecodedLen(payload); err != nil {
			return
		}
		if sz > maxSize {
			return nil, fmt.Errorf("inflated payload exceeds %d bytes", maxSize)
		}
		if value, err = snappy.Decode(nil, payload); err != nil {
			glog.Errorf("Error while uncompressing: %s", err)
		}
	default:
		err = ErrUnsupportedCompressionType
	}
	return
}

// Compress deflates a payload with the given codec.
func Compress(payload []byte, c Compression) ([]byte, error) {
	switch c {
	case ZlibCompression, "":
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(payload); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case SnappyCompression:
		return snappy.Encode(nil, payload), nil
	}
	return nil, ErrUnsupportedCompressionType
}

// BuildCompressed encodes a frame whose payload is compressed with c.
func BuildCompressed(msgType MessageType, correlationId int32, payload []byte, c Compression) ([]byte, error) {
	data, err := Compress(payload, c)
	if err != nil {
		return nil, err
	}
	raw := Build(msgType, correlationId, data)
	raw[kOffsetCompression] = 1
	return raw, nil
}
