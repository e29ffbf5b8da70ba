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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressedFrame(t *testing.T) {
	body := bytes.Repeat([]byte("contact list entry;"), 200)
	for _, c := range []Compression{ZlibCompression, SnappyCompression} {
		t.Run(string(c), func(t *testing.T) {
			raw, err := BuildCompressed(MsgInternalResponse, 3, body, c)
			require.NoError(t, err)
			assert.Equal(t, byte(1), raw[HeaderSize-1])

			frames, err := Split(bytes.NewReader(raw))
			require.NoError(t, err)
			require.Len(t, frames, 1)
			require.True(t, frames[0].Compressed)
			assert.Less(t, len(frames[0].Payload), len(body))

			out, err := Decompress(frames[0].Payload, c, DefaultMaxPayloadSize)
			require.NoError(t, err)
			assert.Equal(t, body, out)
		})
	}
}

func TestDecompressLimit(t *testing.T) {
	body := make([]byte, 4096)
	for _, c := range []Compression{ZlibCompression, SnappyCompression} {
		data, err := Compress(body, c)
		require.NoError(t, err)
		_, err = Decompress(data, c, 1024)
		assert.Error(t, err, string(c))
	}
}

func TestDecompressGarbage(t *testing.T) {
	_, err := Decompress([]byte("not compressed"), ZlibCompression, DefaultMaxPayloadSize)
	assert.Error(t, err)
	_, err = Decompress([]byte{0xff, 0xff, 0xff, 0xff, 0xff}, SnappyCompression, DefaultMaxPayloadSize)
	assert.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, ZlibCompression, c)

	c, err = ParseCompression("snappy")
	require.NoError(t, err)
	assert.Equal(t, SnappyCompression, c)

	_, err = ParseCompression("lz4")
	assert.True(t, errors.Is(err, ErrUnsupportedCompressionType))
}
