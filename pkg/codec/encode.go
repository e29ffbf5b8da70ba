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

package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"
	"unicode/utf8"
)

// Encoder writes tagged values. Errors are sticky: after the first failed
// write every call returns the same error.
type Encoder struct {
	w     *bufio.Writer
	err   error
	depth int
}

func NewEncoder(w io.Writer) *Encoder {
	if bw, ok := w.(*bufio.Writer); ok {
		return &Encoder{w: bw}
	}
	return &Encoder{w: bufio.NewWriter(w)}
}

// Flush writes any buffered data to the underlying writer.
func (e *Encoder) Flush() error {
	if e.err != nil {
		return e.err
	}
	e.err = e.w.Flush()
	return e.err
}

// Encode writes one value and flushes it.
func (e *Encoder) Encode(v any) error {
	e.encode(v)
	return e.Flush()
}

func (e *Encoder) writeByte(b byte) {
	if e.err == nil {
		e.err = e.w.WriteByte(b)
	}
}

func (e *Encoder) write(b []byte) {
	if e.err == nil {
		_, e.err = e.w.Write(b)
	}
}

func (e *Encoder) writeUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	e.write(b[:])
}

func (e *Encoder) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.write(b[:])
}

func (e *Encoder) writeUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.write(b[:])
}

func (e *Encoder) encode(v any) {
	if e.err != nil {
		return
	}
	switch t := v.(type) {
	case nil:
		e.writeByte(TagNull)
	case bool:
		if t {
			e.writeByte(TagTrue)
		} else {
			e.writeByte(TagFalse)
		}
	case int32:
		e.writeByte(TagInt)
		e.writeUint32(uint32(t))
	case int:
		if t >= math.MinInt32 && t <= math.MaxInt32 {
			e.writeByte(TagInt)
			e.writeUint32(uint32(int32(t)))
		} else {
			e.writeByte(TagLong)
			e.writeUint64(uint64(int64(t)))
		}
	case int64:
		e.writeByte(TagLong)
		e.writeUint64(uint64(t))
	case float64:
		e.writeByte(TagDouble)
		e.writeUint64(math.Float64bits(t))
	case time.Time:
		e.writeByte(TagDate)
		e.writeUint64(uint64(t.UnixMilli()))
	case string:
		e.writeString(TagStringChunk, TagString, t)
	case []byte:
		e.writeBytes(t)
	case []any:
		e.beginList(len(t))
		for _, item := range t {
			e.encode(item)
		}
		e.endContainer()
	case []string:
		e.beginList(len(t))
		for _, item := range t {
			e.encode(item)
		}
		e.endContainer()
	case []int32:
		e.beginList(len(t))
		for _, item := range t {
			e.encode(item)
		}
		e.endContainer()
	case []int64:
		e.beginList(len(t))
		for _, item := range t {
			e.encode(item)
		}
		e.endContainer()
	case []map[string]any:
		e.beginList(len(t))
		for _, item := range t {
			e.encode(item)
		}
		e.endContainer()
	case map[string]any:
		e.beginMap()
		for _, k := range sortedKeys(t) {
			e.writeString(TagStringChunk, TagString, k)
			e.encode(t[k])
		}
		e.endContainer()
	case *Map:
		if t == nil {
			e.writeByte(TagNull)
			return
		}
		e.beginMap()
		for _, k := range t.keys {
			e.writeString(TagStringChunk, TagString, k)
			e.encode(t.vals[k])
		}
		e.endContainer()
	default:
		e.err = fmt.Errorf("codec: unsupported type %T", v)
	}
}

func (e *Encoder) enter() bool {
	e.depth++
	if e.depth > kMaxDepth && e.err == nil {
		e.err = fmt.Errorf("codec: nesting deeper than %d", kMaxDepth)
	}
	return e.err == nil
}

func (e *Encoder) beginList(n int) {
	if !e.enter() {
		return
	}
	e.writeByte(TagList)
	e.writeByte(TagLength)
	e.writeUint32(uint32(n))
}

func (e *Encoder) beginMap() {
	if !e.enter() {
		return
	}
	e.writeByte(TagMap)
}

func (e *Encoder) endContainer() {
	e.depth--
	e.writeByte(TagEnd)
}

// writeString writes s as one or more chunks whose lengths count UTF-16
// code units. Characters outside the BMP are written as one 4 byte sequence
// that counts as two units.
func (e *Encoder) writeString(chunkTag, finalTag byte, s string) {
	var buf []byte
	units := 0
	for _, r := range s {
		n := 1
		if r >= 0x10000 {
			n = 2
		}
		if units+n > kMaxChunk {
			e.writeByte(chunkTag)
			e.writeUint16(uint16(units))
			e.write(buf)
			buf = buf[:0]
			units = 0
		}
		buf = utf8.AppendRune(buf, r)
		units += n
	}
	e.writeByte(finalTag)
	e.writeUint16(uint16(units))
	e.write(buf)
}

func (e *Encoder) writeBytes(b []byte) {
	for len(b) > kMaxChunk {
		e.writeByte(TagBytesChunk)
		e.writeUint16(kMaxChunk)
		e.write(b[:kMaxChunk])
		b = b[kMaxChunk:]
	}
	e.writeByte(TagBytes)
	e.writeUint16(uint16(len(b)))
	e.write(b)
}

// EncodeCall writes a call envelope invoking method with args.
func EncodeCall(w io.Writer, method string, args ...any) error {
	e := NewEncoder(w)
	e.writeByte(TagCall)
	e.writeByte(kMajorVersion)
	e.writeByte(kMinorVersion)
	e.writeByte(TagMethod)
	e.writeUint16(uint16(len(method)))
	e.write([]byte(method))
	for _, a := range args {
		e.encode(a)
	}
	e.writeByte(TagEnd)
	return e.Flush()
}

// EncodeReply writes a reply envelope carrying values.
func EncodeReply(w io.Writer, values ...any) error {
	e := NewEncoder(w)
	e.writeByte(TagReply)
	e.writeByte(kMajorVersion)
	e.writeByte(kMinorVersion)
	for _, v := range values {
		e.encode(v)
	}
	e.writeByte(TagEnd)
	return e.Flush()
}

// EncodeFault writes a reply envelope carrying a fault with a single
// message string.
func EncodeFault(w io.Writer, message string) error {
	e := NewEncoder(w)
	e.writeByte(TagReply)
	e.writeByte(kMajorVersion)
	e.writeByte(kMinorVersion)
	e.writeByte(TagFault)
	e.writeString(TagStringChunk, TagString, message)
	e.writeByte(TagEnd)
	return e.Flush()
}
