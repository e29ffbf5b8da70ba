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
	goerrors "errors"
	"io"
	"math"
	"time"
	"unicode/utf16"
)

type byteReader interface {
	io.Reader
	io.ByteReader
}

// Decoder reads tagged values from a byte stream.
//
// Note: a Decoder is not safe for concurrent use.
type Decoder struct {
	r     byteReader
	off   int64
	depth int
}

func NewDecoder(r io.Reader) *Decoder {
	if br, ok := r.(byteReader); ok {
		return &Decoder{r: br}
	}
	return &Decoder{r: bufio.NewReader(r)}
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int64 {
	return d.off
}

// Decode reads one value. End of stream, even at a value boundary, is
// reported as a *FormatError wrapping io.EOF or io.ErrUnexpectedEOF.
func (d *Decoder) Decode() (v any, err error) {
	var tag byte
	pos := d.off
	if tag, err = d.readByte(); err != nil {
		return nil, newFormatError(0, pos, "no value", err)
	}
	return d.decodeTag(tag, pos)
}

func (d *Decoder) readByte() (b byte, err error) {
	b, err = d.r.ReadByte()
	if err == nil {
		d.off++
	}
	return
}

func (d *Decoder) readFull(buf []byte) (err error) {
	var n int
	n, err = io.ReadFull(d.r, buf)
	d.off += int64(n)
	return
}

func (d *Decoder) read(tag byte, pos int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := d.readFull(buf); err != nil {
		return nil, d.eof(tag, pos, err)
	}
	return buf, nil
}

func (d *Decoder) eof(tag byte, pos int64, err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return newFormatError(tag, pos, "truncated value", err)
}

func (d *Decoder) readUint16(tag byte, pos int64) (uint16, error) {
	var b [2]byte
	if err := d.readFull(b[:]); err != nil {
		return 0, d.eof(tag, pos, err)
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func (d *Decoder) readUint32(tag byte, pos int64) (uint32, error) {
	var b [4]byte
	if err := d.readFull(b[:]); err != nil {
		return 0, d.eof(tag, pos, err)
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func (d *Decoder) readUint64(tag byte, pos int64) (uint64, error) {
	var b [8]byte
	if err := d.readFull(b[:]); err != nil {
		return 0, d.eof(tag, pos, err)
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func (d *Decoder) decodeTag(tag byte, pos int64) (any, error) {
	switch tag {
	case TagNull:
		return nil, nil
	case TagTrue:
		return true, nil
	case TagFalse:
		return false, nil
	case TagInt:
		v, err := d.readUint32(tag, pos)
		if err != nil {
			return nil, err
		}
		return int32(v), nil
	case TagLong:
		v, err := d.readUint64(tag, pos)
		if err != nil {
			return nil, err
		}
		return int64(v), nil
	case TagDouble:
		v, err := d.readUint64(tag, pos)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(v), nil
	case TagDate:
		v, err := d.readUint64(tag, pos)
		if err != nil {
			return nil, err
		}
		return time.UnixMilli(int64(v)).UTC(), nil
	case TagString, TagStringChunk, TagXML, TagXMLChunk:
		return d.readString(tag, pos)
	case TagBytes, TagBytesChunk:
		return d.readBytes(tag, pos)
	case TagList:
		return d.readList(tag, pos)
	case TagMap:
		return d.readMap(tag, pos)
	case TagFault:
		return nil, d.readFault(pos)
	case TagEnd:
		return nil, newFormatError(tag, pos, "unexpected end marker", nil)
	}
	return nil, newFormatError(tag, pos, "unrecognized tag", nil)
}

// readString reads a possibly chunked string whose first tag is tag.
func (d *Decoder) readString(tag byte, pos int64) (string, error) {
	var units []uint16
	for {
		n, err := d.readUint16(tag, pos)
		if err != nil {
			return "", err
		}
		if units, err = d.readUTF(tag, pos, int(n), units); err != nil {
			return "", err
		}
		if tag == TagString || tag == TagXML {
			break
		}
		pos = d.off
		if tag, err = d.readByte(); err != nil {
			return "", d.eof(0, pos, err)
		}
		if tag != TagString && tag != TagStringChunk && tag != TagXML && tag != TagXMLChunk {
			return "", newFormatError(tag, pos, "string chunk expected", nil)
		}
	}
	return string(utf16.Decode(units)), nil
}

// readUTF appends count UTF-16 code units read from the variable width
// encoding: one byte below 0x80, two bytes for lead 0xC0-0xDF, three for
// 0xE0-0xEF and four for 0xF0-0xF4, the latter producing a surrogate pair.
func (d *Decoder) readUTF(tag byte, pos int64, count int, units []uint16) ([]uint16, error) {
	for n := 0; n < count; {
		bpos := d.off
		b, err := d.readByte()
		if err != nil {
			return nil, d.eof(tag, pos, err)
		}
		switch {
		case b < 0x80:
			units = append(units, uint16(b))
			n++
		case b >= 0xC0 && b <= 0xDF:
			c, err := d.continuation(tag, bpos, 1)
			if err != nil {
				return nil, err
			}
			units = append(units, uint16(b&0x1F)<<6|uint16(c[0]))
			n++
		case b >= 0xE0 && b <= 0xEF:
			c, err := d.continuation(tag, bpos, 2)
			if err != nil {
				return nil, err
			}
			units = append(units, uint16(b&0x0F)<<12|uint16(c[0])<<6|uint16(c[1]))
			n++
		case b >= 0xF0 && b <= 0xF4:
			if n+2 > count {
				return nil, newFormatError(tag, bpos, "surrogate pair exceeds declared length", nil)
			}
			c, err := d.continuation(tag, bpos, 3)
			if err != nil {
				return nil, err
			}
			r := rune(b&0x07)<<18 | rune(c[0])<<12 | rune(c[1])<<6 | rune(c[2])
			if r < 0x10000 || r > 0x10FFFF {
				return nil, newFormatError(tag, bpos, "invalid 4 byte sequence", nil)
			}
			r1, r2 := utf16.EncodeRune(r)
			units = append(units, uint16(r1), uint16(r2))
			n += 2
		default:
			return nil, newFormatError(tag, bpos, "invalid UTF lead byte", nil)
		}
	}
	return units, nil
}

// continuation reads n continuation bytes and returns their 6 bit payloads.
func (d *Decoder) continuation(tag byte, pos int64, n int) ([]byte, error) {
	var b [3]byte
	if err := d.readFull(b[:n]); err != nil {
		return nil, d.eof(tag, pos, err)
	}
	for i := 0; i < n; i++ {
		if b[i]&0xC0 != 0x80 {
			return nil, newFormatError(tag, pos, "invalid UTF continuation byte", nil)
		}
		b[i] &= 0x3F
	}
	return b[:n], nil
}

func (d *Decoder) readBytes(tag byte, pos int64) ([]byte, error) {
	var out []byte
	for {
		n, err := d.readUint16(tag, pos)
		if err != nil {
			return nil, err
		}
		chunk, err := d.read(tag, pos, int(n))
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = chunk
		} else {
			out = append(out, chunk...)
		}
		if tag == TagBytes {
			return out, nil
		}
		pos = d.off
		if tag, err = d.readByte(); err != nil {
			return nil, d.eof(0, pos, err)
		}
		if tag != TagBytes && tag != TagBytesChunk {
			return nil, newFormatError(tag, pos, "byte chunk expected", nil)
		}
	}
}

// readHeader consumes the optional type and length markers after a list or
// map tag and returns the tag that follows them.
func (d *Decoder) readHeader(tag byte, pos int64) (next byte, typeName string, length int, err error) {
	length = -1
	npos := d.off
	if next, err = d.readByte(); err != nil {
		err = d.eof(tag, pos, err)
		return
	}
	if next == TagType {
		var n uint16
		if n, err = d.readUint16(next, npos); err != nil {
			return
		}
		var units []uint16
		if units, err = d.readUTF(next, npos, int(n), nil); err != nil {
			return
		}
		typeName = string(utf16.Decode(units))
		npos = d.off
		if next, err = d.readByte(); err != nil {
			err = d.eof(tag, pos, err)
			return
		}
	}
	if next == TagLength {
		var n uint32
		if n, err = d.readUint32(next, npos); err != nil {
			return
		}
		length = int(int32(n))
		if next, err = d.readByte(); err != nil {
			err = d.eof(tag, pos, err)
			return
		}
	}
	return
}

func (d *Decoder) enter(tag byte, pos int64) error {
	d.depth++
	if d.depth > kMaxDepth {
		return newFormatError(tag, pos, "nesting too deep", nil)
	}
	return nil
}

func (d *Decoder) readList(tag byte, pos int64) (list []any, err error) {
	if err = d.enter(tag, pos); err != nil {
		return
	}
	defer func() { d.depth-- }()

	next, _, length, err := d.readHeader(tag, pos)
	if err != nil {
		return nil, err
	}
	if length > 0 {
		if length > kMaxListPrealloc {
			length = kMaxListPrealloc
		}
		list = make([]any, 0, length)
	} else {
		list = []any{}
	}
	for next != TagEnd {
		var v any
		if v, err = d.decodeTag(next, d.off-1); err != nil {
			return nil, err
		}
		list = append(list, v)
		npos := d.off
		if next, err = d.readByte(); err != nil {
			return nil, d.eof(tag, npos, err)
		}
	}
	return list, nil
}

func (d *Decoder) readMap(tag byte, pos int64) (m map[string]any, err error) {
	if err = d.enter(tag, pos); err != nil {
		return
	}
	defer func() { d.depth-- }()

	next, _, _, err := d.readHeader(tag, pos)
	if err != nil {
		return nil, err
	}
	m = make(map[string]any)
	for next != TagEnd {
		kpos := d.off - 1
		var k, v any
		if k, err = d.decodeTag(next, kpos); err != nil {
			return nil, err
		}
		key, ok := k.(string)
		if !ok {
			return nil, newFormatError(next, kpos, "map key is not a string", nil)
		}
		if v, err = d.Decode(); err != nil {
			return nil, d.inner(err)
		}
		m[key] = v
		npos := d.off
		if next, err = d.readByte(); err != nil {
			return nil, d.eof(tag, npos, err)
		}
	}
	return m, nil
}

// inner turns a clean end of stream inside a container into a truncation.
func (d *Decoder) inner(err error) error {
	var fe *FormatError
	if goerrors.As(err, &fe) && fe.Err == io.EOF {
		fe.Err = io.ErrUnexpectedEOF
		fe.Reason = "truncated value"
	}
	return err
}

// readFault reads the body of a fault: either a single string message or
// code/message/detail pairs, terminated by an end marker or end of stream.
func (d *Decoder) readFault(pos int64) error {
	var values []any
	for {
		npos := d.off
		tag, err := d.readByte()
		if err == io.EOF || (err == nil && tag == TagEnd) {
			break
		}
		if err != nil {
			return d.eof(TagFault, pos, err)
		}
		v, err := d.decodeTag(tag, npos)
		if err != nil {
			return err
		}
		values = append(values, v)
	}
	f := &Fault{}
	switch {
	case len(values) == 1:
		s, ok := values[0].(string)
		if !ok {
			return newFormatError(TagFault, pos, "fault message is not a string", nil)
		}
		f.Message = s
	case len(values) > 0 && len(values)%2 == 0:
		for i := 0; i < len(values); i += 2 {
			k, _ := values[i].(string)
			switch k {
			case "code":
				f.Code, _ = values[i+1].(string)
			case "message":
				f.Message, _ = values[i+1].(string)
			case "detail":
				f.Detail = values[i+1]
			}
		}
	default:
		return newFormatError(TagFault, pos, "malformed fault", nil)
	}
	return f
}
