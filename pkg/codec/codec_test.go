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
	"bytes"
	goerrors "errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synccore/pkg/errors"
)

func roundTrip(t *testing.T, v any) any {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(v))
	d := NewDecoder(&buf)
	out, err := d.Decode()
	require.NoError(t, err)
	assert.Equal(t, 0, buf.Len(), "trailing bytes after decode")
	return out
}

func TestRoundTrip(t *testing.T) {
	date := time.UnixMilli(1262304000123).UTC()
	tests := []struct {
		name string
		in   any
	}{
		{"null", nil},
		{"true", true},
		{"false", false},
		{"int", int32(-123456)},
		{"int min", int32(-2147483648)},
		{"long", int64(1) << 40},
		{"double", 3.25},
		{"date", date},
		{"empty string", ""},
		{"ascii", "hello"},
		{"two byte", "café"},
		{"three byte", "€ 中文"},
		{"surrogate pair", "smile \U0001F600!"},
		{"bytes", []byte{0, 1, 2, 0xff}},
		{"empty bytes", []byte{}},
		{"list", []any{int32(1), "two", nil, int64(3), []any{true}}},
		{"empty list", []any{}},
		{"map", map[string]any{
			"id":      int64(42),
			"name":    "Ada",
			"tags":    []any{"a", "b"},
			"missing": nil,
			"nested":  map[string]any{"x": int32(1)},
		}},
		{"empty map", map[string]any{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.in, roundTrip(t, tc.in))
		})
	}
}

func TestEncodeOrderedMap(t *testing.T) {
	m := NewMap().Set("z", int32(1)).Set("a", "x").Set("z", int32(2))
	assert.Equal(t, []string{"z", "a"}, m.Keys())

	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(m))
	want := []byte{'M', 'S', 0, 1, 'z', 'I', 0, 0, 0, 2, 'S', 0, 1, 'a', 'S', 0, 1, 'x', 'z'}
	assert.Equal(t, want, buf.Bytes())

	out := roundTrip(t, m)
	assert.Equal(t, m.ToMap(), out)
}

func TestEncodeTypedSlices(t *testing.T) {
	assert.Equal(t, []any{"a", "b"}, roundTrip(t, []string{"a", "b"}))
	assert.Equal(t, []any{int32(1)}, roundTrip(t, []int32{1}))
	assert.Equal(t, []any{int64(7)}, roundTrip(t, []int64{7}))
	assert.Equal(t, int32(5), roundTrip(t, 5))
	assert.Equal(t, int64(1)<<33, roundTrip(t, 1<<33))

	err := NewEncoder(io.Discard).Encode(struct{}{})
	assert.Error(t, err)
}

func TestStringLengthCountsUTF16Units(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode("a\U0001F600"))
	b := buf.Bytes()
	assert.Equal(t, byte('S'), b[0])
	assert.Equal(t, []byte{0, 3}, b[1:3])
	assert.Len(t, b, 3+1+4)
}

func TestLongStringIsChunked(t *testing.T) {
	s := strings.Repeat("abé", 30000)
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(s))
	assert.Equal(t, byte('s'), buf.Bytes()[0])
	assert.Equal(t, s, roundTrip(t, s))

	b := bytes.Repeat([]byte{7}, 70000)
	assert.Equal(t, b, roundTrip(t, b))
}

func TestDecodeListMarkers(t *testing.T) {
	in := []byte{
		'V',
		't', 0, 4, 'l', 'i', 's', 't',
		'l', 0, 0, 0, 2,
		'I', 0, 0, 0, 1,
		'N',
		'z',
	}
	v, err := NewDecoder(bytes.NewReader(in)).Decode()
	require.NoError(t, err)
	assert.Equal(t, []any{int32(1), nil}, v)
}

func TestDecodeTypedMap(t *testing.T) {
	in := []byte{'M', 't', 0, 1, 'x', 'S', 0, 1, 'k', 'N', 'z'}
	v, err := NewDecoder(bytes.NewReader(in)).Decode()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": nil}, v)
}

func TestDecodeUnknownTag(t *testing.T) {
	in := []byte{'V', 'I', 0, 0, 0, 1, 'Q', 'z'}
	_, err := NewDecoder(bytes.NewReader(in)).Decode()
	require.Error(t, err)

	var fe *FormatError
	require.True(t, goerrors.As(err, &fe))
	assert.Equal(t, byte('Q'), fe.Tag)
	assert.Equal(t, int64(6), fe.Offset)
	assert.True(t, goerrors.Is(err, errors.ErrFormat))
	assert.Contains(t, err.Error(), "'Q'")
}

func TestDecodeMalformedUTF(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"bad lead", []byte{'S', 0, 1, 0x80}},
		{"bad continuation", []byte{'S', 0, 1, 0xC3, 0x41}},
		{"lead out of range", []byte{'S', 0, 1, 0xF8, 0x80, 0x80, 0x80}},
		{"pair over length", []byte{'S', 0, 1, 0xF0, 0x9F, 0x98, 0x80}},
		{"truncated sequence", []byte{'S', 0, 1, 0xE2, 0x82}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDecoder(bytes.NewReader(tc.in)).Decode()
			var fe *FormatError
			require.True(t, goerrors.As(err, &fe), "got %v", err)
			assert.Equal(t, byte('S'), fe.Tag)
		})
	}
}

func TestDecodeModifiedUTF8Null(t *testing.T) {
	v, err := NewDecoder(bytes.NewReader([]byte{'S', 0, 2, 'a', 0xC0, 0x80})).Decode()
	require.NoError(t, err)
	assert.Equal(t, "a\x00", v)
}

func TestDecodeEndOfStream(t *testing.T) {
	_, err := NewDecoder(bytes.NewReader(nil)).Decode()
	assert.True(t, goerrors.Is(err, errors.ErrFormat))
	assert.True(t, goerrors.Is(err, io.EOF))

	truncated := [][]byte{
		{'I', 0, 0},
		{'L', 0, 0, 0, 0},
		{'S', 0, 5, 'a', 'b'},
		{'B', 0, 3, 1},
		{'V', 'I', 0, 0, 0, 1},
		{'M', 'S', 0, 1, 'k'},
		{'M', 'S', 0, 1, 'k', 'I', 0, 0, 0, 1},
	}
	for _, in := range truncated {
		_, err := NewDecoder(bytes.NewReader(in)).Decode()
		require.Error(t, err, "%q", in)
		assert.True(t, goerrors.Is(err, errors.ErrFormat), "%q", in)
		assert.True(t, goerrors.Is(err, io.ErrUnexpectedEOF), "%q: %v", in, err)
	}
}

func TestDecodeStrayEndMarker(t *testing.T) {
	_, err := NewDecoder(bytes.NewReader([]byte{'z'})).Decode()
	var fe *FormatError
	require.True(t, goerrors.As(err, &fe))
	assert.Equal(t, byte('z'), fe.Tag)
}

func TestDecodeNonStringMapKey(t *testing.T) {
	_, err := NewDecoder(bytes.NewReader([]byte{'M', 'I', 0, 0, 0, 1, 'N', 'z'})).Decode()
	assert.True(t, goerrors.Is(err, errors.ErrFormat))
}

func TestDecodeNestingLimit(t *testing.T) {
	in := bytes.Repeat([]byte{'V'}, kMaxDepth+1)
	_, err := NewDecoder(bytes.NewReader(in)).Decode()
	var fe *FormatError
	require.True(t, goerrors.As(err, &fe))
	assert.Equal(t, "nesting too deep", fe.Reason)
}

func TestDecodeReplyMap(t *testing.T) {
	in := []byte{
		'r', 0x01, 0x00,
		'M',
		'S', 0, 6, 'u', 's', 'e', 'r', 'i', 'd', 'L', 0, 0, 0, 0, 0, 0, 0, 42,
		'S', 0, 4, 'n', 'a', 'm', 'e', 'S', 0, 3, 'B', 'o', 'b',
		'S', 0, 4, 'n', 'o', 'n', 'e', 'N',
		'z',
		'z',
	}
	r := bytes.NewReader(in)
	values, err := DecodeReply(r)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, map[string]any{"userid": int64(42), "name": "Bob", "none": nil}, values[0])
	assert.Equal(t, 0, r.Len())
}

func TestDecodeReplyFault(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeFault(&buf, "session expired"))
	_, err := DecodeReplyBytes(buf.Bytes())
	var f *Fault
	require.True(t, goerrors.As(err, &f))
	assert.Equal(t, "session expired", f.Message)
	assert.True(t, goerrors.Is(err, errors.ErrServerFault))

	bare := []byte{'f', 'S', 0, 3, 'b', 'a', 'd'}
	_, err = DecodeReplyBytes(bare)
	require.True(t, goerrors.As(err, &f))
	assert.Equal(t, "bad", f.Message)

	pairs := []byte{'f', 'S', 0, 4, 'c', 'o', 'd', 'e', 'S', 0, 1, 'E', 'S', 0, 7, 'm', 'e', 's', 's', 'a', 'g', 'e', 'S', 0, 1, 'm', 'z'}
	_, err = DecodeReplyBytes(pairs)
	require.True(t, goerrors.As(err, &f))
	assert.Equal(t, "E", f.Code)
	assert.Equal(t, "m", f.Message)
}

func TestDecodeReplyErrors(t *testing.T) {
	_, err := DecodeReplyBytes([]byte{'M', 'z'})
	assert.True(t, goerrors.Is(err, errors.ErrFormat))

	_, err = DecodeReplyBytes([]byte{'r', 1})
	assert.True(t, goerrors.Is(err, io.ErrUnexpectedEOF))

	_, err = DecodeReplyBytes([]byte{'r', 1, 0, 'N'})
	assert.True(t, goerrors.Is(err, io.ErrUnexpectedEOF))
}

func TestReplyRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeReply(&buf, map[string]any{"ok": true}, nil, "x"))
	values, err := DecodeReplyBytes(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"ok": true}, nil, "x"}, values)
}

func TestEncodeCall(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeCall(&buf, "auth/getsessionbycredentials", "user", int32(1)))
	b := buf.Bytes()
	assert.Equal(t, []byte{'c', 1, 0, 'm', 0, 28}, b[:6])
	assert.Equal(t, "auth/getsessionbycredentials", string(b[6:34]))
	assert.Equal(t, byte('z'), b[len(b)-1])

	d := NewDecoder(bytes.NewReader(b[34 : len(b)-1]))
	v, err := d.Decode()
	require.NoError(t, err)
	assert.Equal(t, "user", v)
	v, err = d.Decode()
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)
}

func TestMapAccessors(t *testing.T) {
	now := time.UnixMilli(1000).UTC()
	m := map[string]any{
		"s": "v", "i": int32(3), "l": int64(4), "b": true, "t": now,
		"list": []any{}, "map": map[string]any{},
	}
	s, ok := GetString(m, "s")
	assert.True(t, ok)
	assert.Equal(t, "v", s)
	i, _ := GetInt64(m, "i")
	assert.Equal(t, int64(3), i)
	l, _ := GetInt64(m, "l")
	assert.Equal(t, int64(4), l)
	_, ok = GetInt64(m, "s")
	assert.False(t, ok)
	b, _ := GetBool(m, "b")
	assert.True(t, b)
	tm, _ := GetTime(m, "t")
	assert.Equal(t, now, tm)
	_, ok = GetList(m, "list")
	assert.True(t, ok)
	_, ok = GetMap(m, "map")
	assert.True(t, ok)
}

func TestDecodeCall(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeCall(&buf, "contacts/getchanges", int64(7), []string{"a"}))
	method, args, err := NewDecoder(&buf).DecodeCall()
	require.NoError(t, err)
	assert.Equal(t, "contacts/getchanges", method)
	assert.Equal(t, []any{int64(7), []any{"a"}}, args)

	var reply bytes.Buffer
	require.NoError(t, EncodeReply(&reply, true))
	_, _, err = NewDecoder(&reply).DecodeCall()
	var fe *FormatError
	assert.True(t, goerrors.As(err, &fe))

	truncated := []byte{'c', 1, 0, 'm', 0, 9, 'a'}
	_, _, err = NewDecoder(bytes.NewReader(truncated)).DecodeCall()
	assert.True(t, goerrors.Is(err, io.ErrUnexpectedEOF))
}
