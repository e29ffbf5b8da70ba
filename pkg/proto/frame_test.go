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

func TestBuildHeaderLayout(t *testing.T) {
	raw := Build(MsgInternalRequest, 0x01020304, []byte("abc"))
	require.Len(t, raw, HeaderSize+3)
	assert.Equal(t, []byte{0xFF, 0xFF}, raw[0:2])
	assert.Equal(t, byte(4), raw[2])
	assert.Equal(t, []byte{1, 2, 3, 4}, raw[3:7])
	assert.Equal(t, []byte{0, 0, 0, 0}, raw[7:11])
	assert.Equal(t, []byte{0, 0, 0, 3}, raw[11:15])
	assert.Equal(t, byte(0), raw[15])
	assert.Equal(t, "abc", string(raw[16:]))
}

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		msgType MessageType
		id      int32
		payload []byte
	}{
		{MsgInternalResponse, 42, []byte("payload")},
		{MsgExternalResponse, -7, []byte{0}},
		{MsgHeartbeat, 0, nil},
		{MsgPush, 2147483647, bytes.Repeat([]byte{9}, 4096)},
	}
	for _, tc := range tests {
		frames, err := Split(bytes.NewReader(Build(tc.msgType, tc.id, tc.payload)))
		require.NoError(t, err)
		require.Len(t, frames, 1)
		f := frames[0]
		assert.Equal(t, tc.msgType, f.Type)
		assert.Equal(t, tc.id, f.CorrelationID)
		assert.Equal(t, int32(len(tc.payload)), f.PayloadLength)
		assert.False(t, f.Compressed)
		if len(tc.payload) == 0 {
			assert.Nil(t, f.Payload)
		} else {
			assert.Equal(t, tc.payload, f.Payload)
		}
	}
}

func TestWriteFrameMatchesBuild(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteFrame(&buf, MsgGetPresence, 9, []byte("xy"))
	require.NoError(t, err)
	assert.Equal(t, HeaderSize+2, n)
	assert.Equal(t, Build(MsgGetPresence, 9, []byte("xy")), buf.Bytes())
}

func TestSplitSequence(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(Build(MsgInternalResponse, 1, []byte("one")))
	stream.Write(Build(MsgHeartbeat, 0, nil))
	stream.Write(Build(MsgPush, 0, []byte("three")))

	s := NewSplitter(&stream)
	var got []Frame
	for s.Next() {
		got = append(got, s.Frame())
	}
	require.NoError(t, s.Err())
	require.Len(t, got, 3)
	assert.Equal(t, "one", string(got[0].Payload))
	assert.Equal(t, MsgHeartbeat, got[1].Type)
	assert.Equal(t, "three", string(got[2].Payload))
	assert.False(t, s.Next(), "sequence must not resume")
}

func TestSplitTerminatesOnMalformedHeader(t *testing.T) {
	good := Build(MsgInternalResponse, 5, []byte("ok"))

	badSync := Build(MsgInternalResponse, 6, []byte("x"))
	badSync[0] = 0x00

	badType := Build(MsgInternalResponse, 6, []byte("x"))
	badType[2] = 50

	negative := Build(MsgInternalResponse, 6, nil)
	negative[11] = 0x80

	badFlag := Build(MsgInternalResponse, 6, nil)
	badFlag[15] = 2

	tests := []struct {
		name string
		bad  []byte
		want error
	}{
		{"sync marker", badSync, ErrBadSyncMarker},
		{"unknown type", badType, ErrUnknownType},
		{"negative length", negative, ErrBadLength},
		{"compression flag", badFlag, ErrBadCompressionFlag},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stream bytes.Buffer
			stream.Write(good)
			stream.Write(tc.bad)
			stream.Write(good)

			frames, err := Split(&stream)
			require.Len(t, frames, 1)
			assert.Equal(t, int32(5), frames[0].CorrelationID)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestSplitTerminatesOnTruncatedTail(t *testing.T) {
	good := Build(MsgInternalResponse, 5, []byte("ok"))
	tests := []struct {
		name string
		tail []byte
		want error
	}{
		{"short header", good[:9], ErrShortHeader},
		{"short payload", good[:HeaderSize+1], ErrShortPayload},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stream bytes.Buffer
			stream.Write(good)
			stream.Write(tc.tail)

			s := NewSplitter(&stream)
			require.True(t, s.Next())
			assert.Equal(t, int32(5), s.Frame().CorrelationID)
			assert.False(t, s.Next())
			assert.True(t, errors.Is(s.Err(), tc.want), "got %v", s.Err())
		})
	}
}

// A frame cut short in the middle of a stream borrows bytes from the frame
// after it; the damage shows up at the following header.
func TestSplitMidStreamTruncation(t *testing.T) {
	good := Build(MsgInternalResponse, 5, []byte("ok"))
	cut := Build(MsgInternalResponse, 6, []byte("abcd"))[:HeaderSize+2]

	var stream bytes.Buffer
	stream.Write(good)
	stream.Write(cut)
	stream.Write(good)

	frames, err := Split(&stream)
	require.Len(t, frames, 2)
	assert.Equal(t, int32(5), frames[0].CorrelationID)
	assert.Equal(t, int32(6), frames[1].CorrelationID)
	assert.Equal(t, []byte{'a', 'b', 0xFF, 0xFF}, frames[1].Payload)
	assert.True(t, errors.Is(err, ErrBadSyncMarker), "got %v", err)
}

func TestTruncatedFrameIsIsolatedToItsStream(t *testing.T) {
	good := Build(MsgInternalResponse, 8, []byte("fine"))
	truncated := Build(MsgInternalResponse, 7, []byte("cut short"))[:HeaderSize+3]

	var first bytes.Buffer
	first.Write(good)
	first.Write(truncated)
	frames, err := Split(&first)
	require.Len(t, frames, 1)
	assert.Equal(t, int32(8), frames[0].CorrelationID)
	assert.True(t, errors.Is(err, ErrShortPayload))

	frames, err = Split(bytes.NewReader(truncated))
	assert.Empty(t, frames)
	assert.True(t, errors.Is(err, ErrShortPayload))

	frames, err = Split(bytes.NewReader(good))
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, "fine", string(frames[0].Payload))
}

func TestSplitPayloadLimit(t *testing.T) {
	raw := Build(MsgInternalResponse, 1, make([]byte, 100))
	s := NewSplitterWithLimit(bytes.NewReader(raw), 99)
	assert.False(t, s.Next())
	assert.True(t, errors.Is(s.Err(), ErrBadLength))
}

func TestMessageTypeClassification(t *testing.T) {
	assert.True(t, MsgInternalResponse.IsResponse())
	assert.True(t, MsgExternalResponse.IsResponse())
	assert.False(t, MsgPush.IsResponse())
	assert.True(t, MsgPush.IsPush())
	assert.True(t, MsgPresenceResponse.IsPush())
	assert.True(t, MsgHeartbeat.IsControl())
	assert.True(t, MsgConnectionTest.IsControl())
	assert.False(t, MsgExternalResponse.IsEnveloped())
	assert.True(t, MsgInternalResponse.IsEnveloped())
	assert.False(t, MessageType(13).IsValid())
	assert.Equal(t, "InternalResponse", MsgInternalResponse.String())
	assert.Equal(t, "MessageType(13)", MessageType(13).String())
}
