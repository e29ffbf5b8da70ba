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
	"bufio"
	"errors"
	"fmt"
	"io"
)

var (
	ErrShortHeader        = errors.New("proto: short frame header")
	ErrBadSyncMarker      = errors.New("proto: sync marker mismatch")
	ErrUnknownType        = errors.New("proto: unknown message type")
	ErrBadLength          = errors.New("proto: invalid payload length")
	ErrBadCompressionFlag = errors.New("proto: invalid compression flag")
	ErrShortPayload       = errors.New("proto: short payload")
)

// Frame is one self delimited unit of the wire protocol. A frame read from
// a stream must not be modified.
type Frame struct {
	Type          MessageType
	CorrelationID int32
	PayloadLength int32
	Compressed    bool
	Payload       []byte
}

// Build encodes an uncompressed frame.
func Build(msgType MessageType, correlationId int32, payload []byte) []byte {
	raw := make([]byte, HeaderSize+len(payload))
	h := header{
		msgType:       msgType,
		correlationId: correlationId,
		payloadLength: int32(len(payload)),
	}
	h.encode(raw[:HeaderSize])
	copy(raw[HeaderSize:], payload)
	return raw
}

// WriteFrame writes an uncompressed frame to w.
func WriteFrame(w io.Writer, msgType MessageType, correlationId int32, payload []byte) (n int, err error) {
	var raw [HeaderSize]byte
	h := header{
		msgType:       msgType,
		correlationId: correlationId,
		payloadLength: int32(len(payload)),
	}
	h.encode(raw[:])
	if n, err = w.Write(raw[:]); err != nil || len(payload) == 0 {
		return
	}
	var k int
	k, err = w.Write(payload)
	n += k
	return
}

func (f *Frame) String() string {
	return fmt.Sprintf("type=%s id=%d len=%d compressed=%v", f.Type, f.CorrelationID, f.PayloadLength, f.Compressed)
}

// Splitter turns a byte stream into a lazy, forward only sequence of frames.
// The sequence ends at a clean end of stream or at the first header that
// does not validate or payload that is cut short; the rest of the stream is
// left unread.
//
//	s := proto.NewSplitter(r)
//	for s.Next() {
//		f := s.Frame()
//	}
//	if err := s.Err(); err != nil { ... }
type Splitter struct {
	r          *bufio.Reader
	frame      Frame
	err        error
	done       bool
	maxPayload int
}

func NewSplitter(r io.Reader) *Splitter {
	return NewSplitterWithLimit(r, DefaultMaxPayloadSize)
}

func NewSplitterWithLimit(r io.Reader, maxPayload int) *Splitter {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Splitter{r: br, maxPayload: maxPayload}
}

// Next advances to the next frame. It returns false once the sequence is
// over; it never resumes afterwards.
func (s *Splitter) Next() bool {
	if s.done {
		return false
	}
	var raw [HeaderSize]byte
	n, err := io.ReadFull(s.r, raw[:])
	if err != nil {
		if n == 0 && err == io.EOF {
			return s.stop(nil)
		}
		if err == io.ErrUnexpectedEOF {
			return s.stop(ErrShortHeader)
		}
		return s.stop(err)
	}

	var h header
	if err = h.decode(raw[:], s.maxPayload); err != nil {
		return s.stop(err)
	}

	var payload []byte
	if h.payloadLength > 0 {
		payload = make([]byte, h.payloadLength)
		if _, err = io.ReadFull(s.r, payload); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				err = fmt.Errorf("%w: want %d bytes", ErrShortPayload, h.payloadLength)
			}
			return s.stop(err)
		}
	}
	s.frame = Frame{
		Type:          h.msgType,
		CorrelationID: h.correlationId,
		PayloadLength: h.payloadLength,
		Compressed:    h.compressed,
		Payload:       payload,
	}
	return true
}

func (s *Splitter) stop(err error) bool {
	s.done = true
	s.err = err
	s.frame = Frame{}
	return false
}

// Frame returns the current frame.
func (s *Splitter) Frame() Frame {
	return s.frame
}

// Err returns the reason the sequence terminated, nil for a clean end of
// stream.
func (s *Splitter) Err() error {
	return s.err
}

// Split reads every frame of a finite stream.
func Split(r io.Reader) (frames []Frame, err error) {
	s := NewSplitter(r)
	for s.Next() {
		frames = append(frames, s.Frame())
	}
	return frames, s.Err()
}
