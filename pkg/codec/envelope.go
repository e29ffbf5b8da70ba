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
	"io"
)

// DecodeReply reads a reply envelope: the reply tag, two version bytes that
// are skipped, the reply values and the end marker. The end marker is
// consumed by the envelope and never handed to a value decoder. A fault,
// either in place of the reply tag or as the first value, is returned as a
// *Fault error.
func DecodeReply(r io.Reader) (values []any, err error) {
	d := NewDecoder(r)
	return d.DecodeReply()
}

// DecodeReplyBytes is DecodeReply over an in-memory payload.
func DecodeReplyBytes(b []byte) ([]any, error) {
	return DecodeReply(bytes.NewReader(b))
}

func (d *Decoder) DecodeReply() (values []any, err error) {
	pos := d.off
	tag, err := d.readByte()
	if err != nil {
		return nil, newFormatError(0, pos, "no reply", err)
	}
	switch tag {
	case TagReply:
		var version [2]byte
		if err = d.readFull(version[:]); err != nil {
			return nil, d.eof(tag, pos, err)
		}
	case TagFault:
		return nil, d.readFault(pos)
	default:
		return nil, newFormatError(tag, pos, "reply envelope expected", nil)
	}

	values = []any{}
	for {
		npos := d.off
		if tag, err = d.readByte(); err != nil {
			return nil, d.eof(TagReply, npos, err)
		}
		if tag == TagEnd {
			return values, nil
		}
		var v any
		if v, err = d.decodeTag(tag, npos); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
}

// DecodeCall reads a call envelope as written by EncodeCall and returns the
// method name and arguments.
func (d *Decoder) DecodeCall() (method string, args []any, err error) {
	pos := d.off
	tag, err := d.readByte()
	if err != nil {
		return "", nil, newFormatError(0, pos, "no call", err)
	}
	if tag != TagCall {
		return "", nil, newFormatError(tag, pos, "call envelope expected", nil)
	}
	var version [2]byte
	if err = d.readFull(version[:]); err != nil {
		return "", nil, d.eof(tag, pos, err)
	}
	mpos := d.off
	if tag, err = d.readByte(); err != nil {
		return "", nil, d.eof(TagCall, mpos, err)
	}
	if tag != TagMethod {
		return "", nil, newFormatError(tag, mpos, "method expected", nil)
	}
	n, err := d.readUint16(tag, mpos)
	if err != nil {
		return "", nil, err
	}
	name, err := d.read(tag, mpos, int(n))
	if err != nil {
		return "", nil, err
	}

	args = []any{}
	for {
		npos := d.off
		if tag, err = d.readByte(); err != nil {
			return "", nil, d.eof(TagCall, npos, err)
		}
		if tag == TagEnd {
			return string(name), args, nil
		}
		var v any
		if v, err = d.decodeTag(tag, npos); err != nil {
			return "", nil, err
		}
		args = append(args, v)
	}
}
