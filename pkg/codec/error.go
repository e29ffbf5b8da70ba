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
	"fmt"

	"synccore/pkg/errors"
)

// FormatError reports malformed wire data. Tag is the tag byte being
// decoded (0 when none applies) and Offset the stream position of it.
type FormatError struct {
	Tag    byte
	Offset int64
	Reason string
	Err    error
}

func newFormatError(tag byte, offset int64, reason string, err error) *FormatError {
	return &FormatError{Tag: tag, Offset: offset, Reason: reason, Err: err}
}

func (e *FormatError) Error() string {
	var s string
	if e.Tag >= 0x20 && e.Tag < 0x7F {
		s = fmt.Sprintf("codec: %s (tag '%c' at offset %d)", e.Reason, e.Tag, e.Offset)
	} else {
		s = fmt.Sprintf("codec: %s (tag 0x%02x at offset %d)", e.Reason, e.Tag, e.Offset)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{errors.ErrFormat, e.Err}
	}
	return []error{errors.ErrFormat}
}

// Fault is the error a remote peer returns in place of a reply.
type Fault struct {
	Code    string
	Message string
	Detail  any
}

func (f *Fault) Error() string {
	if f.Code != "" {
		return fmt.Sprintf("fault %s: %s", f.Code, f.Message)
	}
	return "fault: " + f.Message
}

func (f *Fault) Unwrap() error {
	return errors.ErrServerFault
}
