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

// Package errors defines the error taxonomy shared by the sync core.
//
// Every failure that reaches a consumer is an *Error carried in the
// response. Errors compare by errno, so an instance created with NewError
// or Wrap matches the package sentinels under errors.Is.
package errors

import (
	"fmt"
)

const (
	KErrNone uint32 = iota
	KErrFormat
	KErrTimeout
	KErrTransport
	KErrProtocol
	KErrUnrouted
	KErrServerFault
	KErrCancelled
	KErrBusy
	KErrNoConnection
)

var (
	ErrFormat       = &Error{what: "malformed wire data", errno: KErrFormat}
	ErrTimeout      = &Error{what: "request timeout", errno: KErrTimeout}
	ErrTransport    = &Error{what: "transport failure", errno: KErrTransport}
	ErrProtocol     = &Error{what: "protocol violation", errno: KErrProtocol}
	ErrUnrouted     = &Error{what: "unrouted response", errno: KErrUnrouted}
	ErrServerFault  = &Error{what: "server fault", errno: KErrServerFault}
	ErrCancelled    = &Error{what: "cancelled", errno: KErrCancelled}
	ErrBusy         = &Error{what: "busy", errno: KErrBusy}
	ErrNoConnection = &Error{what: "no connection", errno: KErrNoConnection}
)

type Error struct {
	what  string
	errno uint32
	cause error
}

func NewError(what string, errno uint32) *Error {
	return &Error{what: what, errno: errno}
}

// Wrap returns an error of the same class as e carrying cause.
func Wrap(e *Error, cause error) *Error {
	if cause == nil {
		return e
	}
	return &Error{what: e.what, errno: e.errno, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("error: %s (%d): %s", e.what, e.errno, e.cause.Error())
	}
	return fmt.Sprintf("error: %s (%d)", e.what, e.errno)
}

func (e *Error) ErrNo() uint32 {
	return e.errno
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return t.errno == e.errno
	}
	return false
}

// ErrNoOf returns the errno of the first *Error in err's chain, or KErrNone.
func ErrNoOf(err error) uint32 {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.errno
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return KErrNone
}
