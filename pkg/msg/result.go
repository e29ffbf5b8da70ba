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

package msg

import (
	"time"
)

// Result is the typed form of a decoded response. The concrete type is
// chosen by the request kind given at submission.
type Result interface {
	Kind() Kind
}

// AuthSession is the session handed out by a successful sign in.
type AuthSession struct {
	UserID    int64
	SessionID string
	Secret    string
	Username  string
	Issued    time.Time
}

// ItemList carries the records returned for a list kind (contacts, groups,
// identities, activities).
type ItemList struct {
	ListKind Kind
	Items    []map[string]any
	Revision int64
}

// Status is the acknowledgement of a request with no payload of interest.
type Status struct {
	OK     bool
	Values []any
}

// Presence maps user ids to their availability entries.
type Presence struct {
	Users map[string]any
}

// External is the opaque body of an external response.
type External struct {
	Body []byte
}

// PushEvent is an unsolicited notice routed by its type tag.
type PushEvent struct {
	Type    string
	Payload map[string]any
}

// Unrouted holds the values of a response whose kind has no decoder.
type Unrouted struct {
	Values []any
}

func (*AuthSession) Kind() Kind { return KindAuth }
func (l *ItemList) Kind() Kind  { return l.ListKind }
func (*Status) Kind() Kind      { return KindStatus }
func (*Presence) Kind() Kind    { return KindPresence }
func (*External) Kind() Kind    { return KindExternal }
func (*PushEvent) Kind() Kind   { return KindPush }
func (*Unrouted) Kind() Kind    { return KindUnknown }
