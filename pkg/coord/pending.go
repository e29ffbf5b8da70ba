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

package coord

import (
	"time"

	"synccore/pkg/msg"
	"synccore/pkg/proto"
)

type State uint8

const (
	StateSubmitted State = iota
	StateActive
	StateCompleted
	StateTimedOut
	StateCancelled
)

var stateNames = []string{"Submitted", "Active", "Completed", "TimedOut", "Cancelled"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s >= StateCompleted
}

// PendingRequest tracks one outstanding request from submission until its
// single terminal delivery. Fields are read only outside the coordinator.
type PendingRequest struct {
	CorrelationID int32
	ConsumerID    msg.ConsumerID
	Kind          msg.Kind
	Type          proto.MessageType
	Payload       []byte
	SubmittedAt   time.Time
	// TimeoutAt is meaningful only when HasTimeout reports true.
	TimeoutAt time.Time

	hasTimeout bool
	expired    bool
	active     bool
	state      State
}

func (r *PendingRequest) HasTimeout() bool {
	return r.hasTimeout
}

// Frame encodes the request for the wire.
func (r *PendingRequest) Frame() []byte {
	return proto.Build(r.Type, r.CorrelationID, r.Payload)
}

// Response is the single delivery a consumer receives for a request, or
// the delivery of a push notice (HasCorrelation false).
type Response struct {
	CorrelationID  int32
	HasCorrelation bool
	ConsumerID     msg.ConsumerID
	Kind           msg.Kind
	Values         []any
	Result         msg.Result
	Err            error
}

// RequestType returns the frame type used to send a request of kind.
func RequestType(kind msg.Kind) proto.MessageType {
	switch kind {
	case msg.KindExternal:
		return proto.MsgExternalRequest
	case msg.KindPresence:
		return proto.MsgGetPresence
	}
	return proto.MsgInternalRequest
}
