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
	"fmt"
)

type MessageType uint8

const (
	MsgPoll                  = MessageType(0)
	MsgExternalRequest       = MessageType(1)
	MsgExternalResponse      = MessageType(2)
	MsgPush                  = MessageType(3)
	MsgInternalRequest       = MessageType(4)
	MsgFetchContacts         = MessageType(5)
	MsgInternalResponse      = MessageType(6)
	MsgSetAvailability       = MessageType(7)
	MsgGetPresence           = MessageType(8)
	MsgPresenceResponse      = MessageType(9)
	MsgSendIM                = MessageType(10)
	MsgChatGetConversation   = MessageType(11)
	MsgChatCloseConversation = MessageType(12)
	MsgHeartbeat             = MessageType(100)
	MsgConnectionTest        = MessageType(101)
)

var (
	SyncMarker = [2]byte{0xFF, 0xFF}
)

const (
	HeaderSize = 16

	kOffsetType        = 2
	kOffsetCorrelation = 3
	kOffsetReserved    = 7
	kOffsetLength      = 11
	kOffsetCompression = 15

	// DefaultMaxPayloadSize bounds the payload length a header may declare.
	DefaultMaxPayloadSize = 8 * 1024 * 1024
)

var msgTypeNames = map[MessageType]string{
	MsgPoll:                  "Poll",
	MsgExternalRequest:       "ExternalRequest",
	MsgExternalResponse:      "ExternalResponse",
	MsgPush:                  "Push",
	MsgInternalRequest:       "InternalRequest",
	MsgFetchContacts:         "FetchContacts",
	MsgInternalResponse:      "InternalResponse",
	MsgSetAvailability:       "SetAvailability",
	MsgGetPresence:           "GetPresence",
	MsgPresenceResponse:      "PresenceResponse",
	MsgSendIM:                "SendIM",
	MsgChatGetConversation:   "ChatGetConversation",
	MsgChatCloseConversation: "ChatCloseConversation",
	MsgHeartbeat:             "Heartbeat",
	MsgConnectionTest:        "ConnectionTest",
}

func (t MessageType) String() string {
	if s, ok := msgTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("MessageType(%d)", uint8(t))
}

func (t MessageType) IsValid() bool {
	_, ok := msgTypeNames[t]
	return ok
}

// IsResponse reports whether frames of this type answer a request and are
// routed by correlation id.
func (t MessageType) IsResponse() bool {
	return t == MsgExternalResponse || t == MsgInternalResponse
}

// IsPush reports whether frames of this type are unsolicited; their
// correlation id is ignored and they are routed by payload content.
func (t MessageType) IsPush() bool {
	return t == MsgPush || t == MsgPresenceResponse
}

// IsControl reports whether the type is a transport level heartbeat or
// connection test that never reaches a consumer.
func (t MessageType) IsControl() bool {
	return t == MsgHeartbeat || t == MsgConnectionTest
}

// IsEnveloped reports whether the payload is a reply envelope, as opposed to
// the opaque body of an external response.
func (t MessageType) IsEnveloped() bool {
	return t != MsgExternalResponse && t != MsgExternalRequest
}
