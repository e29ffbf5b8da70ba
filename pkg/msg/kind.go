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

// Package msg names the request kinds a consumer can submit and the typed
// result each kind decodes into.
package msg

import (
	"fmt"
)

type Kind uint8

const (
	KindUnknown Kind = iota
	KindAuth
	KindContacts
	KindGroups
	KindIdentities
	KindPresence
	KindActivities
	KindStatus
	KindExternal
	KindPush
)

var kindNames = []string{
	KindUnknown:    "Unknown",
	KindAuth:       "Auth",
	KindContacts:   "Contacts",
	KindGroups:     "Groups",
	KindIdentities: "Identities",
	KindPresence:   "Presence",
	KindActivities: "Activities",
	KindStatus:     "Status",
	KindExternal:   "External",
	KindPush:       "Push",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) IsValid() bool {
	return k > KindUnknown && int(k) < len(kindNames)
}

// ParseKind maps a kind name, as used in configuration and the CLI, back to
// its value.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if n == s && Kind(i) != KindUnknown {
			return Kind(i), nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown kind %q", s)
}

// ConsumerID identifies the engine that submitted a request and receives
// its response. The zero value is no consumer.
type ConsumerID string
