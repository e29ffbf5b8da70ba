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
	"fmt"

	"synccore/pkg/codec"
	"synccore/pkg/errors"
)

const (
	KeyUserID    = "userid"
	KeySessionID = "sessionid"
	KeySecret    = "sessionsecret"
	KeyUsername  = "username"
	KeyIssued    = "issued"
	KeyItemList  = "itemlist"
	KeyRevision  = "currentserverrevision"
	KeySuccess   = "success"
	KeyType      = "type"
	KeyPresence  = "presencelist"
)

// Decode builds the result variant for kind from the values of a reply
// envelope. External responses carry their body as a single []byte value.
// A kind without a decoder yields an *Unrouted result together with
// errors.ErrUnrouted; a shape mismatch yields errors.ErrProtocol.
func Decode(kind Kind, values []any) (Result, error) {
	switch kind {
	case KindAuth:
		return decodeAuth(values)
	case KindContacts, KindGroups, KindIdentities, KindActivities:
		return decodeItemList(kind, values)
	case KindStatus:
		return decodeStatus(values)
	case KindPresence:
		return decodePresence(values)
	case KindExternal:
		return decodeExternal(values)
	case KindPush:
		p, err := DecodePush(values)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return &Unrouted{Values: values}, errors.Wrap(errors.ErrUnrouted, fmt.Errorf("kind %s", kind))
}

func protocolError(format string, a ...any) error {
	return errors.Wrap(errors.ErrProtocol, fmt.Errorf(format, a...))
}

// firstMap returns the first map among values.
func firstMap(values []any) (map[string]any, bool) {
	for _, v := range values {
		if m, ok := v.(map[string]any); ok {
			return m, true
		}
	}
	return nil, false
}

func decodeAuth(values []any) (Result, error) {
	m, ok := firstMap(values)
	if !ok {
		return nil, protocolError("auth reply without session map")
	}
	s := &AuthSession{}
	if s.SessionID, ok = codec.GetString(m, KeySessionID); !ok || s.SessionID == "" {
		return nil, protocolError("auth reply without %s", KeySessionID)
	}
	if s.UserID, ok = codec.GetInt64(m, KeyUserID); !ok {
		return nil, protocolError("auth reply without %s", KeyUserID)
	}
	s.Secret, _ = codec.GetString(m, KeySecret)
	s.Username, _ = codec.GetString(m, KeyUsername)
	s.Issued, _ = codec.GetTime(m, KeyIssued)
	return s, nil
}

// decodeItemList accepts items either as top level maps, as lists of maps,
// or under the itemlist key of a map.
func decodeItemList(kind Kind, values []any) (Result, error) {
	l := &ItemList{ListKind: kind, Items: []map[string]any{}}
	add := func(list []any) error {
		for _, item := range list {
			if item == nil {
				continue
			}
			m, ok := item.(map[string]any)
			if !ok {
				return protocolError("%s item is %T", kind, item)
			}
			l.Items = append(l.Items, m)
		}
		return nil
	}
	for _, v := range values {
		switch t := v.(type) {
		case nil:
		case []any:
			if err := add(t); err != nil {
				return nil, err
			}
		case map[string]any:
			if list, ok := codec.GetList(t, KeyItemList); ok {
				if err := add(list); err != nil {
					return nil, err
				}
				if rev, ok := codec.GetInt64(t, KeyRevision); ok {
					l.Revision = rev
				}
			} else {
				l.Items = append(l.Items, t)
			}
		default:
			return nil, protocolError("%s reply value is %T", kind, v)
		}
	}
	return l, nil
}

func decodeStatus(values []any) (Result, error) {
	s := &Status{OK: true, Values: values}
	for _, v := range values {
		switch t := v.(type) {
		case bool:
			s.OK = t
			return s, nil
		case map[string]any:
			if ok, found := codec.GetBool(t, KeySuccess); found {
				s.OK = ok
				return s, nil
			}
		}
	}
	return s, nil
}

func decodePresence(values []any) (Result, error) {
	m, ok := firstMap(values)
	if !ok {
		return &Presence{Users: map[string]any{}}, nil
	}
	if inner, ok := codec.GetMap(m, KeyPresence); ok {
		m = inner
	}
	return &Presence{Users: m}, nil
}

func decodeExternal(values []any) (Result, error) {
	if len(values) != 1 {
		return nil, protocolError("external reply with %d values", len(values))
	}
	switch t := values[0].(type) {
	case []byte:
		return &External{Body: t}, nil
	case nil:
		return &External{}, nil
	}
	return nil, protocolError("external reply value is %T", values[0])
}

// DecodePush builds a push event from the values of a push payload. The
// payload must be a map carrying its routing tag under "type".
func DecodePush(values []any) (*PushEvent, error) {
	m, ok := firstMap(values)
	if !ok {
		return nil, protocolError("push without map payload")
	}
	tag, _ := codec.GetString(m, KeyType)
	return &PushEvent{Type: tag, Payload: m}, nil
}
