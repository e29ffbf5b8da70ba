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
	goerrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synccore/pkg/errors"
)

func TestDecodeAuth(t *testing.T) {
	issued := time.UnixMilli(1700000000000).UTC()
	r, err := Decode(KindAuth, []any{map[string]any{
		"userid":        int64(77),
		"sessionid":     "s-1",
		"sessionsecret": "xyz",
		"username":      "alice",
		"issued":        issued,
	}})
	require.NoError(t, err)
	s, ok := r.(*AuthSession)
	require.True(t, ok)
	assert.Equal(t, int64(77), s.UserID)
	assert.Equal(t, "s-1", s.SessionID)
	assert.Equal(t, "xyz", s.Secret)
	assert.Equal(t, "alice", s.Username)
	assert.Equal(t, issued, s.Issued)
	assert.Equal(t, KindAuth, r.Kind())

	_, err = Decode(KindAuth, []any{map[string]any{"userid": int32(1)}})
	assert.True(t, goerrors.Is(err, errors.ErrProtocol))
	_, err = Decode(KindAuth, []any{"not a map"})
	assert.True(t, goerrors.Is(err, errors.ErrProtocol))
}

func TestDecodeItemList(t *testing.T) {
	a := map[string]any{"contactid": int64(1)}
	b := map[string]any{"contactid": int64(2)}
	c := map[string]any{"contactid": int64(3)}

	r, err := Decode(KindContacts, []any{
		map[string]any{"itemlist": []any{a, nil, b}, "currentserverrevision": int32(9)},
		[]any{c},
		nil,
	})
	require.NoError(t, err)
	l := r.(*ItemList)
	assert.Equal(t, KindContacts, l.Kind())
	assert.Equal(t, []map[string]any{a, b, c}, l.Items)
	assert.Equal(t, int64(9), l.Revision)

	r, err = Decode(KindGroups, []any{a})
	require.NoError(t, err)
	assert.Len(t, r.(*ItemList).Items, 1)
	assert.Equal(t, KindGroups, r.Kind())

	r, err = Decode(KindIdentities, nil)
	require.NoError(t, err)
	assert.Empty(t, r.(*ItemList).Items)

	_, err = Decode(KindActivities, []any{[]any{"x"}})
	assert.True(t, goerrors.Is(err, errors.ErrProtocol))
}

func TestDecodeStatus(t *testing.T) {
	r, err := Decode(KindStatus, []any{false})
	require.NoError(t, err)
	assert.False(t, r.(*Status).OK)

	r, err = Decode(KindStatus, []any{map[string]any{"success": true}})
	require.NoError(t, err)
	assert.True(t, r.(*Status).OK)

	r, err = Decode(KindStatus, nil)
	require.NoError(t, err)
	assert.True(t, r.(*Status).OK)
}

func TestDecodePresence(t *testing.T) {
	users := map[string]any{"42": "online"}
	r, err := Decode(KindPresence, []any{map[string]any{"presencelist": users}})
	require.NoError(t, err)
	assert.Equal(t, users, r.(*Presence).Users)

	r, err = Decode(KindPresence, []any{users})
	require.NoError(t, err)
	assert.Equal(t, users, r.(*Presence).Users)
}

func TestDecodeExternal(t *testing.T) {
	r, err := Decode(KindExternal, []any{[]byte("<html/>")})
	require.NoError(t, err)
	assert.Equal(t, []byte("<html/>"), r.(*External).Body)

	_, err = Decode(KindExternal, []any{"a", "b"})
	assert.True(t, goerrors.Is(err, errors.ErrProtocol))
}

func TestDecodePush(t *testing.T) {
	payload := map[string]any{"type": "cc", "changes": int32(3)}
	r, err := Decode(KindPush, []any{payload})
	require.NoError(t, err)
	p := r.(*PushEvent)
	assert.Equal(t, "cc", p.Type)
	assert.Equal(t, payload, p.Payload)

	r, err = Decode(KindPush, []any{int32(1)})
	assert.Nil(t, r)
	assert.True(t, goerrors.Is(err, errors.ErrProtocol))
}

func TestDecodeUnknownKindIsUnrouted(t *testing.T) {
	values := []any{"a", int32(1)}
	for _, k := range []Kind{KindUnknown, Kind(200)} {
		r, err := Decode(k, values)
		require.Error(t, err)
		assert.True(t, goerrors.Is(err, errors.ErrUnrouted))
		u, ok := r.(*Unrouted)
		require.True(t, ok)
		assert.Equal(t, values, u.Values)
	}
}

func TestKindNames(t *testing.T) {
	for k := KindAuth; k <= KindPush; k++ {
		assert.True(t, k.IsValid())
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	assert.False(t, KindUnknown.IsValid())
	assert.Equal(t, "Kind(200)", Kind(200).String())
	_, err := ParseKind("Unknown")
	assert.Error(t, err)
}
