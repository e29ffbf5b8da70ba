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

package conn

import (
	goerrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synccore/pkg/coord"
	"synccore/pkg/errors"
	"synccore/pkg/msg"
)

type fakeTransport struct {
	name    string
	log     *eventLog
	notify  int
	failure error
}

func (f *fakeTransport) Start() error {
	f.log.add("start " + f.name)
	return f.failure
}

func (f *fakeTransport) Stop()        { f.log.add("stop " + f.name) }
func (f *fakeTransport) Notify()      { f.notify++ }
func (f *fakeTransport) Name() string { return f.name }

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(s string) {
	l.mu.Lock()
	l.events = append(l.events, s)
	l.mu.Unlock()
}

func (l *eventLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type fakeFactory struct {
	log     *eventLog
	n       int
	last    *fakeTransport
	failing bool
}

func (f *fakeFactory) next(kind string) Transport {
	f.n++
	f.last = &fakeTransport{name: fmt.Sprintf("%s%d", kind, f.n), log: f.log}
	if f.failing {
		f.last.failure = fmt.Errorf("cannot start")
	}
	return f.last
}

func (f *fakeFactory) NewAuthTransport(ev Events) Transport   { return f.next("auth") }
func (f *fakeFactory) NewSocketTransport(ev Events) Transport { return f.next("socket") }

func newTestManager() (*Manager, *fakeFactory, *eventLog, *coord.Coordinator) {
	log := &eventLog{}
	f := &fakeFactory{log: log}
	c := coord.NewCoordinator(coord.Config{})
	m := NewManagerWithFactory(c, f)
	m.AddObserver(func(from, to State) { log.add(fmt.Sprintf("%s->%s", from, to)) })
	return m, f, log, c
}

func TestManagerLifecycle(t *testing.T) {
	m, f, log, c := newTestManager()
	require.NoError(t, m.Start())
	assert.Empty(t, m.ActiveTransport())

	require.NoError(t, m.Connect())
	assert.Equal(t, Authenticating, m.GetAuthState())
	assert.Equal(t, "auth1", m.ActiveTransport())
	require.NoError(t, m.Connect())
	assert.Equal(t, 1, f.n, "second connect is a no-op")

	m.SetState(Connecting)
	m.SetState(Connected)
	m.SetState(Connected)

	require.NoError(t, m.SetLoginState(true))
	assert.Equal(t, Authenticated, m.GetAuthState())
	assert.Equal(t, "socket2", m.ActiveTransport())

	m.NotifyOfItemInRequestQueue()
	assert.Equal(t, 1, f.last.notify)

	id, _ := c.Submit("contacts", msg.KindContacts, -1, nil)
	m.Logout()
	assert.Equal(t, Unauthenticated, m.GetAuthState())
	assert.Equal(t, Disconnected, m.GetState())
	assert.Empty(t, m.ActiveTransport())

	resp, ok := c.Poll("contacts")
	require.True(t, ok)
	assert.Equal(t, id, resp.CorrelationID)
	assert.True(t, goerrors.Is(resp.Err, errors.ErrTransport))
	assert.Equal(t, 0, c.GetRequestsCount())

	assert.Equal(t, []string{
		"start auth1",
		"Disconnected->Connecting",
		"Connecting->Connected",
		"stop auth1",
		"start socket2",
		"stop socket2",
		"Connected->Disconnected",
	}, log.get())

	m.NotifyOfItemInRequestQueue()
}

func TestManagerDefersTransportUntilStart(t *testing.T) {
	m, f, log, _ := newTestManager()
	require.NoError(t, m.SetLoginState(true))
	assert.Equal(t, 0, f.n)
	require.NoError(t, m.Start())
	assert.Equal(t, "socket1", m.ActiveTransport())

	m.Stop()
	assert.Equal(t, Authenticated, m.GetAuthState())
	assert.Empty(t, m.ActiveTransport())
	m.Stop()
	assert.Equal(t, []string{"start socket1", "stop socket1"}, log.get())
}

func TestManagerUnrecoverable(t *testing.T) {
	m, f, _, c := newTestManager()
	require.NoError(t, m.Start())
	require.NoError(t, m.SetLoginState(true))
	socket := f.last
	m.SetState(Connected)

	c.Submit("contacts", msg.KindContacts, time.Minute, nil)

	m.OnUnrecoverable(&fakeTransport{name: "stale", log: &eventLog{}}, fmt.Errorf("old"))
	assert.Equal(t, Authenticated, m.GetAuthState())
	assert.Equal(t, 1, c.GetRequestsCount())

	m.OnUnrecoverable(socket, fmt.Errorf("connection refused"))
	assert.Equal(t, Unauthenticated, m.GetAuthState())
	assert.Equal(t, Disconnected, m.GetState())
	assert.Empty(t, m.ActiveTransport())
	resp, ok := c.Poll("contacts")
	require.True(t, ok)
	assert.True(t, goerrors.Is(resp.Err, errors.ErrTransport))
}

func TestManagerStartFailure(t *testing.T) {
	m, f, _, _ := newTestManager()
	f.failing = true
	require.NoError(t, m.Start())
	assert.Error(t, m.Connect())
	assert.Empty(t, m.ActiveTransport())
	assert.Equal(t, Disconnected, m.GetState())
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "Connected", Connected.String())
	assert.Equal(t, "Unknown", State(9).String())
	assert.Equal(t, "Authenticating", Authenticating.String())
	assert.Equal(t, "Unknown", AuthState(9).String())
}
