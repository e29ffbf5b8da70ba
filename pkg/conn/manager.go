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

// Package conn owns the network side of the client: the connection manager
// and the two transports it switches between as the user signs in.
package conn

import (
	"fmt"
	"sync"

	"github.com/golang/glog"

	"synccore/pkg/coord"
	"synccore/pkg/errors"
	"synccore/pkg/logging/otel"
	"synccore/pkg/pipeline"
)

// Manager picks the transport for the current authentication state and
// keeps the single authoritative connection state.
//
// Before sign in requests travel over the HTTP auth transport; once
// SetLoginState(true) is called the manager switches to the persistent
// socket. Logout, or a socket that cannot be restored, drops back to
// Unauthenticated and cancels every pending request.
type Manager struct {
	opMu sync.Mutex // serializes transitions

	mu        sync.Mutex
	authState AuthState
	state     State
	transport Transport
	running   bool

	notifyMu  sync.Mutex
	observers []Observer

	coord   *coord.Coordinator
	factory Factory
}

// NewManager returns a manager building the default transports.
func NewManager(c *coord.Coordinator, p *pipeline.Pipeline, auth AuthConfig, socket SocketConfig) *Manager {
	auth.SetDefaultIfNotDefined()
	socket.SetDefaultIfNotDefined()
	return NewManagerWithFactory(c, &defaultFactory{
		coord:    c,
		pipeline: p,
		auth:     auth,
		socket:   socket,
	})
}

func NewManagerWithFactory(c *coord.Coordinator, f Factory) *Manager {
	return &Manager{coord: c, factory: f}
}

// AddObserver registers f for every later state change. Observers are
// called in registration order, one change at a time, and must not call
// back into the manager synchronously.
func (m *Manager) AddObserver(f Observer) {
	m.notifyMu.Lock()
	m.observers = append(m.observers, f)
	m.notifyMu.Unlock()
}

func (m *Manager) GetState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) GetAuthState() AuthState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authState
}

// ActiveTransport returns the name of the running transport, empty when
// none runs.
func (m *Manager) ActiveTransport() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transport == nil {
		return ""
	}
	return m.transport.Name()
}

// SetState records a connection state change and broadcasts it. Repeating
// the current state is not a change.
func (m *Manager) SetState(s State) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	from := m.state
	m.state = s
	m.mu.Unlock()
	if from == s {
		return
	}
	glog.Infof("connection state %s -> %s", from, s)
	otel.RecordCount(otel.ConnState, []otel.Tags{{TagName: otel.State, TagValue: s.String()}})
	for _, f := range m.observers {
		f(from, s)
	}
}

// Start brings up the transport matching the current authentication state.
func (m *Manager) Start() error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	auth := m.authState
	m.mu.Unlock()

	switch auth {
	case Authenticating:
		return m.switchTo(m.factory.NewAuthTransport(m))
	case Authenticated:
		return m.switchTo(m.factory.NewSocketTransport(m))
	}
	return nil
}

// Stop tears the transport down and cancels every pending request. The
// authentication state is kept for the next Start.
func (m *Manager) Stop() {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	m.teardown(errors.ErrCancelled)
}

// Connect begins sign in over the HTTP auth transport.
func (m *Manager) Connect() error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if m.authState != Unauthenticated {
		s := m.authState
		m.mu.Unlock()
		glog.V(2).Infof("connect ignored in %s", s)
		return nil
	}
	m.authState = Authenticating
	running := m.running
	m.mu.Unlock()

	if !running {
		return nil
	}
	return m.switchTo(m.factory.NewAuthTransport(m))
}

// SetLoginState moves to Authenticated and the socket transport on true,
// and logs out on false.
func (m *Manager) SetLoginState(loggedIn bool) error {
	if !loggedIn {
		m.Logout()
		return nil
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if m.authState == Authenticated {
		m.mu.Unlock()
		return nil
	}
	m.authState = Authenticated
	running := m.running
	m.mu.Unlock()

	if !running {
		return nil
	}
	return m.switchTo(m.factory.NewSocketTransport(m))
}

// Logout stops the transport and cancels every pending request.
func (m *Manager) Logout() {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	m.authState = Unauthenticated
	m.mu.Unlock()
	m.teardown(errors.Wrap(errors.ErrTransport, fmt.Errorf("logged out")))
}

// OnUnrecoverable handles a transport that gave up reconnecting.
func (m *Manager) OnUnrecoverable(t Transport, err error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if m.transport != t {
		m.mu.Unlock()
		glog.V(2).Infof("stale failure from %s ignored", t.Name())
		return
	}
	m.authState = Unauthenticated
	m.mu.Unlock()

	glog.Errorf("transport %s failed: %s", t.Name(), err)
	m.teardown(errors.Wrap(errors.ErrTransport, err))
}

// NotifyOfItemInRequestQueue wakes the active transport's sender. It never
// blocks.
func (m *Manager) NotifyOfItemInRequestQueue() {
	m.mu.Lock()
	t := m.transport
	m.mu.Unlock()
	if t != nil {
		t.Notify()
	}
}

// switchTo stops the current transport before starting t, so two are never
// active together. Called with opMu held.
func (m *Manager) switchTo(t Transport) error {
	m.mu.Lock()
	old := m.transport
	m.transport = nil
	m.mu.Unlock()

	if old != nil {
		glog.Infof("stop transport %s", old.Name())
		old.Stop()
	}

	m.mu.Lock()
	m.transport = t
	m.mu.Unlock()

	glog.Infof("start transport %s", t.Name())
	if err := t.Start(); err != nil {
		m.mu.Lock()
		m.transport = nil
		m.mu.Unlock()
		m.SetState(Disconnected)
		return err
	}
	return nil
}

// teardown stops the transport, reports Disconnected and cancels every
// pending request with err. Called with opMu held.
func (m *Manager) teardown(err error) {
	m.mu.Lock()
	t := m.transport
	m.transport = nil
	m.mu.Unlock()

	if t != nil {
		glog.Infof("stop transport %s", t.Name())
		t.Stop()
	}
	m.SetState(Disconnected)
	if n := m.coord.CancelAll(err); n != 0 {
		glog.Infof("%d pending requests cancelled: %s", n, err)
	}
}

type defaultFactory struct {
	coord    *coord.Coordinator
	pipeline *pipeline.Pipeline
	auth     AuthConfig
	socket   SocketConfig
}

func (f *defaultFactory) NewAuthTransport(ev Events) Transport {
	return NewAuthTransport(f.auth, f.coord, f.pipeline, ev)
}

func (f *defaultFactory) NewSocketTransport(ev Events) Transport {
	return NewSocketTransport(f.socket, f.coord, f.pipeline, ev)
}
