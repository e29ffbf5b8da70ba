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

type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	}
	return "Unknown"
}

type AuthState int32

const (
	Unauthenticated AuthState = iota
	Authenticating
	Authenticated
)

func (s AuthState) String() string {
	switch s {
	case Unauthenticated:
		return "Unauthenticated"
	case Authenticating:
		return "Authenticating"
	case Authenticated:
		return "Authenticated"
	}
	return "Unknown"
}

type (
	// Transport moves frames between the coordinator and the network. At
	// most one transport is started at any time.
	Transport interface {
		// Start registers the transport as the coordinator's request queue
		// listener and launches its goroutines.
		Start() error
		// Stop unregisters the listener and waits for the goroutines to exit.
		Stop()
		// Notify wakes the sender without blocking.
		Notify()
		Name() string
	}

	// Observer receives every ConnectionState change in order.
	Observer func(from State, to State)

	// Events is how a transport reports to its manager.
	Events interface {
		SetState(s State)
		// OnUnrecoverable is called once a transport gives up. It must not
		// be called on a goroutine that Stop waits for.
		OnUnrecoverable(t Transport, err error)
	}

	// Factory builds the transport for each authentication phase.
	Factory interface {
		NewAuthTransport(ev Events) Transport
		NewSocketTransport(ev Events) Transport
	}
)
