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

/*
Package client assembles the sync transport core: the request coordinator,
the decode pipeline and the connection manager, configured from one TOML
file.

A typical caller

  - loads a Config with LoadConfig,
  - creates the client with New and calls Start,
  - calls Connect to sign in over HTTP, then SetLoginState(true) once the
    session is established to move to the persistent socket,
  - creates one Engine per feature sequencer with NewEngine.

Errors delivered in responses match the sentinels of pkg/errors with
errors.Is; IsRetryable tells transient failures from permanent ones.
*/
package client

import (
	"synccore/pkg/conn"
	"synccore/pkg/coord"
	"synccore/pkg/engine"
	"synccore/pkg/msg"
)

type IClient interface {
	Start() error
	Stop()
	Connect() error
	SetLoginState(loggedIn bool) error
	Logout()
	GetState() conn.State
	GetAuthState() conn.AuthState
	NewEngine(consumer msg.ConsumerID) *engine.Engine
	RegisterPush(tag string, consumer msg.ConsumerID)
	GetStats() coord.StatsData
}
