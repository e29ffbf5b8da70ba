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

// Package engine is the narrow interface feature sequencers use to talk to
// the core: submit a request, poll for routed responses, and tell the
// scheduler when to run next.
package engine

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"synccore/pkg/codec"
	"synccore/pkg/coord"
	"synccore/pkg/errors"
	"synccore/pkg/msg"
	"synccore/pkg/util"
)

var DefaultConfig = Config{
	DefaultTimeout: util.Duration{Duration: 60 * time.Second},
}

type Config struct {
	// DefaultTimeout applies to requests submitted with a zero Timeout.
	DefaultTimeout util.Duration
}

func (c *Config) SetDefaultIfNotDefined() (set bool) {
	if c.DefaultTimeout.Duration == 0 {
		set = true
		c.DefaultTimeout = DefaultConfig.DefaultTimeout
	}
	return
}

// Request is one call a sequencer wants sent to the server.
type Request struct {
	Kind   msg.Kind
	Method string
	Args   []any
	// Payload, when set, is sent as is and Method/Args are ignored.
	Payload []byte
	// Timeout of zero selects the default; negative means no timeout.
	Timeout time.Duration
}

// Engine is the handle a single sequencer holds on the core.
type Engine struct {
	consumer msg.ConsumerID
	coord    *coord.Coordinator
	config   Config

	mu      sync.Mutex
	wakeAt  time.Time
	hasWake bool
}

func New(consumer msg.ConsumerID, c *coord.Coordinator, cfg Config) *Engine {
	cfg.SetDefaultIfNotDefined()
	return &Engine{consumer: consumer, coord: c, config: cfg}
}

func (e *Engine) ConsumerID() msg.ConsumerID {
	return e.consumer
}

// Submit encodes req and queues it for sending. The returned id is carried
// by the matching Response.
func (e *Engine) Submit(req Request) (int32, error) {
	if !req.Kind.IsValid() || req.Kind == msg.KindPush {
		return 0, errors.Wrap(errors.ErrProtocol, fmt.Errorf("cannot submit kind %s", req.Kind))
	}
	payload := req.Payload
	if payload == nil {
		if req.Method == "" {
			return 0, errors.Wrap(errors.ErrProtocol, fmt.Errorf("no method for %s request", req.Kind))
		}
		var buf bytes.Buffer
		if err := codec.EncodeCall(&buf, req.Method, req.Args...); err != nil {
			return 0, errors.Wrap(errors.ErrFormat, err)
		}
		payload = buf.Bytes()
	}
	timeout := req.Timeout
	if timeout == 0 {
		timeout = e.config.DefaultTimeout.Duration
	}
	id, err := e.coord.Submit(e.consumer, req.Kind, timeout, payload)
	if err != nil {
		return 0, err
	}
	if glog.V(2) {
		glog.Infof("%s submitted %s id=%d method=%s", e.consumer, req.Kind, id, req.Method)
	}
	return id, nil
}

// Poll returns the oldest undelivered response for this engine without
// blocking.
func (e *Engine) Poll() (*coord.Response, bool) {
	return e.coord.Poll(e.consumer)
}

func (e *Engine) PendingResponses() int {
	return e.coord.GetResponsesCount(e.consumer)
}

// SetResponseListener registers f to be called whenever a response for this
// engine is queued.
func (e *Engine) SetResponseListener(f func()) {
	e.coord.SetResponseListener(e.consumer, f)
}

// SetWakeupTime records when the sequencer wants to run next regardless of
// responses.
func (e *Engine) SetWakeupTime(t time.Time) {
	e.mu.Lock()
	e.wakeAt = t
	e.hasWake = true
	e.mu.Unlock()
}

func (e *Engine) ClearWakeupTime() {
	e.mu.Lock()
	e.hasWake = false
	e.mu.Unlock()
}

// NextWakeupTime returns now if responses are waiting, otherwise the time set
// by SetWakeupTime. ok is false when the engine has nothing to do.
func (e *Engine) NextWakeupTime(now time.Time) (t time.Time, ok bool) {
	if e.PendingResponses() > 0 {
		return now, true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasWake {
		return time.Time{}, false
	}
	return e.wakeAt, true
}
