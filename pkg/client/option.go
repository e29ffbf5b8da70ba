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

package client

import (
	"time"

	"synccore/pkg/conn"
	"synccore/pkg/msg"
)

type optionData struct {
	observers []conn.Observer
	push      map[string]msg.ConsumerID
	factory   conn.Factory
	now       func() time.Time
}

type IOption func(data interface{})

// WithObserver registers f for connection state changes before the client
// starts.
func WithObserver(f conn.Observer) IOption {
	return func(i interface{}) {
		if data, ok := i.(*optionData); ok {
			data.observers = append(data.observers, f)
		}
	}
}

// WithPushConsumer routes pushes tagged tag to consumer.
func WithPushConsumer(tag string, consumer msg.ConsumerID) IOption {
	return func(i interface{}) {
		if data, ok := i.(*optionData); ok {
			if data.push == nil {
				data.push = make(map[string]msg.ConsumerID)
			}
			data.push[tag] = consumer
		}
	}
}

// WithTransportFactory replaces the HTTP and socket transports.
func WithTransportFactory(f conn.Factory) IOption {
	return func(i interface{}) {
		if data, ok := i.(*optionData); ok {
			data.factory = f
		}
	}
}

// WithClock overrides the clock used for request deadlines.
func WithClock(now func() time.Time) IOption {
	return func(i interface{}) {
		if data, ok := i.(*optionData); ok {
			data.now = now
		}
	}
}

func newOptionData(opts ...IOption) *optionData {
	data := &optionData{}
	for _, op := range opts {
		op(data)
	}
	return data
}
