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

package coord

import (
	"sync"

	"synccore/pkg/msg"
)

// responseRouter holds one FIFO of delivered responses per consumer.
type responseRouter struct {
	mu        sync.Mutex
	queues    map[msg.ConsumerID][]*Response
	listeners map[msg.ConsumerID]func()
}

func newResponseRouter() *responseRouter {
	return &responseRouter{
		queues:    make(map[msg.ConsumerID][]*Response),
		listeners: make(map[msg.ConsumerID]func()),
	}
}

func (r *responseRouter) deliver(resp *Response) {
	r.mu.Lock()
	r.queues[resp.ConsumerID] = append(r.queues[resp.ConsumerID], resp)
	listener := r.listeners[resp.ConsumerID]
	r.mu.Unlock()
	if listener != nil {
		listener()
	}
}

func (r *responseRouter) poll(consumer msg.ConsumerID) (*Response, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := r.queues[consumer]
	if len(q) == 0 {
		return nil, false
	}
	resp := q[0]
	q[0] = nil
	if len(q) == 1 {
		delete(r.queues, consumer)
	} else {
		r.queues[consumer] = q[1:]
	}
	return resp, true
}

func (r *responseRouter) count(consumer msg.ConsumerID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queues[consumer])
}

func (r *responseRouter) setListener(consumer msg.ConsumerID, f func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f == nil {
		delete(r.listeners, consumer)
	} else {
		r.listeners[consumer] = f
	}
}
