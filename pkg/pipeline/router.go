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

package pipeline

import (
	"sync"

	"synccore/pkg/msg"
)

// PresenceTag routes presence response frames, whose payload carries no
// type entry of its own.
const PresenceTag = "presence"

// Router maps the type tag of a push notice to the consumer that handles it.
type Router struct {
	mu     sync.RWMutex
	routes map[string]msg.ConsumerID
}

func NewRouter() *Router {
	return &Router{routes: make(map[string]msg.ConsumerID)}
}

func (r *Router) Register(tag string, consumer msg.ConsumerID) {
	r.mu.Lock()
	r.routes[tag] = consumer
	r.mu.Unlock()
}

func (r *Router) Unregister(tag string) {
	r.mu.Lock()
	delete(r.routes, tag)
	r.mu.Unlock()
}

func (r *Router) Lookup(tag string) (consumer msg.ConsumerID, ok bool) {
	r.mu.RLock()
	consumer, ok = r.routes[tag]
	r.mu.RUnlock()
	return
}
