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

package engine

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"synccore/pkg/util"
)

// Sequencer is a feature specific state machine driven by a Runner.
type Sequencer interface {
	// NextWakeupTime returns when the sequencer wants RunOnce called; ok
	// false means not until something changes.
	NextWakeupTime(now time.Time) (t time.Time, ok bool)
	RunOnce(now time.Time)
}

type entry struct {
	name    string
	seq     Sequencer
	running sync.Mutex
}

// Runner drives a set of sequencers from a single loop. A sequencer is never
// invoked concurrently with itself.
type Runner struct {
	mu      sync.Mutex
	entries []*entry
	kickCh  chan struct{}
}

func NewRunner() *Runner {
	return &Runner{kickCh: make(chan struct{}, 1)}
}

func (r *Runner) Add(name string, s Sequencer) {
	r.mu.Lock()
	r.entries = append(r.entries, &entry{name: name, seq: s})
	r.mu.Unlock()
	r.Kick()
}

func (r *Runner) list() []*entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entry(nil), r.entries...)
}

// Kick wakes Run to re-evaluate wakeup times. It never blocks, so it can be
// used as a response listener.
func (r *Runner) Kick() {
	select {
	case r.kickCh <- struct{}{}:
	default:
	}
}

// Invoke runs the named sequencer once unless it is already running. It
// reports whether RunOnce was called.
func (r *Runner) Invoke(name string, now time.Time) bool {
	for _, e := range r.list() {
		if e.name == name {
			return e.invoke(now)
		}
	}
	return false
}

func (e *entry) invoke(now time.Time) bool {
	if !e.running.TryLock() {
		glog.V(2).Infof("sequencer %s already running", e.name)
		return false
	}
	defer e.running.Unlock()
	e.seq.RunOnce(now)
	return true
}

// RunDue invokes every sequencer whose wakeup time is not after now and
// returns how many ran.
func (r *Runner) RunDue(now time.Time) (n int) {
	for _, e := range r.list() {
		if t, ok := e.seq.NextWakeupTime(now); ok && !t.After(now) {
			if e.invoke(now) {
				n++
			}
		}
	}
	return
}

// NextWakeupTime returns the earliest wakeup time across all sequencers.
func (r *Runner) NextWakeupTime(now time.Time) (next time.Time, ok bool) {
	for _, e := range r.list() {
		if t, due := e.seq.NextWakeupTime(now); due && (!ok || t.Before(next)) {
			next, ok = t, true
		}
	}
	return
}

// Run calls RunDue whenever a sequencer is due or Kick is called, until ctx
// is done.
func (r *Runner) Run(ctx context.Context) {
	timer := util.NewStoppedTimer()
	defer timer.Stop()
	for {
		now := time.Now()
		r.RunDue(now)
		if next, ok := r.NextWakeupTime(time.Now()); ok {
			timer.ResetAt(next, time.Now())
		} else {
			timer.Stop()
		}
		select {
		case <-ctx.Done():
			return
		case <-r.kickCh:
		case <-timer.GetTimeoutCh():
			timer.Stop()
		}
	}
}
