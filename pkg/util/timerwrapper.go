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

package util

import (
	"time"
)

// TimerWrapper works around time.Timer.Reset racing with an already fired
// timer (https://github.com/golang/go/issues/11513): a stopped wrapper hands
// out a nil channel, so a select on it blocks until the next Reset.
//
// Not safe for concurrent use; it belongs to the goroutine that selects on it.
type TimerWrapper struct {
	t       *time.Timer
	stopped bool
}

// NewStoppedTimer returns a wrapper that does not fire until Reset.
func NewStoppedTimer() *TimerWrapper {
	t := &TimerWrapper{
		t:       time.NewTimer(time.Hour),
		stopped: true,
	}
	t.t.Stop()
	return t
}

func (t *TimerWrapper) GetTimeoutCh() <-chan time.Time {
	if t.stopped {
		return nil
	}
	return t.t.C
}

func (t *TimerWrapper) IsStopped() bool {
	return t.stopped
}

func (t *TimerWrapper) Stop() {
	if t.stopped {
		return
	}
	if !t.t.Stop() {
		select {
		case <-t.t.C:
		default:
		}
	}
	t.stopped = true
}

// Reset arms the timer for d. A non positive d fires immediately.
func (t *TimerWrapper) Reset(d time.Duration) {
	t.Stop()
	if d < 0 {
		d = 0
	}
	t.t.Reset(d)
	t.stopped = false
}

// ResetAt arms the timer for the deadline at, relative to now.
func (t *TimerWrapper) ResetAt(at time.Time, now time.Time) {
	t.Reset(at.Sub(now))
}
