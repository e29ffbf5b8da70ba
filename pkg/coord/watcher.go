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
	"time"

	"github.com/golang/glog"

	"synccore/pkg/util"
)

// Start launches the timeout watcher. It sleeps until the deadline at the
// head of the timeout index and is woken early only when the head changes.
func (c *Coordinator) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.stopCh = make(chan struct{})
	stopCh := c.stopCh
	c.mu.Unlock()

	c.wg.Add(1)
	go c.watch(stopCh)
	glog.V(2).Infof("timeout watcher started")
}

// Stop terminates the watcher and waits for it to exit. Pending requests
// are left in place.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stopCh)
	c.mu.Unlock()
	c.wg.Wait()
	glog.V(2).Infof("timeout watcher stopped")
}

func (c *Coordinator) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// NextDeadline returns the deadline at the head of the timeout index.
func (c *Coordinator) NextDeadline() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if head := c.index.head(); head != nil {
		return head.TimeoutAt, true
	}
	return time.Time{}, false
}

func (c *Coordinator) watch(stopCh chan struct{}) {
	defer c.wg.Done()
	timer := util.NewStoppedTimer()
	defer timer.Stop()

	for {
		if at, ok := c.NextDeadline(); ok {
			timer.ResetAt(at, c.now())
		} else {
			timer.Stop()
		}
		select {
		case <-stopCh:
			return
		case <-c.wakeCh:
		case <-timer.GetTimeoutCh():
			timer.Stop()
			if n := c.Expire(c.now()); n != 0 && glog.V(2) {
				glog.Infof("%d requests expired", n)
			}
		}
	}
}
