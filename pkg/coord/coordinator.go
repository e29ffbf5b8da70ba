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

// Package coord correlates outbound requests with their responses.
//
// The Coordinator owns every PendingRequest, the timeout index and the
// outbound queue under a single mutex; delivered responses sit in per
// consumer queues under a second one. Callbacks are always invoked with no
// lock held. Each request is delivered exactly once: as a response, an
// error, a timeout or a cancellation.
package coord

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/golang/glog"

	"synccore/pkg/errors"
	"synccore/pkg/logging/otel"
	"synccore/pkg/msg"
	"synccore/pkg/proto"
)

type Config struct {
	// MaxPending bounds the number of live requests; 0 means no bound.
	MaxPending int
	// Now overrides the clock.
	Now func() time.Time
}

type Coordinator struct {
	mu       sync.Mutex
	pending  map[int32]*PendingRequest
	index    timeoutIndex
	outbound []*PendingRequest
	nextID   int32
	onQueued func()

	responses *responseRouter
	stats     *Stats

	maxPending int
	now        func() time.Time

	wakeCh  chan struct{}
	stopCh  chan struct{}
	running bool
	wg      sync.WaitGroup
}

func NewCoordinator(cfg Config) *Coordinator {
	c := &Coordinator{
		pending:    make(map[int32]*PendingRequest),
		responses:  newResponseRouter(),
		stats:      newStats(),
		maxPending: cfg.MaxPending,
		now:        cfg.Now,
		wakeCh:     make(chan struct{}, 1),
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Submit registers a request and queues it for sending. A negative timeout
// means the request never times out. The frame type is derived from kind.
func (c *Coordinator) Submit(consumer msg.ConsumerID, kind msg.Kind, timeout time.Duration, payload []byte) (int32, error) {
	return c.SubmitType(consumer, kind, RequestType(kind), timeout, payload)
}

// SubmitType is Submit with an explicit frame type.
func (c *Coordinator) SubmitType(consumer msg.ConsumerID, kind msg.Kind, msgType proto.MessageType, timeout time.Duration, payload []byte) (int32, error) {
	now := c.now()

	c.mu.Lock()
	if c.maxPending > 0 && len(c.pending) >= c.maxPending {
		n := len(c.pending)
		c.mu.Unlock()
		return 0, errors.Wrap(errors.ErrBusy, fmt.Errorf("%d requests pending", n))
	}
	req := &PendingRequest{
		CorrelationID: c.allocIdLocked(),
		ConsumerID:    consumer,
		Kind:          kind,
		Type:          msgType,
		Payload:       payload,
		SubmittedAt:   now,
		state:         StateSubmitted,
	}
	headChanged := false
	if timeout >= 0 {
		req.TimeoutAt = now.Add(timeout)
		req.hasTimeout = true
		headChanged = c.index.insert(req)
	}
	c.pending[req.CorrelationID] = req
	c.outbound = append(c.outbound, req)
	listener := c.onQueued
	c.mu.Unlock()

	if glog.V(2) {
		glog.Infof("submit id=%d consumer=%s kind=%s type=%s timeout=%s", req.CorrelationID, consumer, kind, msgType, timeout)
	}
	otel.RecordCount(otel.Submitted, []otel.Tags{{TagName: otel.Kind, TagValue: kind.String()}})
	if headChanged {
		c.wake()
	}
	if listener != nil {
		listener()
	}
	return req.CorrelationID, nil
}

// allocIdLocked returns the next positive id not held by a live request.
func (c *Coordinator) allocIdLocked() int32 {
	for {
		c.nextID++
		if c.nextID <= 0 {
			c.nextID = 1
		}
		if _, live := c.pending[c.nextID]; !live {
			return c.nextID
		}
	}
}

// removeLocked detaches req from every structure and reports whether the
// head of the timeout index changed.
func (c *Coordinator) removeLocked(req *PendingRequest) (headChanged bool) {
	delete(c.pending, req.CorrelationID)
	if req.HasTimeout() {
		headChanged = c.index.remove(req)
	}
	if !req.active {
		c.removeOutboundLocked(req)
	}
	return
}

// take removes a live request for a terminal delivery. It returns nil, and
// logs, when id is unknown or was already delivered.
func (c *Coordinator) take(id int32, state State) *PendingRequest {
	c.mu.Lock()
	req, ok := c.pending[id]
	if !ok {
		c.mu.Unlock()
		glog.Warningf("no pending request for id=%d (unknown or already delivered), %s dropped", id, state)
		return nil
	}
	headChanged := c.removeLocked(req)
	req.state = state
	c.mu.Unlock()
	if headChanged {
		c.wake()
	}
	return req
}

// Complete delivers the decoded response for id. It returns false when no
// request with that id is live.
func (c *Coordinator) Complete(id int32, values []any, result msg.Result) bool {
	return c.Resolve(id, values, result, nil)
}

// Fail delivers err as the response for id.
func (c *Coordinator) Fail(id int32, err error) bool {
	return c.Resolve(id, nil, nil, err)
}

// Resolve delivers values, result and err together as the response for id.
// It is the general form of Complete and Fail, used when a response decoded
// into a result that still carries an error.
func (c *Coordinator) Resolve(id int32, values []any, result msg.Result, err error) bool {
	req := c.take(id, StateCompleted)
	if req == nil {
		return false
	}
	c.finish(req, &Response{
		CorrelationID:  id,
		HasCorrelation: true,
		ConsumerID:     req.ConsumerID,
		Kind:           req.Kind,
		Values:         values,
		Result:         result,
		Err:            err,
	})
	return true
}

// Expire delivers a timeout error for every request whose deadline is not
// after now, earliest deadline first, and returns how many expired.
func (c *Coordinator) Expire(now time.Time) int {
	c.mu.Lock()
	due := c.index.popDue(now)
	for _, req := range due {
		req.expired = true
		delete(c.pending, req.CorrelationID)
		if !req.active {
			c.removeOutboundLocked(req)
		}
		req.state = StateTimedOut
	}
	c.mu.Unlock()

	for _, req := range due {
		glog.Warningf("request timeout id=%d consumer=%s kind=%s elapsed=%s",
			req.CorrelationID, req.ConsumerID, req.Kind, now.Sub(req.SubmittedAt))
		c.finish(req, &Response{
			CorrelationID:  req.CorrelationID,
			HasCorrelation: true,
			ConsumerID:     req.ConsumerID,
			Kind:           req.Kind,
			Err:            errors.Wrap(errors.ErrTimeout, fmt.Errorf("id %d after %s", req.CorrelationID, req.TimeoutAt.Sub(req.SubmittedAt))),
		})
	}
	return len(due)
}

func (c *Coordinator) removeOutboundLocked(req *PendingRequest) {
	for i, r := range c.outbound {
		if r == req {
			c.outbound = append(c.outbound[:i], c.outbound[i+1:]...)
			return
		}
	}
}

// CancelAll delivers err to every live request regardless of its deadline,
// in ascending id order. A nil err is delivered as errors.ErrCancelled.
func (c *Coordinator) CancelAll(err error) int {
	if err == nil {
		err = errors.ErrCancelled
	}
	c.mu.Lock()
	reqs := make([]*PendingRequest, 0, len(c.pending))
	for _, req := range c.pending {
		reqs = append(reqs, req)
	}
	c.pending = make(map[int32]*PendingRequest)
	c.index.clear()
	c.outbound = nil
	for _, req := range reqs {
		req.state = StateCancelled
	}
	c.mu.Unlock()
	c.wake()

	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CorrelationID < reqs[j].CorrelationID })
	if len(reqs) != 0 {
		glog.Infof("cancel %d pending requests: %s", len(reqs), err)
	}
	for _, req := range reqs {
		c.finish(req, &Response{
			CorrelationID:  req.CorrelationID,
			HasCorrelation: true,
			ConsumerID:     req.ConsumerID,
			Kind:           req.Kind,
			Err:            err,
		})
	}
	return len(reqs)
}

// FailActive delivers err to every request already handed to a transport.
// Requests still queued stay pending for the next transport.
func (c *Coordinator) FailActive(err error) int {
	c.mu.Lock()
	var reqs []*PendingRequest
	headChanged := false
	for _, req := range c.pending {
		if req.active {
			reqs = append(reqs, req)
		}
	}
	for _, req := range reqs {
		if c.removeLocked(req) {
			headChanged = true
		}
		req.state = StateCancelled
	}
	c.mu.Unlock()
	if headChanged {
		c.wake()
	}

	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CorrelationID < reqs[j].CorrelationID })
	for _, req := range reqs {
		c.finish(req, &Response{
			CorrelationID:  req.CorrelationID,
			HasCorrelation: true,
			ConsumerID:     req.ConsumerID,
			Kind:           req.Kind,
			Err:            err,
		})
	}
	return len(reqs)
}

func (c *Coordinator) finish(req *PendingRequest, resp *Response) {
	latency := c.now().Sub(req.SubmittedAt)
	c.stats.put(req.state, latency, resp.Err)

	status := otel.StatusSuccess
	metric := otel.Completed
	switch {
	case req.state == StateTimedOut:
		status, metric = otel.StatusTimeout, otel.TimedOut
	case req.state == StateCancelled:
		status, metric = otel.StatusCancel, otel.Cancelled
	case resp.Err != nil:
		status = otel.StatusError
	}
	otel.RecordCount(metric, []otel.Tags{{TagName: otel.Kind, TagValue: req.Kind.String()}})
	otel.RecordRequest(req.Kind.String(), status, latency)

	if glog.V(2) {
		glog.Infof("deliver id=%d consumer=%s state=%s err=%v", req.CorrelationID, req.ConsumerID, req.state, resp.Err)
	}
	c.responses.deliver(resp)
}

// Deliver queues a response that does not belong to a pending request, such
// as a push notice, for its consumer.
func (c *Coordinator) Deliver(resp *Response) {
	c.responses.deliver(resp)
}

// Lookup returns the consumer and kind of a live request.
func (c *Coordinator) Lookup(id int32) (consumer msg.ConsumerID, kind msg.Kind, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var req *PendingRequest
	if req, ok = c.pending[id]; ok {
		consumer, kind = req.ConsumerID, req.Kind
	}
	return
}

// GetState returns the state of a live request.
func (c *Coordinator) GetState(id int32) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if req, ok := c.pending[id]; ok {
		return req.state, true
	}
	return 0, false
}

func (c *Coordinator) GetRequestsCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// TakeOutbound hands up to max queued requests (all of them when max <= 0)
// to a transport in submission order and marks them active.
func (c *Coordinator) TakeOutbound(max int) []*PendingRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.outbound)
	if n == 0 {
		return nil
	}
	if max > 0 && n > max {
		n = max
	}
	reqs := make([]*PendingRequest, n)
	copy(reqs, c.outbound[:n])
	rest := copy(c.outbound, c.outbound[n:])
	for i := rest; i < len(c.outbound); i++ {
		c.outbound[i] = nil
	}
	c.outbound = c.outbound[:rest]
	for _, req := range reqs {
		req.active = true
		req.state = StateActive
	}
	return reqs
}

// HasOutbound reports whether requests are waiting to be sent.
func (c *Coordinator) HasOutbound() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outbound) != 0
}

// SetRequestQueueListener registers f to be called after every Submit. A
// nil f unregisters.
func (c *Coordinator) SetRequestQueueListener(f func()) {
	c.mu.Lock()
	c.onQueued = f
	c.mu.Unlock()
}

// Poll returns the oldest response queued for consumer without blocking.
func (c *Coordinator) Poll(consumer msg.ConsumerID) (*Response, bool) {
	return c.responses.poll(consumer)
}

// GetResponsesCount returns the number of responses waiting for consumer.
func (c *Coordinator) GetResponsesCount(consumer msg.ConsumerID) int {
	return c.responses.count(consumer)
}

// SetResponseListener registers f to be called whenever a response is
// queued for consumer. A nil f unregisters.
func (c *Coordinator) SetResponseListener(consumer msg.ConsumerID, f func()) {
	c.responses.setListener(consumer, f)
}

func (c *Coordinator) GetStats() *Stats {
	return c.stats
}

func (c *Coordinator) wake() {
	select {
	case c.wakeCh <- struct{}{}:
	default:
	}
}
