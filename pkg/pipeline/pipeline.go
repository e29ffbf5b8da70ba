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

// Package pipeline decodes received frames off the network goroutines.
//
// Frames are queued as Items and handled one at a time by a single worker:
// decompress, resolve the consumer, decode the payload, build the result for
// the request kind and hand it to the coordinator. A frame that fails at any
// step is dropped and, when its consumer is known, reported to it as an
// error response; the worker always moves on to the next item.
package pipeline

import (
	"bytes"
	goerrors "errors"
	"fmt"
	"io"
	"sync"

	"github.com/golang/glog"

	"synccore/pkg/codec"
	"synccore/pkg/coord"
	"synccore/pkg/errors"
	"synccore/pkg/logging/otel"
	"synccore/pkg/msg"
	"synccore/pkg/proto"
)

// Item is one received frame awaiting decoding.
type Item struct {
	CorrelationID int32
	Type          proto.MessageType
	Payload       []byte
	Compressed    bool
}

func ItemFromFrame(f proto.Frame) Item {
	return Item{
		CorrelationID: f.CorrelationID,
		Type:          f.Type,
		Payload:       f.Payload,
		Compressed:    f.Compressed,
	}
}

type Config struct {
	Compression    proto.Compression
	MaxPayloadSize int
}

func (c *Config) SetDefaultIfNotDefined() {
	if c.Compression == "" {
		c.Compression = proto.ZlibCompression
	}
	if c.MaxPayloadSize == 0 {
		c.MaxPayloadSize = proto.DefaultMaxPayloadSize
	}
}

type Pipeline struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []Item
	running  bool
	stopping bool
	wg       sync.WaitGroup

	coord  *coord.Coordinator
	router *Router
	cfg    Config
}

func New(c *coord.Coordinator, router *Router, cfg Config) *Pipeline {
	cfg.SetDefaultIfNotDefined()
	if router == nil {
		router = NewRouter()
	}
	p := &Pipeline{coord: c, router: router, cfg: cfg}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *Pipeline) Router() *Router {
	return p.router
}

func (p *Pipeline) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.stopping = false
	p.wg.Add(1)
	go p.run()
}

// Stop lets the worker finish the item at hand and waits for it to exit.
// Queued items stay queued until the next Start.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.stopping = true
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

// Submit queues an item and wakes the worker.
func (p *Pipeline) Submit(it Item) {
	p.mu.Lock()
	p.queue = append(p.queue, it)
	p.cond.Signal()
	p.mu.Unlock()
}

func (p *Pipeline) SubmitFrame(f proto.Frame) {
	p.Submit(ItemFromFrame(f))
}

// Feed splits a finite frame stream into the queue and returns the frames
// queued. Control frames are dropped. The returned error is the reason the
// stream terminated early.
func (p *Pipeline) Feed(r io.Reader) (fed []proto.Frame, err error) {
	s := proto.NewSplitterWithLimit(r, p.cfg.MaxPayloadSize)
	for s.Next() {
		f := s.Frame()
		if f.Type.IsControl() {
			continue
		}
		p.SubmitFrame(f)
		fed = append(fed, f)
	}
	if err = s.Err(); err != nil {
		glog.Warningf("frame stream terminated after %d frames: %s", len(fed), err)
		otel.RecordCount(otel.DecodeErr, []otel.Tags{{TagName: otel.Reason, TagValue: "frame"}})
	}
	return
}

// Len returns the number of queued items.
func (p *Pipeline) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func (p *Pipeline) run() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.stopping {
			p.cond.Wait()
		}
		if p.stopping {
			p.mu.Unlock()
			return
		}
		it := p.queue[0]
		p.queue[0] = Item{}
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.Process(it)
	}
}

// Process decodes one item synchronously on the calling goroutine.
func (p *Pipeline) Process(it Item) {
	switch {
	case it.Type.IsResponse():
		p.processResponse(it)
	case it.Type.IsPush():
		p.processPush(it)
	case it.Type.IsControl():
	default:
		glog.Warningf("drop unexpected %s frame id=%d", it.Type, it.CorrelationID)
	}
}

func (p *Pipeline) payload(it Item) ([]byte, error) {
	if !it.Compressed {
		return it.Payload, nil
	}
	b, err := proto.Decompress(it.Payload, p.cfg.Compression, p.cfg.MaxPayloadSize)
	if err != nil {
		return nil, errors.Wrap(errors.ErrFormat, fmt.Errorf("decompress: %w", err))
	}
	return b, nil
}

func (p *Pipeline) processResponse(it Item) {
	_, kind, ok := p.coord.Lookup(it.CorrelationID)
	if !ok {
		glog.Warningf("no pending request for %s id=%d, dropped", it.Type, it.CorrelationID)
		return
	}
	payload, err := p.payload(it)
	if err != nil {
		p.fail(it, err)
		return
	}

	var values []any
	if it.Type.IsEnveloped() {
		if values, err = codec.DecodeReplyBytes(payload); err != nil {
			p.fail(it, err)
			return
		}
	} else {
		values = []any{payload}
	}
	if glog.V(3) {
		glog.Infof("id=%d kind=%s values=%v", it.CorrelationID, kind, values)
	}

	result, err := msg.Decode(kind, values)
	if err != nil && !goerrors.Is(err, errors.ErrUnrouted) {
		p.fail(it, err)
		return
	}
	if err != nil {
		glog.Warningf("response id=%d has kind %s with no decoder", it.CorrelationID, kind)
	}
	p.coord.Resolve(it.CorrelationID, values, result, err)
}

func (p *Pipeline) fail(it Item, err error) {
	glog.Warningf("decode %s id=%d: %s", it.Type, it.CorrelationID, err)
	reason := "decode"
	var fault *codec.Fault
	if goerrors.As(err, &fault) {
		reason = "fault"
	}
	otel.RecordCount(otel.DecodeErr, []otel.Tags{{TagName: otel.Reason, TagValue: reason}})
	p.coord.Fail(it.CorrelationID, err)
}

// decodePushValues accepts either a reply envelope or a single bare value.
func decodePushValues(payload []byte) ([]any, error) {
	if len(payload) != 0 && (payload[0] == codec.TagReply || payload[0] == codec.TagFault) {
		return codec.DecodeReplyBytes(payload)
	}
	v, err := codec.NewDecoder(bytes.NewReader(payload)).Decode()
	if err != nil {
		return nil, err
	}
	return []any{v}, nil
}

func (p *Pipeline) processPush(it Item) {
	payload, err := p.payload(it)
	if err == nil {
		var values []any
		if values, err = decodePushValues(payload); err == nil {
			var ev *msg.PushEvent
			if ev, err = msg.DecodePush(values); err == nil {
				p.routePush(it, values, ev)
				return
			}
		}
	}
	glog.Warningf("drop %s frame: %s", it.Type, err)
	otel.RecordCount(otel.DecodeErr, []otel.Tags{{TagName: otel.Reason, TagValue: "push"}})
}

func (p *Pipeline) routePush(it Item, values []any, ev *msg.PushEvent) {
	tag := ev.Type
	if it.Type == proto.MsgPresenceResponse {
		tag = PresenceTag
	}
	consumer, ok := p.router.Lookup(tag)
	if !ok {
		glog.Warningf("no consumer for push type %q, dropped", tag)
		return
	}
	if glog.V(2) {
		glog.Infof("push type=%q -> %s", tag, consumer)
	}
	p.coord.Deliver(&coord.Response{
		ConsumerID: consumer,
		Kind:       msg.KindPush,
		Values:     values,
		Result:     ev,
	})
}
