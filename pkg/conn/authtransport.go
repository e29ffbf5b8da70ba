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

package conn

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/golang/glog"

	"synccore/pkg/coord"
	"synccore/pkg/errors"
	"synccore/pkg/logging/otel"
	"synccore/pkg/pipeline"
	"synccore/pkg/proto"
	"synccore/pkg/util"
)

const kContentType = "application/octet-stream"

// AuthTransport sends queued requests as HTTP POSTs, one batch of frames
// per request body, and feeds the frames of each response body to the
// decode pipeline. It holds no connection between batches.
type AuthTransport struct {
	name     string
	config   AuthConfig
	client   *http.Client
	coord    *coord.Coordinator
	pipeline *pipeline.Pipeline
	events   Events

	notifyCh  chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewAuthTransport(config AuthConfig, c *coord.Coordinator, p *pipeline.Pipeline, ev Events) *AuthTransport {
	config.SetDefaultIfNotDefined()
	return &AuthTransport{
		name:     "auth-" + util.NewInstanceId(),
		config:   config,
		client:   &http.Client{Timeout: config.RequestTimeout.Duration},
		coord:    c,
		pipeline: p,
		events:   ev,
		notifyCh: make(chan struct{}, 1),
	}
}

func (t *AuthTransport) Name() string {
	return t.name
}

// Start reports Connecting; the state becomes Connected once a post gets
// an answer from the server.
func (t *AuthTransport) Start() error {
	if err := t.config.Validate(); err != nil {
		return err
	}
	t.ctx, t.cancel = context.WithCancel(context.Background())
	t.coord.SetRequestQueueListener(t.Notify)
	t.events.SetState(Connecting)
	t.wg.Add(1)
	go t.run()
	t.Notify()
	return nil
}

func (t *AuthTransport) Stop() {
	t.closeOnce.Do(func() {
		t.coord.SetRequestQueueListener(nil)
		if t.cancel != nil {
			t.cancel()
		}
		t.wg.Wait()
		glog.V(2).Infof("%s stopped", t.name)
	})
}

func (t *AuthTransport) Notify() {
	select {
	case t.notifyCh <- struct{}{}:
	default:
	}
}

// run posts queued requests until the transport stops, or until
// MaxFailedPosts consecutive posts could not reach the server, in which case
// it reports the failure to the manager and exits.
func (t *AuthTransport) run() {
	defer t.wg.Done()
	failures := 0
	for {
		select {
		case <-t.ctx.Done():
			return
		case <-t.notifyCh:
			for t.ctx.Err() == nil {
				reqs := t.coord.TakeOutbound(t.config.MaxBatch)
				if len(reqs) == 0 {
					break
				}
				if failures > 0 {
					t.events.SetState(Connecting)
				}
				err := t.post(reqs)
				if err == nil {
					failures = 0
					t.events.SetState(Connected)
					continue
				}
				if t.ctx.Err() != nil {
					return
				}
				failures++
				otel.RecordCount(otel.Reconnect, []otel.Tags{{TagName: otel.Transport, TagValue: "auth"}})
				t.events.SetState(Disconnected)
				if failures >= t.config.MaxFailedPosts {
					go t.events.OnUnrecoverable(t, fmt.Errorf("%d posts to %s failed: %w", failures, t.config.URL, err))
					return
				}
			}
		}
	}
}

// post sends one batch. It returns an error only when the server could not
// be reached; every request of the batch is then failed. Requests the server
// answered with an error status, or left unanswered in a short body, are
// failed too, but the server counts as reachable.
func (t *AuthTransport) post(reqs []*coord.PendingRequest) error {
	var body bytes.Buffer
	for _, r := range reqs {
		body.Write(r.Frame())
	}
	otel.RecordCount(otel.FrameOut, []otel.Tags{{TagName: otel.Transport, TagValue: "auth"}})

	req, err := http.NewRequestWithContext(t.ctx, http.MethodPost, t.config.URL, &body)
	if err != nil {
		t.failBatch(reqs, nil, err)
		return nil
	}
	req.Header.Set("Content-Type", kContentType)
	if t.config.UserAgent != "" {
		req.Header.Set("User-Agent", t.config.UserAgent)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		glog.Warningf("%s post %d requests: %s", t.name, len(reqs), err)
		t.failBatch(reqs, nil, err)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		err = fmt.Errorf("http status %d", resp.StatusCode)
		glog.Warningf("%s post %d requests: %s", t.name, len(reqs), err)
		t.failBatch(reqs, nil, err)
		return nil
	}

	fed, err := t.pipeline.Feed(resp.Body)
	if glog.V(2) {
		glog.Infof("%s received %d frames", t.name, len(fed))
	}
	if len(fed) > 0 {
		otel.RecordCount(otel.FrameIn, []otel.Tags{{TagName: otel.Transport, TagValue: "auth"}})
	}
	if err != nil {
		glog.Warningf("%s response body: %s", t.name, err)
		t.failBatch(reqs, fed, err)
	}
	return nil
}

// failBatch fails every request of reqs with no frame in answered.
func (t *AuthTransport) failBatch(reqs []*coord.PendingRequest, answered []proto.Frame, err error) {
	ids := make(map[int32]bool, len(answered))
	for _, f := range answered {
		if f.Type.IsResponse() {
			ids[f.CorrelationID] = true
		}
	}
	for _, r := range reqs {
		if !ids[r.CorrelationID] {
			t.coord.Fail(r.CorrelationID, errors.Wrap(errors.ErrTransport, err))
		}
	}
}
