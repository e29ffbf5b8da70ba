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
	"bufio"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/proxy"

	"synccore/pkg/coord"
	"synccore/pkg/errors"
	"synccore/pkg/logging/otel"
	"synccore/pkg/pipeline"
	"synccore/pkg/proto"
	"synccore/pkg/util"
)

// SocketTransport keeps one TCP connection open to the sync server. Each
// connection is served by a write loop (outbound frames, heartbeats and
// connection test replies) and a read loop (frames to the pipeline). When
// the connection drops, requests already written on it fail and the
// transport reconnects with exponential backoff; queued requests wait for
// the next connection.
type SocketTransport struct {
	name     string
	config   SocketConfig
	coord    *coord.Coordinator
	pipeline *pipeline.Pipeline
	events   Events
	dialer   proxy.Dialer

	notifyCh  chan struct{}
	doneCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewSocketTransport(config SocketConfig, c *coord.Coordinator, p *pipeline.Pipeline, ev Events) *SocketTransport {
	config.SetDefaultIfNotDefined()
	var dialer proxy.Dialer = &net.Dialer{Timeout: config.ConnectTimeout.Duration}
	if config.UseProxy {
		dialer = proxy.FromEnvironmentUsing(dialer)
	}
	return &SocketTransport{
		name:     "socket-" + util.NewInstanceId(),
		config:   config,
		coord:    c,
		pipeline: p,
		events:   ev,
		dialer:   dialer,
		notifyCh: make(chan struct{}, 1),
		doneCh:   make(chan struct{}),
	}
}

func (t *SocketTransport) Name() string {
	return t.name
}

func (t *SocketTransport) Start() error {
	if err := t.config.Validate(); err != nil {
		return err
	}
	t.coord.SetRequestQueueListener(t.Notify)
	t.wg.Add(1)
	go t.run()
	return nil
}

func (t *SocketTransport) Stop() {
	t.closeOnce.Do(func() {
		t.coord.SetRequestQueueListener(nil)
		close(t.doneCh)
		t.wg.Wait()
		glog.V(2).Infof("%s stopped", t.name)
	})
}

func (t *SocketTransport) Notify() {
	select {
	case t.notifyCh <- struct{}{}:
	default:
	}
}

func (t *SocketTransport) isDone() bool {
	select {
	case <-t.doneCh:
		return true
	default:
		return false
	}
}

// run connects, serves the connection until it drops and reconnects. After
// MaxReconnectAttempts consecutive failed dials it reports the failure to
// the manager and exits.
func (t *SocketTransport) run() {
	defer t.wg.Done()

	base := time.Duration(t.config.ReconnectIntervalBase) * time.Millisecond
	max := time.Duration(t.config.ReconnectIntervalMax) * time.Millisecond
	timer := util.NewStoppedTimer()
	defer timer.Stop()
	timer.Reset(0)

	attempts := 0
	for {
		t.events.SetState(Connecting)
		select {
		case <-t.doneCh:
			return
		case <-timer.GetTimeoutCh():
			timer.Stop()
		}

		start := time.Now()
		c, err := t.dialer.Dial("tcp", t.config.Addr)
		if err != nil {
			attempts++
			otel.RecordCount(otel.Reconnect, []otel.Tags{{TagName: otel.Transport, TagValue: "socket"}})
			glog.Warningf("%s connect to %s failed (attempt %d): %s", t.name, t.config.Addr, attempts, err)
			if attempts >= t.config.MaxReconnectAttempts {
				if !t.isDone() {
					go t.events.OnUnrecoverable(t, fmt.Errorf("%d connect attempts to %s failed: %w", attempts, t.config.Addr, err))
				}
				return
			}
			timer.Reset(util.Backoff(attempts, base, max))
			continue
		}
		attempts = 0
		glog.Infof("%s connected laddr=%s raddr=%s in %s", t.name, c.LocalAddr(), c.RemoteAddr(), time.Since(start))
		t.events.SetState(Connected)

		err = t.serve(c)
		if n := t.coord.FailActive(errors.Wrap(errors.ErrTransport, err)); n != 0 {
			glog.Warningf("%s failed %d in flight requests", t.name, n)
		}
		if t.isDone() {
			return
		}
		glog.Warningf("%s connection lost: %s", t.name, err)
		t.events.SetState(Disconnected)
		timer.Reset(base)
	}
}

// serve runs the write loop on the calling goroutine and the read loop on
// a second one until either fails or the transport stops.
func (t *SocketTransport) serve(c net.Conn) error {
	errCh := make(chan error, 1)
	ctrlCh := make(chan proto.Frame, 16)
	connDone := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t.readLoop(c, ctrlCh, connDone, errCh)
	}()
	err := t.writeLoop(c, ctrlCh, errCh)
	close(connDone)
	c.Close()
	wg.Wait()
	return err
}

func (t *SocketTransport) writeLoop(c net.Conn, ctrlCh <-chan proto.Frame, errCh <-chan error) error {
	ticker := time.NewTicker(t.config.HeartbeatInterval.Duration)
	defer ticker.Stop()

	w := bufio.NewWriterSize(c, t.config.IOBufSize)
	flush := func() error {
		if w.Buffered() == 0 {
			return nil
		}
		c.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout.Duration))
		otel.RecordCount(otel.FrameOut, []otel.Tags{{TagName: otel.Transport, TagValue: "socket"}})
		return w.Flush()
	}
	sendQueued := func() error {
		for {
			reqs := t.coord.TakeOutbound(t.config.MaxBatch)
			if len(reqs) == 0 {
				return flush()
			}
			for _, r := range reqs {
				if glog.V(3) {
					glog.Infof("%s -> %s id=%d len=%d", t.name, r.Type, r.CorrelationID, len(r.Payload))
				}
				if _, err := proto.WriteFrame(w, r.Type, r.CorrelationID, r.Payload); err != nil {
					return err
				}
			}
		}
	}

	if err := sendQueued(); err != nil {
		return err
	}
	for {
		var err error
		select {
		case <-t.doneCh:
			return io.EOF
		case err = <-errCh:
			return err
		case <-t.notifyCh:
			err = sendQueued()
		case <-ticker.C:
			if _, err = proto.WriteFrame(w, proto.MsgHeartbeat, 0, nil); err == nil {
				err = flush()
			}
		case f := <-ctrlCh:
			if _, err = proto.WriteFrame(w, proto.MsgConnectionTest, f.CorrelationID, nil); err == nil {
				err = flush()
			}
		}
		if err != nil {
			return err
		}
	}
}

func (t *SocketTransport) readLoop(c net.Conn, ctrlCh chan<- proto.Frame, connDone <-chan struct{}, errCh chan<- error) {
	r := bufio.NewReaderSize(&deadlineReader{c: c, timeout: t.config.ReadTimeout.Duration}, t.config.IOBufSize)
	s := proto.NewSplitter(r)
	for s.Next() {
		f := s.Frame()
		otel.RecordCount(otel.FrameIn, []otel.Tags{{TagName: otel.Transport, TagValue: "socket"}, {TagName: otel.Type, TagValue: f.Type.String()}})
		if glog.V(3) {
			glog.Infof("%s <- %s", t.name, f.String())
		}
		switch f.Type {
		case proto.MsgHeartbeat:
		case proto.MsgConnectionTest:
			select {
			case ctrlCh <- f:
			case <-connDone:
				return
			}
		default:
			t.pipeline.SubmitFrame(f)
		}
	}
	err := s.Err()
	if err == nil {
		err = io.EOF
	}
	errCh <- err
}

// deadlineReader extends the read deadline before every read, so a
// connection silent for longer than timeout is treated as lost.
type deadlineReader struct {
	c       net.Conn
	timeout time.Duration
}

func (d *deadlineReader) Read(p []byte) (int, error) {
	d.c.SetReadDeadline(time.Now().Add(d.timeout))
	return d.c.Read(p)
}
