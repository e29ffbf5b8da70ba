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
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"synccore/pkg/conn"
	"synccore/pkg/coord"
	"synccore/pkg/engine"
	"synccore/pkg/logging/otel"
	"synccore/pkg/msg"
	"synccore/pkg/pipeline"
)

type clientImplT struct {
	config   Config
	coord    *coord.Coordinator
	pipeline *pipeline.Pipeline
	manager  *conn.Manager

	mu      sync.Mutex
	started bool
}

// New builds a client from conf. Nothing runs until Start.
func New(conf Config, opts ...IOption) (IClient, error) {
	conf.SetDefaultIfNotDefined()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	glog.Infof("client cfg=%+v", conf)
	data := newOptionData(opts...)

	if err := otel.Initialize(&conf.Otel); err != nil {
		glog.Warningf("metrics disabled: %s", err)
	}

	c := coord.NewCoordinator(coord.Config{
		MaxPending: conf.Request.MaxPending,
		Now:        data.now,
	})
	p := pipeline.New(c, nil, conf.Decode)
	for tag, consumer := range data.push {
		p.Router().Register(tag, consumer)
	}
	var m *conn.Manager
	if data.factory != nil {
		m = conn.NewManagerWithFactory(c, data.factory)
	} else {
		m = conn.NewManager(c, p, conf.Auth, conf.Transport)
	}
	for _, f := range data.observers {
		m.AddObserver(f)
	}
	return &clientImplT{
		config:   conf,
		coord:    c,
		pipeline: p,
		manager:  m,
	}, nil
}

func (c *clientImplT) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}
	c.coord.Start()
	c.pipeline.Start()
	if err := c.manager.Start(); err != nil {
		c.pipeline.Stop()
		c.coord.Stop()
		return err
	}
	c.started = true
	return nil
}

// Stop tears the connection down, cancels every pending request and stops
// the workers.
func (c *clientImplT) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return
	}
	c.started = false
	c.manager.Stop()
	c.pipeline.Stop()
	c.coord.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := otel.Shutdown(ctx); err != nil {
		glog.Warningf("metrics shutdown: %s", err)
	}
}

func (c *clientImplT) Connect() error {
	return c.manager.Connect()
}

func (c *clientImplT) SetLoginState(loggedIn bool) error {
	return c.manager.SetLoginState(loggedIn)
}

func (c *clientImplT) Logout() {
	c.manager.Logout()
}

func (c *clientImplT) GetState() conn.State {
	return c.manager.GetState()
}

func (c *clientImplT) GetAuthState() conn.AuthState {
	return c.manager.GetAuthState()
}

func (c *clientImplT) NewEngine(consumer msg.ConsumerID) *engine.Engine {
	return engine.New(consumer, c.coord, engine.Config{DefaultTimeout: c.config.Request.DefaultTimeout})
}

func (c *clientImplT) RegisterPush(tag string, consumer msg.ConsumerID) {
	c.pipeline.Router().Register(tag, consumer)
}

func (c *clientImplT) GetStats() coord.StatsData {
	return c.coord.GetStats().GetStats()
}
