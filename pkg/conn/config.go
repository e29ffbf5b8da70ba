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
	"fmt"
	"net/url"
	"time"

	"synccore/pkg/util"
	"synccore/pkg/version"
)

var (
	DefaultAuthConfig = AuthConfig{
		RequestTimeout: util.Duration{Duration: 30 * time.Second},
		MaxBatch:       1,
		MaxFailedPosts: 3,
	}

	DefaultSocketConfig = SocketConfig{
		ConnectTimeout:        util.Duration{Duration: 10 * time.Second},
		ReadTimeout:           util.Duration{Duration: 90 * time.Second},
		WriteTimeout:          util.Duration{Duration: 10 * time.Second},
		HeartbeatInterval:     util.Duration{Duration: 30 * time.Second},
		ReconnectIntervalBase: 500,   // 500ms
		ReconnectIntervalMax:  60000, // 60 seconds
		MaxReconnectAttempts:  10,
		MaxBatch:              64,
		IOBufSize:             64 * 1024,
	}
)

type (
	// AuthConfig drives the HTTP transport used before sign in completes.
	AuthConfig struct {
		URL            string
		RequestTimeout util.Duration
		MaxBatch       int
		// MaxFailedPosts is the number of consecutive posts that may fail
		// to reach the server before the transport gives up.
		MaxFailedPosts int
		UserAgent      string
	}

	// SocketConfig drives the persistent TCP transport.
	SocketConfig struct {
		Addr                  string
		ConnectTimeout        util.Duration
		ReadTimeout           util.Duration
		WriteTimeout          util.Duration
		HeartbeatInterval     util.Duration
		ReconnectIntervalBase int
		ReconnectIntervalMax  int
		MaxReconnectAttempts  int
		MaxBatch              int
		IOBufSize             int
		// UseProxy dials through the proxy named by ALL_PROXY / NO_PROXY.
		UseProxy bool
	}
)

func (conf *AuthConfig) SetDefaultIfNotDefined() (set bool) {
	if conf.RequestTimeout.Duration == 0 {
		set = true
		conf.RequestTimeout = DefaultAuthConfig.RequestTimeout
	}
	if conf.MaxBatch == 0 {
		set = true
		conf.MaxBatch = DefaultAuthConfig.MaxBatch
	}
	if conf.MaxFailedPosts == 0 {
		set = true
		conf.MaxFailedPosts = DefaultAuthConfig.MaxFailedPosts
	}
	if conf.UserAgent == "" {
		set = true
		conf.UserAgent = version.UserAgent()
	}
	return
}

func (conf *AuthConfig) Validate() error {
	if conf.URL == "" {
		return fmt.Errorf("Auth.URL not specified")
	}
	if _, err := url.ParseRequestURI(conf.URL); err != nil {
		return fmt.Errorf("Auth.URL: %w", err)
	}
	return nil
}

func (conf *SocketConfig) SetDefaultIfNotDefined() (set bool) {
	if conf.ConnectTimeout.Duration == 0 {
		set = true
		conf.ConnectTimeout = DefaultSocketConfig.ConnectTimeout
	}
	if conf.ReadTimeout.Duration == 0 {
		set = true
		conf.ReadTimeout = DefaultSocketConfig.ReadTimeout
	}
	if conf.WriteTimeout.Duration == 0 {
		set = true
		conf.WriteTimeout = DefaultSocketConfig.WriteTimeout
	}
	if conf.HeartbeatInterval.Duration == 0 {
		set = true
		conf.HeartbeatInterval = DefaultSocketConfig.HeartbeatInterval
	}
	// a read deadline must outlast at least two missed heartbeats
	if conf.ReadTimeout.Duration < 2*conf.HeartbeatInterval.Duration {
		set = true
		conf.ReadTimeout.Duration = 3 * conf.HeartbeatInterval.Duration
	}
	if conf.ReconnectIntervalBase == 0 {
		set = true
		conf.ReconnectIntervalBase = DefaultSocketConfig.ReconnectIntervalBase
	}
	if conf.ReconnectIntervalMax == 0 {
		set = true
		conf.ReconnectIntervalMax = DefaultSocketConfig.ReconnectIntervalMax
	}
	if conf.MaxReconnectAttempts == 0 {
		set = true
		conf.MaxReconnectAttempts = DefaultSocketConfig.MaxReconnectAttempts
	}
	if conf.MaxBatch == 0 {
		set = true
		conf.MaxBatch = DefaultSocketConfig.MaxBatch
	}
	if conf.IOBufSize == 0 {
		set = true
		conf.IOBufSize = DefaultSocketConfig.IOBufSize
	}
	return
}

func (conf *SocketConfig) Validate() error {
	if conf.Addr == "" {
		return fmt.Errorf("Socket.Addr not specified")
	}
	if conf.ReconnectIntervalMax < conf.ReconnectIntervalBase {
		return fmt.Errorf("Socket.ReconnectIntervalMax %d < ReconnectIntervalBase %d",
			conf.ReconnectIntervalMax, conf.ReconnectIntervalBase)
	}
	return nil
}
