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
	"fmt"
	"io"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/golang/glog"

	"synccore/pkg/conn"
	otelcfg "synccore/pkg/logging/otel/config"
	"synccore/pkg/pipeline"
	"synccore/pkg/proto"
	"synccore/pkg/util"
)

type (
	RequestConfig struct {
		DefaultTimeout util.Duration
		MaxPending     int
	}

	Config struct {
		Auth      conn.AuthConfig
		Transport conn.SocketConfig
		Request   RequestConfig
		Decode    pipeline.Config
		Otel      otelcfg.Config
	}
)

var defaultConfig = Config{
	Auth:      conn.DefaultAuthConfig,
	Transport: conn.DefaultSocketConfig,
	Request: RequestConfig{
		DefaultTimeout: util.Duration{Duration: 60 * time.Second},
		MaxPending:     1024,
	},
	Decode: pipeline.Config{
		Compression:    proto.ZlibCompression,
		MaxPayloadSize: proto.DefaultMaxPayloadSize,
	},
}

func (c *Config) SetDefaultIfNotDefined() {
	c.Auth.SetDefaultIfNotDefined()
	c.Transport.SetDefaultIfNotDefined()
	if c.Request.DefaultTimeout.Duration == 0 {
		c.Request.DefaultTimeout = defaultConfig.Request.DefaultTimeout
	}
	if c.Request.MaxPending == 0 {
		c.Request.MaxPending = defaultConfig.Request.MaxPending
	}
	c.Decode.SetDefaultIfNotDefined()
	c.Otel.SetDefaultIfNotDefined()
}

func (c *Config) Validate() error {
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	if c.Request.MaxPending < 0 {
		return fmt.Errorf("Request.MaxPending %d is negative", c.Request.MaxPending)
	}
	if _, err := proto.ParseCompression(string(c.Decode.Compression)); err != nil {
		return fmt.Errorf("Decode.Compression: %w", err)
	}
	if c.Decode.MaxPayloadSize < 0 {
		return fmt.Errorf("Decode.MaxPayloadSize %d is negative", c.Decode.MaxPayloadSize)
	}
	return nil
}

// LoadConfig reads a TOML file, fills in defaults and validates the result.
func LoadConfig(path string) (*Config, error) {
	conf := &Config{}
	md, err := toml.DecodeFile(path, conf)
	if err != nil {
		return nil, err
	}
	for _, key := range md.Undecoded() {
		glog.Warningf("%s: unknown config key %s", path, key)
	}
	conf.SetDefaultIfNotDefined()
	if err = conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Dump writes the effective configuration as TOML.
func (c *Config) Dump(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
