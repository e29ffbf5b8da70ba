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

/*
Package util implements some utility functions.
*/
package util

import (
	"time"

	uuid "github.com/satori/go.uuid"
)

// Duration is a time.Duration that reads and writes as text ("30s") in
// TOML files.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() (text []byte, err error) {
	text = []byte(d.Duration.String())
	return
}

// NewInstanceId returns a short random id naming a transport instance in logs.
func NewInstanceId() string {
	id := uuid.NewV4()
	return id.String()[:8]
}

// Backoff returns the wait before reconnect attempt n (starting at 1): base
// doubled per attempt, capped at max.
func Backoff(n int, base time.Duration, max time.Duration) time.Duration {
	if n <= 1 {
		return base
	}
	d := base
	for i := 1; i < n; i++ {
		d *= 2
		if d >= max || d <= 0 {
			return max
		}
	}
	return d
}

// Millis converts a timeout given in milliseconds. Negative values mean no
// timeout and are returned unchanged as a negative duration.
func Millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
