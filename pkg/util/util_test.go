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
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	max := time.Second
	assert.Equal(t, base, Backoff(0, base, max))
	assert.Equal(t, base, Backoff(1, base, max))
	assert.Equal(t, 200*time.Millisecond, Backoff(2, base, max))
	assert.Equal(t, 800*time.Millisecond, Backoff(4, base, max))
	assert.Equal(t, max, Backoff(5, base, max))
	assert.Equal(t, max, Backoff(200, base, max))
}

func TestDurationText(t *testing.T) {
	var cfg struct {
		Timeout Duration
	}
	_, err := toml.Decode(`Timeout = "1m30s"`, &cfg)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Timeout.Duration)

	text, err := cfg.Timeout.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	_, err = toml.Decode(`Timeout = "soon"`, &cfg)
	assert.Error(t, err)
}

func TestTimerWrapper(t *testing.T) {
	tw := NewStoppedTimer()
	assert.True(t, tw.IsStopped())
	assert.Nil(t, tw.GetTimeoutCh())

	tw.Reset(time.Millisecond)
	select {
	case <-tw.GetTimeoutCh():
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	tw.Reset(time.Hour)
	tw.Stop()
	assert.Nil(t, tw.GetTimeoutCh())

	now := time.Now()
	tw.ResetAt(now.Add(-time.Second), now)
	select {
	case <-tw.GetTimeoutCh():
	case <-time.After(time.Second):
		t.Fatal("past deadline did not fire")
	}
}

func TestInstanceId(t *testing.T) {
	a, b := NewInstanceId(), NewInstanceId()
	assert.Len(t, a, 8)
	assert.NotEqual(t, a, b)
}
