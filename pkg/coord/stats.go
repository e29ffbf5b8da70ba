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
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

type (
	// Stats keeps the round trip latency of completed requests and the
	// count of every terminal outcome.
	Stats struct {
		mtx       sync.Mutex
		hist      *hdrhistogram.Histogram
		total     time.Duration
		completed int64
		failed    int64
		timedOut  int64
		cancelled int64
	}

	StatsData struct {
		AvgLatency  time.Duration
		MinLatency  time.Duration
		MaxLatency  time.Duration
		P50Latency  time.Duration
		P95Latency  time.Duration
		P99Latency  time.Duration
		NumComplete int64
		NumFailed   int64
		NumTimedOut int64
		NumCancel   int64
	}
)

func newStats() *Stats {
	return &Stats{hist: hdrhistogram.New(1, int64(time.Hour/time.Millisecond), 3)}
}

func (s *Stats) put(state State, latency time.Duration, err error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	switch state {
	case StateCompleted:
		if err != nil {
			s.failed++
			return
		}
		s.completed++
		ms := latency.Milliseconds()
		if ms < 1 {
			ms = 1
		}
		s.hist.RecordValue(ms)
		s.total += latency
	case StateTimedOut:
		s.timedOut++
	case StateCancelled:
		s.cancelled++
	}
}

func (s *Stats) GetStats() (stat StatsData) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	ms := func(v int64) time.Duration { return time.Duration(v) * time.Millisecond }
	stat.NumComplete = s.completed
	stat.NumFailed = s.failed
	stat.NumTimedOut = s.timedOut
	stat.NumCancel = s.cancelled
	if s.completed != 0 {
		stat.AvgLatency = s.total / time.Duration(s.completed)
		stat.MinLatency = ms(s.hist.Min())
		stat.MaxLatency = ms(s.hist.Max())
		stat.P50Latency = ms(s.hist.ValueAtQuantile(50.))
		stat.P95Latency = ms(s.hist.ValueAtQuantile(95.))
		stat.P99Latency = ms(s.hist.ValueAtQuantile(99.))
	}
	return
}

func (s *Stats) Reset() {
	s.mtx.Lock()
	s.hist.Reset()
	s.total = 0
	s.completed, s.failed, s.timedOut, s.cancelled = 0, 0, 0, 0
	s.mtx.Unlock()
}

func (s *Stats) PrettyPrint(w io.Writer) {
	stat := s.GetStats()
	fmt.Fprintln(w,
		` average   | min        | max        |        50% |      95%   |      99%   |  completed |     failed |  timed out |  cancelled
------------+------------+------------+------------+------------+------------+------------+------------+------------+-----------`)
	fmt.Fprintf(w, "%11s %12s %12s %12s %12s %12s %12d %12d %12d %12d\n",
		stat.AvgLatency.Round(time.Millisecond), stat.MinLatency, stat.MaxLatency,
		stat.P50Latency, stat.P95Latency, stat.P99Latency,
		stat.NumComplete, stat.NumFailed, stat.NumTimedOut, stat.NumCancel)
}
