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

// Package otel exports request and transport metrics through an OTLP/HTTP
// exporter. Until Initialize is called with an enabled configuration every
// Record function is a no-op.
package otel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric/global"
	"go.opentelemetry.io/otel/metric/instrument"
	"go.opentelemetry.io/otel/metric/instrument/syncint64"
	"go.opentelemetry.io/otel/metric/unit"
	"go.opentelemetry.io/otel/sdk/instrumentation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/aggregation"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	otelCfg "synccore/pkg/logging/otel/config"
)

type CMetric int

const (
	Submitted CMetric = CMetric(iota)
	Completed
	TimedOut
	Cancelled
	DecodeErr
	FrameIn
	FrameOut
	ConnState
	Reconnect
)

type Tags struct {
	TagName  string
	TagValue string
}

const (
	Kind      = string("kind")
	Transport = string("transport")
	Type      = string("type")
	State     = string("state")
	Reason    = string("reason")
)

// Request status
const (
	StatusSuccess string = "SUCCESS"
	StatusError   string = "ERROR"
	StatusTimeout string = "TIMEOUT"
	StatusCancel  string = "CANCELLED"
)

const METRIC_PREFIX = "synccore.client."
const MeterName = "synccore-client-meter"

type countMetric struct {
	metricName    string
	metricDesc    string
	counter       syncint64.Counter
	createCounter sync.Once
}

var countMetricMap = map[CMetric]*countMetric{
	Submitted: {metricName: "submitted", metricDesc: "Requests submitted to the coordinator"},
	Completed: {metricName: "completed", metricDesc: "Requests completed with a response"},
	TimedOut:  {metricName: "timedout", metricDesc: "Requests expired by the timeout watcher"},
	Cancelled: {metricName: "cancelled", metricDesc: "Requests cancelled by transport teardown"},
	DecodeErr: {metricName: "decode_error", metricDesc: "Frames dropped by the decode pipeline"},
	FrameIn:   {metricName: "frame_in", metricDesc: "Frames read from the network"},
	FrameOut:  {metricName: "frame_out", metricDesc: "Frames written to the network"},
	ConnState: {metricName: "conn_state", metricDesc: "Connection state changes"},
	Reconnect: {metricName: "reconnect", metricDesc: "Failed attempts to reach the server"},
}

var (
	mu            sync.Mutex
	meterProvider *metric.MeterProvider

	latencyHistogramOnce sync.Once
	latencyHistogram     syncint64.Histogram
)

func Initialize(c *otelCfg.Config) (err error) {
	if c == nil {
		return fmt.Errorf("nil otel config")
	}
	c.Validate()
	c.Dump()
	if c.Enabled {
		err = InitMetricProvider(c)
	}
	return
}

func InitMetricProvider(config *otelCfg.Config) error {
	mu.Lock()
	defer mu.Unlock()
	if meterProvider != nil {
		glog.Info("meter provider already initialized")
		return nil
	}

	latencyView := metric.NewView(
		metric.Instrument{
			Name:  "*latency*",
			Scope: instrumentation.Scope{Name: MeterName},
		},
		metric.Stream{
			Aggregation: aggregation.ExplicitBucketHistogram{
				Boundaries: config.LatencyBuckets,
			},
		})

	provider, err := NewMeterProvider(context.Background(), config, latencyView)
	if err != nil {
		glog.Errorf("failed to create meter provider: %s", err)
		return err
	}
	meterProvider = provider
	global.SetMeterProvider(provider)
	glog.Info("otel metrics initialized")
	return nil
}

func NewMeterProvider(ctx context.Context, cfg *otelCfg.Config, vis ...metric.View) (*metric.MeterProvider, error) {
	exp, err := NewHTTPExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	reader := metric.NewPeriodicReader(exp, metric.WithInterval(time.Duration(cfg.Resolution)*time.Second))
	return metric.NewMeterProvider(
		metric.WithResource(getResourceInfo(cfg.Poolname, cfg.Environment)),
		metric.WithReader(reader),
		metric.WithView(vis...),
	), nil
}

func NewHTTPExporter(ctx context.Context, cfg *otelCfg.Config) (metric.Exporter, error) {
	var deltaTemporalitySelector = func(metric.InstrumentKind) metricdata.Temporality { return metricdata.DeltaTemporality }
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		otlpmetrichttp.WithURLPath("/" + cfg.UrlPath),
		otlpmetrichttp.WithTimeout(7 * time.Second),
		otlpmetrichttp.WithCompression(otlpmetrichttp.NoCompression),
		otlpmetrichttp.WithTemporalitySelector(deltaTemporalitySelector),
		otlpmetrichttp.WithRetry(otlpmetrichttp.RetryConfig{
			Enabled:         true,
			InitialInterval: 1 * time.Second,
			MaxInterval:     10 * time.Second,
			MaxElapsedTime:  240 * time.Second,
		}),
	}
	if !cfg.UseTls {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return otlpmetrichttp.New(ctx, opts...)
}

// Shutdown flushes pending metrics and disables recording.
func Shutdown(ctx context.Context) (err error) {
	mu.Lock()
	defer mu.Unlock()
	if meterProvider != nil {
		err = meterProvider.Shutdown(ctx)
		meterProvider = nil
	}
	return
}

func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return meterProvider != nil
}

func GetHistogramForLatency() (syncint64.Histogram, error) {
	var err error
	latencyHistogramOnce.Do(func() {
		meter := global.Meter(MeterName)
		latencyHistogram, err = meter.SyncInt64().Histogram(
			PopulateMetricNamePrefix("request_latency"),
			instrument.WithDescription("Histogram for request round trip"),
			instrument.WithUnit(unit.Milliseconds),
		)
	})
	if latencyHistogram == nil && err == nil {
		err = errors.New("histogram not ready")
	}
	return latencyHistogram, err
}

func GetCounter(counterName CMetric) (syncint64.Counter, error) {
	counterMetric, ok := countMetricMap[counterName]
	if !ok {
		return nil, errors.New("no such counter exists")
	}
	counterMetric.createCounter.Do(func() {
		meter := global.Meter(MeterName)
		counterMetric.counter, _ = meter.SyncInt64().Counter(
			PopulateMetricNamePrefix(counterMetric.metricName),
			instrument.WithDescription(counterMetric.metricDesc),
		)
	})
	if counterMetric.counter == nil {
		return nil, errors.New("counter not ready")
	}
	return counterMetric.counter, nil
}

// RecordRequest records the latency of a request that reached a terminal
// state.
func RecordRequest(kind string, status string, latency time.Duration) {
	if !IsEnabled() {
		return
	}
	if h, err := GetHistogramForLatency(); err == nil {
		h.Record(context.Background(), latency.Milliseconds(),
			attribute.String(Kind, kind),
			attribute.String("status", status),
		)
	}
}

func RecordCount(counterName CMetric, tags []Tags) {
	if !IsEnabled() {
		return
	}
	counter, err := GetCounter(counterName)
	if err != nil {
		glog.Error(err)
		return
	}
	counter.Add(context.Background(), 1, convertTagsToOTELAttributes(tags)...)
}

func convertTagsToOTELAttributes(tags []Tags) (attr []attribute.KeyValue) {
	attr = make([]attribute.KeyValue, len(tags))
	for i := 0; i < len(tags); i++ {
		attr[i] = attribute.String(tags[i].TagName, tags[i].TagValue)
	}
	return
}

func PopulateMetricNamePrefix(metricName string) string {
	return METRIC_PREFIX + metricName
}

func getResourceInfo(appName string, env string) *resource.Resource {
	hostname, _ := os.Hostname()
	return resource.NewWithAttributes(semconv.SchemaURL,
		semconv.HostNameKey.String(hostname),
		semconv.ServiceNameKey.String(appName),
		attribute.String("environment", env),
		attribute.String("application", appName),
	)
}
