// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied. See the License for the
// specific language governing permissions and limitations
// under the License.

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/altoclef/cambridge/pkg/core"
)

const meterName = "github.com/altoclef/cambridge"

type DropReason string

const (
	DropNoTransport DropReason = "no_transport"
	DropUnhealthy   DropReason = "unhealthy"
	DropQueueFull   DropReason = "queue_full"
)

// Recorder holds the pipeline counters. The zero value is not usable; build
// one with New or Noop.
type Recorder struct {
	emitted  metric.Int64Counter
	deferred metric.Int64Counter
	muted    metric.Int64Counter
	sent     metric.Int64Counter
	dropped  metric.Int64Counter
	failures metric.Int64Counter
}

func New(mp metric.MeterProvider) (*Recorder, error) {
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	meter := mp.Meter(meterName)

	r := &Recorder{}
	var err error
	if r.emitted, err = meter.Int64Counter("cambridge.events.emitted",
		metric.WithDescription("Events recorded and queued for sending"),
		metric.WithUnit("{event}")); err != nil {
		return nil, fmt.Errorf("create emitted counter: %w", err)
	}
	if r.deferred, err = meter.Int64Counter("cambridge.events.deferred",
		metric.WithDescription("Big events pushed back by the cooldown"),
		metric.WithUnit("{event}")); err != nil {
		return nil, fmt.Errorf("create deferred counter: %w", err)
	}
	if r.muted, err = meter.Int64Counter("cambridge.events.muted",
		metric.WithDescription("Events dropped by the emission filter"),
		metric.WithUnit("{event}")); err != nil {
		return nil, fmt.Errorf("create muted counter: %w", err)
	}
	if r.sent, err = meter.Int64Counter("cambridge.batches.sent",
		metric.WithDescription("Batches accepted by the transport"),
		metric.WithUnit("{batch}")); err != nil {
		return nil, fmt.Errorf("create sent counter: %w", err)
	}
	if r.dropped, err = meter.Int64Counter("cambridge.batches.dropped",
		metric.WithDescription("Batches discarded before reaching a transport"),
		metric.WithUnit("{batch}")); err != nil {
		return nil, fmt.Errorf("create dropped counter: %w", err)
	}
	if r.failures, err = meter.Int64Counter("cambridge.send.failures",
		metric.WithDescription("Batches the transport rejected"),
		metric.WithUnit("{batch}")); err != nil {
		return nil, fmt.Errorf("create failures counter: %w", err)
	}
	return r, nil
}

// Noop returns a recorder that discards everything.
func Noop() *Recorder {
	r, _ := New(noop.NewMeterProvider())
	return r
}

func (r *Recorder) Emitted(ctx context.Context, t core.EventType) {
	r.emitted.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(t))))
}

func (r *Recorder) Deferred(ctx context.Context) {
	r.deferred.Add(ctx, 1)
}

func (r *Recorder) Muted(ctx context.Context, t core.EventType) {
	r.muted.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(t))))
}

func (r *Recorder) BatchSent(ctx context.Context) {
	r.sent.Add(ctx, 1)
}

func (r *Recorder) BatchDropped(ctx context.Context, reason DropReason) {
	r.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(reason))))
}

func (r *Recorder) SendFailed(ctx context.Context) {
	r.failures.Add(ctx, 1)
}
