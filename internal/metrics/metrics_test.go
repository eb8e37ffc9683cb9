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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/altoclef/cambridge/pkg/core"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Sum[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Sum[int64])
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				out[m.Name] = sum
			}
		}
	}
	return out
}

func total(sum metricdata.Sum[int64]) int64 {
	var n int64
	for _, dp := range sum.DataPoints {
		n += dp.Value
	}
	return n
}

func TestRecorderCounters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	rec, err := New(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)

	ctx := context.Background()
	rec.Emitted(ctx, core.EventHazard)
	rec.Emitted(ctx, core.EventHazard)
	rec.Emitted(ctx, core.EventHeartbeat)
	rec.Deferred(ctx)
	rec.Muted(ctx, core.EventMiniHUD)
	rec.BatchSent(ctx)
	rec.BatchDropped(ctx, DropUnhealthy)
	rec.SendFailed(ctx)

	sums := collect(t, reader)
	assert.Equal(t, int64(3), total(sums["cambridge.events.emitted"]))
	assert.Equal(t, int64(1), total(sums["cambridge.events.deferred"]))
	assert.Equal(t, int64(1), total(sums["cambridge.events.muted"]))
	assert.Equal(t, int64(1), total(sums["cambridge.batches.sent"]))
	assert.Equal(t, int64(1), total(sums["cambridge.send.failures"]))

	dropped := sums["cambridge.batches.dropped"]
	require.Len(t, dropped.DataPoints, 1)
	reason, ok := dropped.DataPoints[0].Attributes.Value(attribute.Key("reason"))
	require.True(t, ok)
	assert.Equal(t, "unhealthy", reason.AsString())

	byType := map[string]int64{}
	for _, dp := range sums["cambridge.events.emitted"].DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("type"))
		byType[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"HAZARD": 2, "HEARTBEAT": 1}, byType)
}

func TestNoopRecorder(t *testing.T) {
	rec := Noop()
	rec.Emitted(context.Background(), core.EventStall)
	rec.BatchDropped(context.Background(), DropQueueFull)
}

func TestNewProviderWithoutEndpoint(t *testing.T) {
	mp, shutdown, err := NewProvider(context.Background(), ExporterConfig{})
	require.NoError(t, err)
	require.NotNil(t, mp)
	assert.NoError(t, shutdown(context.Background()))
}
