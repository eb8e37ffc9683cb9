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

package plugins

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altoclef/cambridge/pkg/config"
	"github.com/altoclef/cambridge/pkg/core"
	"github.com/altoclef/cambridge/pkg/plugins/composite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type stubSink struct {
	name    string
	healthy bool
	closed  bool
}

func (s *stubSink) Name() string                                    { return s.name }
func (s *stubSink) Type() string                                    { return "stub" }
func (s *stubSink) SendBatch(ctx context.Context, l []string) error { return nil }
func (s *stubSink) Healthy() bool                                   { return s.healthy }
func (s *stubSink) Close() error                                    { s.closed = true; return nil }

func freePort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn.LocalAddr().(*net.UDPAddr).Port
}

func TestBuildUnknownKind(t *testing.T) {
	r := NewRegistry("instance", testLogger())
	_, err := r.Build(context.Background(), "carrier-pigeon", "coo", nil)
	assert.ErrorIs(t, err, core.ErrUnknownTransport)
}

func TestBuildPassesClientID(t *testing.T) {
	r := NewRegistry("instance", testLogger())
	var got core.SinkSpec
	r.Register("stub", func(ctx context.Context, spec core.SinkSpec, logger *slog.Logger) (core.Transport, error) {
		got = spec
		return &stubSink{name: spec.Name, healthy: true}, nil
	})

	_, err := r.Build(context.Background(), "STUB", "overlay", map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, "overlay", got.Name)
	assert.Equal(t, "stub", got.Kind)
	assert.Equal(t, "v", got.Config["k"])
	assert.Equal(t, core.ClientID("instance", "overlay"), got.ClientID)
	assert.Equal(t, []string{"stub"}, r.Kinds())
}

func TestPipelineSingleUDP(t *testing.T) {
	r := NewRegistry("instance", testLogger())
	cfg := config.CambridgeConfig{Transport: "udp", UDP: config.UDPConfig{Host: "127.0.0.1", Port: freePort(t)}}

	tr, err := r.BuildPipeline(context.Background(), cfg)
	require.NoError(t, err)
	defer tr.Close()
	assert.Equal(t, "udp", tr.Type())
	assert.Equal(t, map[string]bool{"udp": true}, r.Status())
}

func TestPipelineUnknownKindFallsBackToUDP(t *testing.T) {
	r := NewRegistry("instance", testLogger())
	cfg := config.CambridgeConfig{Transport: "smoke-signals", UDP: config.UDPConfig{Host: "127.0.0.1", Port: freePort(t)}}

	tr, err := r.BuildPipeline(context.Background(), cfg)
	require.NoError(t, err)
	defer tr.Close()
	assert.Equal(t, "udp", tr.Type())
}

func TestPipelineMirrorsBecomeComposite(t *testing.T) {
	r := NewRegistry("instance", testLogger())
	primary, mirror := freePort(t), freePort(t)
	cfg := config.CambridgeConfig{Transport: "udp", UDP: config.UDPConfig{
		Host:        "127.0.0.1",
		Port:        primary,
		MirrorPorts: []int{mirror, mirror, 0, -4, primary},
	}}

	tr, err := r.BuildPipeline(context.Background(), cfg)
	require.NoError(t, err)
	defer tr.Close()

	c, ok := tr.(*composite.Transport)
	require.True(t, ok)
	assert.Len(t, c.Delegates(), 2)
	assert.Len(t, r.Status(), 2)
}

func TestPipelineFileWithSink(t *testing.T) {
	r := NewRegistry("instance", testLogger())
	sink := &stubSink{name: "overlay", healthy: true}
	r.Register("stub", func(ctx context.Context, spec core.SinkSpec, logger *slog.Logger) (core.Transport, error) {
		return sink, nil
	})
	cfg := config.CambridgeConfig{
		Transport: "file",
		File:      config.FileConfig{Path: filepath.Join(t.TempDir(), "cam.jsonl")},
		Sinks:     []config.SinkConfig{{Name: "overlay", Type: "stub"}},
	}

	tr, err := r.BuildPipeline(context.Background(), cfg)
	require.NoError(t, err)
	defer tr.Close()
	assert.Equal(t, "composite", tr.Type())
	assert.Equal(t, map[string]bool{"file": true, "overlay": true}, r.Status())
}

func TestPipelineNoneUsesSinksOnly(t *testing.T) {
	r := NewRegistry("instance", testLogger())
	sink := &stubSink{name: "overlay", healthy: true}
	r.Register("stub", func(ctx context.Context, spec core.SinkSpec, logger *slog.Logger) (core.Transport, error) {
		return sink, nil
	})
	cfg := config.CambridgeConfig{
		Transport: "none",
		UDP:       config.UDPConfig{Host: "127.0.0.1", Port: freePort(t)},
		Sinks:     []config.SinkConfig{{Name: "overlay", Type: "stub"}},
	}

	tr, err := r.BuildPipeline(context.Background(), cfg)
	require.NoError(t, err)
	defer tr.Close()
	assert.Equal(t, sink, tr)
	assert.Equal(t, map[string]bool{"overlay": true}, r.Status())
}

func TestPipelineFailureClosesBuilt(t *testing.T) {
	r := NewRegistry("instance", testLogger())
	first := &stubSink{name: "first", healthy: true}
	r.Register("stub", func(ctx context.Context, spec core.SinkSpec, logger *slog.Logger) (core.Transport, error) {
		return first, nil
	})
	r.Register("broken", func(ctx context.Context, spec core.SinkSpec, logger *slog.Logger) (core.Transport, error) {
		return nil, errors.New("no route to broker")
	})
	cfg := config.CambridgeConfig{
		Transport: "none",
		Sinks: []config.SinkConfig{
			{Name: "first", Type: "stub"},
			{Name: "second", Type: "broken"},
		},
	}

	_, err := r.BuildPipeline(context.Background(), cfg)
	assert.ErrorIs(t, err, core.ErrSetup)
	assert.True(t, first.closed)
}

func TestPipelineBadUDPPortIsSetupError(t *testing.T) {
	r := NewRegistry("instance", testLogger())
	cfg := config.CambridgeConfig{Transport: "udp", UDP: config.UDPConfig{Host: "127.0.0.1", Port: 70000}}
	_, err := r.BuildPipeline(context.Background(), cfg)
	assert.ErrorIs(t, err, core.ErrSetup)
}

func TestPipelineNothingConfigured(t *testing.T) {
	r := NewRegistry("instance", testLogger())
	_, err := r.BuildPipeline(context.Background(), config.CambridgeConfig{Transport: "none"})
	assert.ErrorIs(t, err, core.ErrSetup)
	assert.ErrorIs(t, err, core.ErrNoTransport)
}

func TestUDPPorts(t *testing.T) {
	got := udpPorts(config.UDPConfig{Port: 1000, MirrorPorts: []int{1001, 1000, 0, 1001, 1002}})
	assert.Equal(t, []int{1000, 1001, 1002}, got)
}
