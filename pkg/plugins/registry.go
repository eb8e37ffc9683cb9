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
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/altoclef/cambridge/pkg/config"
	"github.com/altoclef/cambridge/pkg/core"
	"github.com/altoclef/cambridge/pkg/plugins/composite"
	"github.com/altoclef/cambridge/pkg/plugins/file"
	"github.com/altoclef/cambridge/pkg/plugins/udp"
)

// Builder constructs a sink from its resolved config.
type Builder func(ctx context.Context, spec core.SinkSpec, logger *slog.Logger) (core.Transport, error)

// Registry maps sink kinds to builders and tracks the health of the sinks it
// built last.
type Registry struct {
	instanceID string
	builders   map[string]Builder
	built      map[string]core.Transport
	logger     *slog.Logger
	mu         sync.RWMutex
}

func NewRegistry(instanceID string, logger *slog.Logger) *Registry {
	return &Registry{
		instanceID: instanceID,
		builders:   make(map[string]Builder),
		built:      make(map[string]core.Transport),
		logger:     logger,
	}
}

func (r *Registry) Register(kind string, b Builder) {
	kind = strings.ToLower(kind)
	r.mu.Lock()
	r.builders[kind] = b
	r.mu.Unlock()
	r.logger.Debug("registered sink kind", "type", kind)
}

func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.builders))
	for k := range r.builders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Build constructs one named sink of the given kind.
func (r *Registry) Build(ctx context.Context, kind, name string, cfg map[string]string) (core.Transport, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	r.mu.RLock()
	b, ok := r.builders[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownTransport, kind)
	}
	if name == "" {
		name = kind
	}
	spec := core.SinkSpec{
		Name:     name,
		Kind:     kind,
		Config:   cfg,
		ClientID: core.ClientID(r.instanceID, name),
	}
	t, err := b(ctx, spec, r.logger)
	if err != nil {
		r.logger.Error("sink build failed", "name", name, "type", kind, "error", err)
		return nil, err
	}
	r.logger.Info("registered sink", "name", t.Name(), "type", t.Type())
	return t, nil
}

// BuildPipeline builds the primary transport, its UDP mirrors and every
// configured sink. A single transport is returned as is; more than one is
// wrapped in a composite. On any failure the transports built so far are
// closed and the error wraps core.ErrSetup.
func (r *Registry) BuildPipeline(ctx context.Context, cfg config.CambridgeConfig) (core.Transport, error) {
	var built []core.Transport
	fail := func(err error) (core.Transport, error) {
		for _, t := range built {
			t.Close()
		}
		if !errors.Is(err, core.ErrSetup) {
			err = fmt.Errorf("%w: %w", core.ErrSetup, err)
		}
		return nil, err
	}

	kind := strings.ToLower(strings.TrimSpace(cfg.Transport))
	switch kind {
	case "file":
		t, err := file.New("file", cfg.File.Path, r.logger)
		if err != nil {
			return fail(err)
		}
		built = append(built, t)
	case "none":
		// sinks only
	default:
		if kind != "udp" && kind != "" {
			r.logger.Warn("unknown transport kind, falling back to udp", "transport", kind)
		}
		for i, port := range udpPorts(cfg.UDP) {
			name := "udp"
			if i > 0 {
				name = fmt.Sprintf("udp-mirror-%d", port)
			}
			t, err := udp.New(name, cfg.UDP.Host, port, r.logger)
			if err != nil {
				return fail(err)
			}
			built = append(built, t)
		}
	}

	for _, sc := range cfg.Sinks {
		t, err := r.Build(ctx, sc.Type, sc.Name, sc.Config)
		if err != nil {
			return fail(err)
		}
		built = append(built, t)
	}

	r.mu.Lock()
	r.built = make(map[string]core.Transport, len(built))
	for _, t := range built {
		r.built[t.Name()] = t
	}
	r.mu.Unlock()

	switch len(built) {
	case 0:
		return fail(core.ErrNoTransport)
	case 1:
		return built[0], nil
	}
	return composite.New("composite", built, r.logger), nil
}

// Status maps every sink of the last pipeline build to its health.
func (r *Registry) Status() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	status := make(map[string]bool, len(r.built))
	for name, t := range r.built {
		status[name] = t.Healthy()
	}
	return status
}

// udpPorts returns the primary port followed by the distinct positive mirror
// ports.
func udpPorts(cfg config.UDPConfig) []int {
	ports := []int{cfg.Port}
	seen := map[int]bool{cfg.Port: true}
	for _, p := range cfg.MirrorPorts {
		if p <= 0 || seen[p] {
			continue
		}
		seen[p] = true
		ports = append(ports, p)
	}
	return ports
}
