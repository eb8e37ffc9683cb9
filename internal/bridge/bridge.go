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

// Package bridge turns per-tick agent observations into a rate-limited event
// stream and hands finished batches to the dispatcher.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/altoclef/cambridge/internal/detect"
	"github.com/altoclef/cambridge/internal/dispatch"
	"github.com/altoclef/cambridge/internal/history"
	"github.com/altoclef/cambridge/internal/logging"
	"github.com/altoclef/cambridge/internal/metrics"
	"github.com/altoclef/cambridge/internal/routing"
	"github.com/altoclef/cambridge/pkg/config"
	"github.com/altoclef/cambridge/pkg/core"
)

const (
	BigEventCooldown    = 6 * time.Second
	FullDisplayCooldown = 20 * time.Second
	HeartbeatInterval   = 10 * time.Second
	MiniHUDInterval     = 2500 * time.Millisecond
)

// PipelineBuilder builds the transport described by the cambridge config
// section.
type PipelineBuilder interface {
	BuildPipeline(ctx context.Context, cfg config.CambridgeConfig) (core.Transport, error)
}

// SinkReporter is implemented by builders that track the health of each sink
// in the last pipeline they built.
type SinkReporter interface {
	Status() map[string]bool
}

// Health is a point-in-time view for introspection.
type Health struct {
	Enabled   bool   `json:"enabled"`
	Transport string `json:"transport,omitempty"`
	Healthy   bool   `json:"healthy"`
	Deferred  int    `json:"deferred"`
	LastID    uint64 `json:"last_id"`

	Sinks map[string]bool `json:"sinks,omitempty"`
}

// Bridge is the policy engine. Tick must be driven from a single goroutine;
// Configure, Health and the bootstrap notifications may be called from any
// goroutine.
type Bridge struct {
	mu        sync.Mutex
	agent     core.Agent
	builder   PipelineBuilder
	dispatch  *dispatch.Dispatcher
	filter    *routing.Table
	ring      *history.Ring
	metrics   *metrics.Recorder
	logger    *slog.Logger
	setupLog  *logging.Throttle
	now       func() time.Time
	settle    detect.SettleFunc
	queueSize int

	enabled  bool
	shutdown bool
	plan     core.Plan
	nextID   atomic.Uint64

	pending  []core.Event
	deferred []core.Event
	lastBig  time.Time
	lastFull time.Time

	goal      core.Goal
	phase     core.Phase
	lastSnap  core.Snapshot
	hasSnap   bool
	lastArea  core.Area
	hasArea   bool
	hazards   map[detect.HazardKind]*detect.HazardState
	milestone *detect.Accumulator
	stall     *detect.StallDetector

	lastHeartbeat time.Time
	lastMiniHUD   time.Time
	lastPanel     time.Time
	activities    map[ActivityKind]*activityState
	stationary    stationaryTracker
	status        *statusTracker
}

type Option func(*Bridge)

func WithClock(now func() time.Time) Option {
	return func(b *Bridge) { b.now = now }
}

// WithSettle replaces the hazard settle window source.
func WithSettle(draw detect.SettleFunc) Option {
	return func(b *Bridge) { b.settle = draw }
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(b *Bridge) { b.metrics = r }
}

func WithQueueSize(n int) Option {
	return func(b *Bridge) { b.queueSize = n }
}

func New(agent core.Agent, builder PipelineBuilder, logger *slog.Logger, opts ...Option) *Bridge {
	b := &Bridge{
		agent:      agent,
		builder:    builder,
		filter:     routing.NewTable(),
		ring:       history.NewRing(history.DefaultCapacity),
		logger:     logger,
		now:        time.Now,
		queueSize:  dispatch.DefaultQueueSize,
		plan:       core.DefaultPlan(),
		milestone:  detect.NewAccumulator(),
		stall:      detect.NewStallDetector(),
		activities: make(map[ActivityKind]*activityState, len(activityKinds)),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.metrics == nil {
		b.metrics = metrics.Noop()
	}
	if b.settle == nil {
		b.settle = detect.UniformSettle(nil)
	}
	b.setupLog = logging.NewThrottle(logger, logging.DefaultThrottleWindow, b.now)
	b.dispatch = dispatch.New(logger.With("component", "dispatch"),
		dispatch.WithClock(b.now),
		dispatch.WithMetrics(b.metrics),
		dispatch.WithQueueSize(b.queueSize),
	)
	b.hazards = make(map[detect.HazardKind]*detect.HazardState, len(detect.Probes))
	for _, p := range detect.Probes {
		b.hazards[p.Kind] = detect.NewHazardState(b.settle)
	}
	for _, k := range activityKinds {
		b.activities[k] = &activityState{}
	}
	b.status = newStatusTracker(b.now())
	return b
}

// Start launches the dispatcher worker.
func (b *Bridge) Start(ctx context.Context) {
	b.dispatch.Start(ctx)
}

// Configure applies a config. A disabled config closes the active transport.
// A transport that cannot be built disables the bridge and the error wraps
// core.ErrSetup.
func (b *Bridge) Configure(ctx context.Context, cfg *config.Config) error {
	var closePrev func() error
	defer func() {
		if closePrev != nil {
			closePrev()
		}
	}()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.shutdown {
		return core.ErrClosed
	}

	if !cfg.Enabled() {
		closePrev = b.disableLocked()
		b.logger.Info("cambridge disabled by config")
		return nil
	}

	rules, unknown := cfg.FilterRules()
	for _, name := range unknown {
		b.logger.Warn("ignoring unknown event type in mute list", "type", name)
	}
	b.filter.ReplaceAll(rules)
	b.plan = cfg.Plan

	t, err := b.builder.BuildPipeline(ctx, cfg.Cambridge)
	if err != nil {
		closePrev = b.disableLocked()
		b.setupLog.Error("failed to initialize transport", "transport", cfg.Cambridge.Transport, "error", err)
		if !errors.Is(err, core.ErrSetup) {
			err = fmt.Errorf("%w: %w", core.ErrSetup, err)
		}
		return err
	}
	closePrev = b.dispatch.Install(t)
	b.enabled = true
	b.logger.Info("cambridge enabled",
		"transport", t.Type(),
		"mode", string(cfg.Mode()),
		"filtered", b.filter.Len(),
	)
	return nil
}

// disableLocked detaches the transport. The returned func closes it and must
// run after b.mu is released.
func (b *Bridge) disableLocked() func() error {
	b.enabled = false
	return b.dispatch.Install(nil)
}

// Shutdown disables the bridge, closes the transport and stops the worker
// without waiting for in-flight sends. It is safe to call more than once.
func (b *Bridge) Shutdown() {
	b.mu.Lock()
	if b.shutdown {
		b.mu.Unlock()
		return
	}
	b.shutdown = true
	closePrev := b.disableLocked()
	b.dispatch.Stop()
	b.mu.Unlock()

	closePrev()
	b.logger.Info("cambridge stopped", "last_id", b.nextID.Load())
}

func (b *Bridge) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// History returns the recently emitted events, oldest first.
func (b *Bridge) History() []core.Event {
	return b.ring.Events()
}

func (b *Bridge) Health() Health {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := Health{
		Enabled:  b.enabled,
		Deferred: len(b.deferred),
		LastID:   b.nextID.Load(),
	}
	if t := b.dispatch.Active(); t != nil {
		h.Transport = t.Type()
		h.Healthy = t.Healthy()
		if r, ok := b.builder.(SinkReporter); ok {
			h.Sinks = r.Status()
		}
	}
	return h
}

// Tick runs one observation cycle.
func (b *Bridge) Tick(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.enabled {
		return
	}
	now := b.now()
	b.dispatchDeferred(ctx, now)

	if !b.agent.InSession() {
		b.resetState(now)
		b.flush(ctx)
		return
	}

	snap := b.agent.CaptureSnapshot()
	area := b.agent.CurrentArea()

	b.updateDimension(ctx, area, now)
	b.updatePhase(ctx, snap, area, now)
	b.updateGoal(ctx, now)
	b.updateMilestones(ctx, snap, now)
	b.updateHazards(ctx, now)
	b.updateStall(ctx, snap, area, now)
	b.updateActivities(ctx, snap, now)
	b.updateStatus(ctx, snap, now)
	b.emitHeartbeat(ctx, snap, now)

	b.lastSnap = snap
	b.hasSnap = true
	b.flush(ctx)
}

// NotifyBootstrapStarted reports that the agent began preparing a fresh world.
func (b *Bridge) NotifyBootstrapStarted(ctx context.Context, reason string) {
	b.diagnostic(ctx, map[string]any{"stage": "bootstrap", "state": "start", "reason": reason})
}

// NotifyBootstrapFinished reports the end of world preparation.
func (b *Bridge) NotifyBootstrapFinished(ctx context.Context, note string) {
	b.diagnostic(ctx, map[string]any{"stage": "bootstrap", "state": "finish", "note": note})
}

func (b *Bridge) diagnostic(ctx context.Context, payload map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.enabled {
		return
	}
	now := b.now()
	b.emit(ctx, core.NewEvent(core.EventDiagnostic, now, b.phase, payload), now)
}

// emit applies the filter, the big-event cooldown and the full-display
// cooldown, in that order, then records the event.
func (b *Bridge) emit(ctx context.Context, e core.Event, now time.Time) {
	if !b.filter.Allowed(e.Type) {
		b.metrics.Muted(ctx, e.Type)
		return
	}
	if e.Type.Big() {
		if now.Sub(b.lastBig) < BigEventCooldown {
			b.deferred = append(b.deferred, e)
			b.metrics.Deferred(ctx)
			return
		}
		b.lastBig = now
	}
	if e.WantsFullDisplay() {
		if now.Sub(b.lastFull) < FullDisplayCooldown {
			e = e.WithoutSuggestion()
		} else {
			b.lastFull = now
		}
	}
	b.record(ctx, e)
}

func (b *Bridge) record(ctx context.Context, e core.Event) {
	e.ID = b.nextID.Add(1)
	b.ring.Append(e)
	b.pending = append(b.pending, e)
	b.metrics.Emitted(ctx, e.Type)
}

// dispatchDeferred re-offers at most one deferred event once the cooldown
// has lifted.
func (b *Bridge) dispatchDeferred(ctx context.Context, now time.Time) {
	if len(b.deferred) == 0 || now.Sub(b.lastBig) < BigEventCooldown {
		return
	}
	next := b.deferred[0]
	b.deferred[0] = core.Event{}
	b.deferred = b.deferred[1:]
	b.emit(ctx, next, now)
}

func (b *Bridge) flush(ctx context.Context) {
	if len(b.pending) == 0 {
		return
	}
	batch := b.pending
	b.pending = nil
	if err := b.dispatch.Submit(ctx, batch); err != nil {
		b.logger.Debug("batch dropped", "events", len(batch), "error", err)
	}
}

func (b *Bridge) resetState(now time.Time) {
	b.goal = nil
	b.phase = core.PhaseNone
	b.lastSnap = core.Snapshot{}
	b.hasSnap = false
	b.lastArea = ""
	b.hasArea = false
	b.stall.Reset()
	b.milestone.Reset()
	for _, h := range b.hazards {
		h.ResetImmediate()
	}
	for _, a := range b.activities {
		a.reset()
	}
	b.lastPanel = time.Time{}
	b.lastMiniHUD = time.Time{}
	b.stationary.reset()
	b.status.reset(now)
}
