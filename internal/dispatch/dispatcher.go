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

package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/altoclef/cambridge/internal/logging"
	"github.com/altoclef/cambridge/internal/metrics"
	"github.com/altoclef/cambridge/pkg/core"
)

const DefaultQueueSize = 64

type job struct {
	target *guarded
	events []core.Event
}

// Dispatcher owns the active transport and a single worker that serializes
// and sends batches off the caller's goroutine.
type Dispatcher struct {
	mu     sync.Mutex
	active *guarded

	queue    chan job
	cancel   context.CancelFunc
	stopOnce sync.Once
	started  bool

	logger   *slog.Logger
	throttle *logging.Throttle
	batchLog *logging.BatchLogger
	metrics  *metrics.Recorder
	now      func() time.Time
}

type Option func(*Dispatcher)

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(d *Dispatcher) { d.metrics = r }
}

func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan job, n)
		}
	}
}

func New(logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:  make(chan job, DefaultQueueSize),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.metrics == nil {
		d.metrics = metrics.Noop()
	}
	d.throttle = logging.NewThrottle(logger, logging.DefaultThrottleWindow, d.now)
	d.batchLog = logging.NewBatchLogger(logger)
	return d
}

// Start launches the worker. Calling Start more than once has no effect.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	workerCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	go d.run(workerCtx)
}

// Stop signals the worker to exit without waiting for an in-flight send.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		cancel := d.cancel
		d.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	})
}

// Swap installs t as the active transport and closes the previous one. A nil
// t leaves the dispatcher without a transport.
func (d *Dispatcher) Swap(t core.Transport) error {
	return d.Install(t)()
}

// Install makes t the active transport and returns a func that closes the
// previous one. Closing waits for an in-flight send on that transport, so
// callers holding locks should release them first.
func (d *Dispatcher) Install(t core.Transport) func() error {
	var next *guarded
	if t != nil {
		next = &guarded{Transport: t}
	}

	d.mu.Lock()
	prev := d.active
	d.active = next
	d.mu.Unlock()

	return func() error {
		if prev == nil {
			return nil
		}
		if err := prev.close(); err != nil {
			d.logger.Warn("close transport failed", "transport", prev.Name(), "error", err)
			return err
		}
		return nil
	}
}

// Active returns the current transport, or nil.
func (d *Dispatcher) Active() core.Transport {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == nil {
		return nil
	}
	return d.active.Transport
}

// Submit hands a batch to the worker. It never blocks: batches are dropped
// when there is no healthy transport or the queue is full.
func (d *Dispatcher) Submit(ctx context.Context, events []core.Event) error {
	if len(events) == 0 {
		return nil
	}

	d.mu.Lock()
	target := d.active
	d.mu.Unlock()

	if target == nil {
		d.metrics.BatchDropped(ctx, metrics.DropNoTransport)
		return core.ErrNoTransport
	}
	if !target.Healthy() {
		d.metrics.BatchDropped(ctx, metrics.DropUnhealthy)
		return fmt.Errorf("%w: %s", core.ErrUnhealthy, target.Name())
	}

	batch := make([]core.Event, len(events))
	copy(batch, events)
	select {
	case d.queue <- job{target: target, events: batch}:
		return nil
	default:
		d.metrics.BatchDropped(ctx, metrics.DropQueueFull)
		d.throttle.Warn("dispatch queue full, dropping batch", "transport", target.Name(), "events", len(batch))
		return core.ErrQueueFull
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-d.queue:
			d.deliver(ctx, j)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, j job) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatch panic recovered", "transport", j.target.Name(), "error", r)
		}
	}()

	lines := EncodeLines(j.events, d.logger)
	d.batchLog.Log(j.target.Name(), lines, j.events[0].ID, j.events[len(j.events)-1].ID)

	if err := j.target.send(ctx, lines); err != nil {
		d.metrics.SendFailed(ctx)
		d.throttle.Warn("send failed", "transport", j.target.Name(), "error", err)
		return
	}
	d.metrics.BatchSent(ctx)
}

// EncodeLines serializes events one JSON object per line. An event that
// cannot be encoded becomes "{}".
func EncodeLines(events []core.Event, logger *slog.Logger) []string {
	lines := make([]string, 0, len(events))
	for _, e := range events {
		raw, err := json.Marshal(e)
		if err != nil {
			logger.Warn("serialize event failed", "event_id", e.ID, "type", e.Type, "error", err)
			lines = append(lines, "{}")
			continue
		}
		lines = append(lines, string(raw))
	}
	return lines
}

// guarded serializes Close against SendBatch on one transport instance.
type guarded struct {
	core.Transport
	mu     sync.Mutex
	closed bool
}

func (g *guarded) send(ctx context.Context, lines []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return core.ErrClosed
	}
	return g.Transport.SendBatch(ctx, lines)
}

func (g *guarded) close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	return g.Transport.Close()
}
