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

package redis

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/altoclef/cambridge/pkg/core"
)

// DefaultHistory matches the in-process history ring.
const DefaultHistory = 64

// Endpoint publishes each line on a channel and keeps the most recent lines in
// a capped list so late subscribers can catch up.
type Endpoint struct {
	name    string
	addr    string
	channel string
	listKey string
	history int
	client  *goredis.Client
	healthy atomic.Bool
	closed  atomic.Bool
	logger  *slog.Logger
}

func New(name, addr, password string, db int, channel, listKey string, history int, logger *slog.Logger) *Endpoint {
	if history <= 0 {
		history = DefaultHistory
	}
	return &Endpoint{
		name:    name,
		addr:    addr,
		channel: channel,
		listKey: listKey,
		history: history,
		client: goredis.NewClient(&goredis.Options{
			Addr:        addr,
			Password:    password,
			DB:          db,
			DialTimeout: 2 * time.Second,
			MaxRetries:  1,
		}),
		logger: logger,
	}
}

// Build connects an endpoint from sink config keys addr, password, db,
// channel, list and history.
func Build(ctx context.Context, spec core.SinkSpec, logger *slog.Logger) (core.Transport, error) {
	db, err := spec.Int("db", 0)
	if err != nil {
		return nil, err
	}
	history, err := spec.Int("history", DefaultHistory)
	if err != nil {
		return nil, err
	}
	e := New(spec.Name,
		spec.Get("addr", "127.0.0.1:6379"),
		spec.Get("password", ""),
		db,
		spec.Get("channel", "cambridge:events"),
		spec.Get("list", "cambridge:history"),
		history,
		logger,
	)
	if err := e.Connect(ctx); err != nil {
		e.client.Close()
		return nil, fmt.Errorf("%w: %v", core.ErrSetup, err)
	}
	return e, nil
}

func (e *Endpoint) Name() string { return e.name }
func (e *Endpoint) Type() string { return "redis" }

func (e *Endpoint) Connect(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := e.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	e.healthy.Store(true)
	e.logger.Info("redis endpoint connected", "name", e.name, "addr", e.addr, "channel", e.channel)
	return nil
}

func (e *Endpoint) SendBatch(ctx context.Context, lines []string) error {
	if e.closed.Load() {
		return core.ErrClosed
	}
	if len(lines) == 0 {
		return nil
	}
	pipe := e.client.Pipeline()
	for _, line := range lines {
		pipe.Publish(ctx, e.channel, line)
		pipe.RPush(ctx, e.listKey, line)
	}
	pipe.LTrim(ctx, e.listKey, int64(-e.history), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		e.healthy.Store(false)
		return fmt.Errorf("%w: redis pipeline: %v", core.ErrTransport, err)
	}
	e.healthy.Store(true)
	return nil
}

func (e *Endpoint) Healthy() bool {
	return !e.closed.Load() && e.healthy.Load()
}

func (e *Endpoint) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	return e.client.Close()
}
