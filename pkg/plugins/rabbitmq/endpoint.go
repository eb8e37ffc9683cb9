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

package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/altoclef/cambridge/pkg/core"
)

type Endpoint struct {
	name   string
	url    string
	queue  string
	conn   *amqp.Connection
	ch     *amqp.Channel
	mu     sync.Mutex
	closed bool
	logger *slog.Logger
}

func New(name, url, queue string, logger *slog.Logger) *Endpoint {
	return &Endpoint{
		name:   name,
		url:    url,
		queue:  queue,
		logger: logger,
	}
}

// Build dials an endpoint from sink config keys url and queue.
func Build(ctx context.Context, spec core.SinkSpec, logger *slog.Logger) (core.Transport, error) {
	url, err := spec.Require("url")
	if err != nil {
		return nil, err
	}
	e := New(spec.Name, url, spec.Get("queue", "cambridge.events"), logger)
	if err := e.Connect(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSetup, err)
	}
	return e, nil
}

func (e *Endpoint) Name() string { return e.name }
func (e *Endpoint) Type() string { return "rabbitmq" }

func (e *Endpoint) Connect(ctx context.Context) error {
	conn, err := amqp.DialConfig(e.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Dial:      amqp.DefaultDial(5 * time.Second),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(e.queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	e.conn = conn
	e.ch = ch
	e.logger.Info("rabbitmq endpoint connected", "name", e.name, "queue", e.queue)
	return nil
}

func (e *Endpoint) SendBatch(ctx context.Context, lines []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return core.ErrClosed
	}
	if e.ch == nil {
		return fmt.Errorf("%w: rabbitmq not connected", core.ErrUnhealthy)
	}
	for _, line := range lines {
		err := e.ch.PublishWithContext(ctx, "", e.queue, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Transient,
			Timestamp:    time.Now(),
			Body:         []byte(line),
		})
		if err != nil {
			return fmt.Errorf("%w: rabbitmq publish: %v", core.ErrTransport, err)
		}
	}
	return nil
}

func (e *Endpoint) Healthy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed && e.conn != nil && !e.conn.IsClosed()
}

func (e *Endpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.ch != nil {
		e.ch.Close()
	}
	if e.conn != nil && !e.conn.IsClosed() {
		return e.conn.Close()
	}
	return nil
}
