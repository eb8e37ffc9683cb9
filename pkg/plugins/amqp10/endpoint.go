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

package amqp10

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Azure/go-amqp"

	"github.com/altoclef/cambridge/pkg/core"
)

// Endpoint sends lines to an AMQP 1.0 address such as a queue on a broker
// or a Service Bus entity.
type Endpoint struct {
	name    string
	url     string
	address string
	conn    *amqp.Conn
	sess    *amqp.Session
	sender  *amqp.Sender
	mu      sync.Mutex
	healthy bool
	closed  bool
	logger  *slog.Logger
}

func New(name, url, address string, logger *slog.Logger) *Endpoint {
	return &Endpoint{
		name:    name,
		url:     url,
		address: address,
		logger:  logger,
	}
}

// Build dials an endpoint from sink config keys url, address and
// connect_timeout.
func Build(ctx context.Context, spec core.SinkSpec, logger *slog.Logger) (core.Transport, error) {
	url, err := spec.Require("url")
	if err != nil {
		return nil, err
	}
	timeout, err := spec.Duration("connect_timeout", 5*time.Second)
	if err != nil {
		return nil, err
	}
	e := New(spec.Name, url, spec.Get("address", "cambridge.events"), logger)
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := e.Connect(connectCtx); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSetup, err)
	}
	return e, nil
}

func (e *Endpoint) Name() string { return e.name }
func (e *Endpoint) Type() string { return "amqp" }

func (e *Endpoint) Connect(ctx context.Context) error {
	conn, err := amqp.Dial(ctx, e.url, nil)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	sess, err := conn.NewSession(ctx, nil)
	if err != nil {
		conn.Close()
		return fmt.Errorf("amqp session: %w", err)
	}
	sender, err := sess.NewSender(ctx, e.address, nil)
	if err != nil {
		conn.Close()
		return fmt.Errorf("amqp sender: %w", err)
	}

	e.mu.Lock()
	e.conn, e.sess, e.sender = conn, sess, sender
	e.healthy = true
	e.mu.Unlock()

	e.logger.Info("amqp endpoint connected", "name", e.name, "url", e.url, "address", e.address)
	return nil
}

func (e *Endpoint) SendBatch(ctx context.Context, lines []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return core.ErrClosed
	}
	if e.sender == nil {
		return fmt.Errorf("%w: amqp not connected", core.ErrUnhealthy)
	}
	for _, line := range lines {
		msg := &amqp.Message{Data: [][]byte{[]byte(line)}}
		if id, ok := core.LineID(line); ok {
			msg.Properties = &amqp.MessageProperties{MessageID: strconv.FormatUint(id, 10)}
		}
		if err := e.sender.Send(ctx, msg, nil); err != nil {
			e.healthy = false
			return fmt.Errorf("%w: amqp send: %v", core.ErrTransport, err)
		}
	}
	e.healthy = true
	return nil
}

func (e *Endpoint) Healthy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed && e.healthy
}

func (e *Endpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.conn == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e.sender.Close(ctx)
	e.sess.Close(ctx)
	return e.conn.Close()
}
