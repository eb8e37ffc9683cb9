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

package mqtt3

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/altoclef/cambridge/pkg/core"
)

// Endpoint publishes lines to an MQTT 3.1.1 broker.
type Endpoint struct {
	name    string
	broker  string
	topic   string
	qos     byte
	timeout time.Duration
	client  mqtt.Client
	closed  atomic.Bool
	logger  *slog.Logger
}

func New(name, broker, topic string, qos byte, clientID string, timeout time.Duration, logger *slog.Logger) *Endpoint {
	e := &Endpoint{
		name:    name,
		broker:  broker,
		topic:   topic,
		qos:     qos,
		timeout: timeout,
		logger:  logger,
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(false).
		SetConnectTimeout(timeout).
		SetOnConnectHandler(func(c mqtt.Client) {
			logger.Info("mqtt connection up", "name", name)
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			logger.Warn("mqtt connection lost", "name", name, "error", err)
		})
	e.client = mqtt.NewClient(opts)
	return e
}

// Build connects an endpoint from sink config keys broker, topic, qos and
// connect_timeout.
func Build(ctx context.Context, spec core.SinkSpec, logger *slog.Logger) (core.Transport, error) {
	broker, err := spec.Require("broker")
	if err != nil {
		return nil, err
	}
	qos, err := spec.Int("qos", 0)
	if err != nil {
		return nil, err
	}
	if qos < 0 || qos > 2 {
		return nil, fmt.Errorf("%w: mqtt sink %q: qos %d", core.ErrSetup, spec.Name, qos)
	}
	timeout, err := spec.Duration("connect_timeout", 5*time.Second)
	if err != nil {
		return nil, err
	}
	e := New(spec.Name, broker, spec.Get("topic", "cambridge/events"), byte(qos), spec.ClientID, timeout, logger)
	if err := e.Connect(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSetup, err)
	}
	return e, nil
}

func (e *Endpoint) Name() string { return e.name }
func (e *Endpoint) Type() string { return "mqtt" }

func (e *Endpoint) Connect(ctx context.Context) error {
	token := e.client.Connect()
	if !token.WaitTimeout(e.timeout) {
		e.client.Disconnect(0)
		return fmt.Errorf("mqtt connect: timed out after %s", e.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	e.logger.Info("mqtt endpoint connected", "name", e.name, "broker", e.broker, "topic", e.topic)
	return nil
}

func (e *Endpoint) SendBatch(ctx context.Context, lines []string) error {
	if e.closed.Load() {
		return core.ErrClosed
	}
	for _, line := range lines {
		token := e.client.Publish(e.topic, e.qos, false, []byte(line))
		if !token.WaitTimeout(e.timeout) {
			return fmt.Errorf("%w: mqtt publish timed out", core.ErrTransport)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("%w: mqtt publish: %v", core.ErrTransport, err)
		}
	}
	return nil
}

func (e *Endpoint) Healthy() bool {
	return !e.closed.Load() && e.client.IsConnectionOpen()
}

func (e *Endpoint) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	if e.client.IsConnected() {
		e.client.Disconnect(250)
	}
	return nil
}
