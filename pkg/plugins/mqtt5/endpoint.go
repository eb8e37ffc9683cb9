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

package mqtt5

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/altoclef/cambridge/pkg/core"
)

type Endpoint struct {
	name      string
	brokerURL string
	topic     string
	qos       byte
	clientID  string
	cm        *autopaho.ConnectionManager
	up        atomic.Bool
	closed    atomic.Bool
	logger    *slog.Logger
}

func New(name, brokerURL, topic string, qos byte, clientID string, logger *slog.Logger) *Endpoint {
	return &Endpoint{
		name:      name,
		brokerURL: brokerURL,
		topic:     topic,
		qos:       qos,
		clientID:  clientID,
		logger:    logger,
	}
}

// Build connects an endpoint from sink config keys broker, topic, qos and
// connect_timeout.
func Build(ctx context.Context, spec core.SinkSpec, logger *slog.Logger) (core.Transport, error) {
	broker, err := spec.Require("broker")
	if err != nil {
		return nil, err
	}
	qos, err := spec.Int("qos", 1)
	if err != nil {
		return nil, err
	}
	if qos < 0 || qos > 2 {
		return nil, fmt.Errorf("%w: mqtt5 sink %q: qos %d", core.ErrSetup, spec.Name, qos)
	}
	timeout, err := spec.Duration("connect_timeout", 5*time.Second)
	if err != nil {
		return nil, err
	}
	e := New(spec.Name, broker, spec.Get("topic", "cambridge/events"), byte(qos), spec.ClientID, logger)
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := e.Connect(connectCtx); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSetup, err)
	}
	return e, nil
}

func (e *Endpoint) Name() string { return e.name }
func (e *Endpoint) Type() string { return "mqtt5" }

func (e *Endpoint) Connect(ctx context.Context) error {
	serverURL, err := url.Parse(e.brokerURL)
	if err != nil {
		return fmt.Errorf("mqtt5 invalid URL: %w", err)
	}
	if serverURL.Scheme == "" || serverURL.Host == "" {
		return fmt.Errorf("mqtt5 invalid URL: %q", e.brokerURL)
	}

	cfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{serverURL},
		KeepAlive:                     30,
		CleanStartOnInitialConnection: true,
		SessionExpiryInterval:         60,
		OnConnectionUp: func(cm *autopaho.ConnectionManager, connAck *paho.Connack) {
			e.up.Store(true)
			e.logger.Info("mqtt5 connection up", "name", e.name)
		},
		OnConnectError: func(err error) {
			e.up.Store(false)
			e.logger.Debug("mqtt5 connect error", "name", e.name, "error", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: e.clientID,
			OnClientError: func(err error) {
				e.up.Store(false)
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				e.up.Store(false)
			},
		},
	}

	e.cm, err = autopaho.NewConnection(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("mqtt5 connection: %w", err)
	}

	if err := e.cm.AwaitConnection(ctx); err != nil {
		e.cm.Disconnect(context.Background())
		return fmt.Errorf("mqtt5 await connection: %w", err)
	}

	e.logger.Info("mqtt5 endpoint connected", "name", e.name, "broker", e.brokerURL, "topic", e.topic)
	return nil
}

func (e *Endpoint) SendBatch(ctx context.Context, lines []string) error {
	if e.closed.Load() {
		return core.ErrClosed
	}
	for _, line := range lines {
		if _, err := e.cm.Publish(ctx, &paho.Publish{
			Topic:   e.topic,
			QoS:     e.qos,
			Payload: []byte(line),
		}); err != nil {
			return fmt.Errorf("%w: mqtt5 publish: %v", core.ErrTransport, err)
		}
	}
	return nil
}

func (e *Endpoint) Healthy() bool {
	return !e.closed.Load() && e.up.Load()
}

func (e *Endpoint) Close() error {
	if !e.closed.CompareAndSwap(false, true) || e.cm == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.cm.Disconnect(ctx)
}
