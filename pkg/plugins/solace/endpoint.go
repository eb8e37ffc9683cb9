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

package solace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"solace.dev/go/messaging"
	"solace.dev/go/messaging/pkg/solace"
	"solace.dev/go/messaging/pkg/solace/config"
	"solace.dev/go/messaging/pkg/solace/resource"

	"github.com/altoclef/cambridge/pkg/core"
)

type Endpoint struct {
	name      string
	host      string
	vpn       string
	username  string
	password  string
	topic     string
	service   solace.MessagingService
	publisher solace.DirectMessagePublisher
	mu        sync.Mutex
	closed    bool
	logger    *slog.Logger
}

func New(name, host, vpn, username, password, topic string, logger *slog.Logger) *Endpoint {
	return &Endpoint{
		name:     name,
		host:     host,
		vpn:      vpn,
		username: username,
		password: password,
		topic:    topic,
		logger:   logger,
	}
}

// Build connects an endpoint from sink config keys host, vpn, username,
// password and topic.
func Build(ctx context.Context, spec core.SinkSpec, logger *slog.Logger) (core.Transport, error) {
	host, err := spec.Require("host")
	if err != nil {
		return nil, err
	}
	e := New(spec.Name, host,
		spec.Get("vpn", "default"),
		spec.Get("username", "default"),
		spec.Get("password", ""),
		spec.Get("topic", "cambridge/events"),
		logger,
	)
	if err := e.Connect(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSetup, err)
	}
	return e, nil
}

func (e *Endpoint) Name() string { return e.name }
func (e *Endpoint) Type() string { return "solace" }

func (e *Endpoint) Connect(ctx context.Context) error {
	service, err := messaging.NewMessagingServiceBuilder().
		FromConfigurationProvider(config.ServicePropertyMap{
			config.TransportLayerPropertyHost:                e.host,
			config.ServicePropertyVPNName:                    e.vpn,
			config.AuthenticationPropertySchemeBasicUserName: e.username,
			config.AuthenticationPropertySchemeBasicPassword: e.password,
		}).Build()
	if err != nil {
		return fmt.Errorf("solace build: %w", err)
	}
	if err := service.Connect(); err != nil {
		return fmt.Errorf("solace connect: %w", err)
	}
	publisher, err := service.CreateDirectMessagePublisherBuilder().Build()
	if err != nil {
		service.Disconnect()
		return fmt.Errorf("solace publisher: %w", err)
	}
	if err := publisher.Start(); err != nil {
		service.Disconnect()
		return fmt.Errorf("solace publisher start: %w", err)
	}

	e.mu.Lock()
	e.service, e.publisher = service, publisher
	e.mu.Unlock()

	e.logger.Info("solace endpoint connected", "name", e.name, "host", e.host, "topic", e.topic)
	return nil
}

func (e *Endpoint) SendBatch(ctx context.Context, lines []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return core.ErrClosed
	}
	if e.publisher == nil {
		return fmt.Errorf("%w: solace not connected", core.ErrUnhealthy)
	}
	topic := resource.TopicOf(e.topic)
	for _, line := range lines {
		msg, err := e.service.MessageBuilder().BuildWithByteArrayPayload([]byte(line))
		if err != nil {
			return fmt.Errorf("%w: solace build message: %v", core.ErrTransport, err)
		}
		if err := e.publisher.Publish(msg, topic); err != nil {
			return fmt.Errorf("%w: solace publish: %v", core.ErrTransport, err)
		}
	}
	return nil
}

func (e *Endpoint) Healthy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed && e.service != nil && e.service.IsConnected()
}

func (e *Endpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.publisher != nil {
		e.publisher.Terminate(5 * time.Second)
	}
	if e.service != nil {
		return e.service.Disconnect()
	}
	return nil
}
