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

package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/altoclef/cambridge/pkg/core"
)

// Endpoint publishes each line as one record. Records are keyed by event id
// so a consumer can deduplicate replays.
type Endpoint struct {
	name    string
	brokers []string
	topic   string
	writer  *kafka.Writer
	closed  atomic.Bool
	logger  *slog.Logger
}

func New(name string, brokers []string, topic string, batchTimeout time.Duration, logger *slog.Logger) *Endpoint {
	return &Endpoint{
		name:    name,
		brokers: brokers,
		topic:   topic,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			BatchTimeout:           batchTimeout,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		logger: logger,
	}
}

// Build creates an endpoint from sink config keys brokers, topic and
// batch_timeout.
func Build(ctx context.Context, spec core.SinkSpec, logger *slog.Logger) (core.Transport, error) {
	brokers := spec.List("brokers")
	if len(brokers) == 0 {
		return nil, fmt.Errorf("%w: kafka sink %q: no brokers", core.ErrSetup, spec.Name)
	}
	topic := spec.Get("topic", "cambridge.events")
	batchTimeout, err := spec.Duration("batch_timeout", 10*time.Millisecond)
	if err != nil {
		return nil, err
	}
	e := New(spec.Name, brokers, topic, batchTimeout, logger)
	logger.Info("kafka endpoint ready",
		"name", e.name,
		"brokers", strings.Join(e.brokers, ","),
		"topic", e.topic,
	)
	return e, nil
}

func (e *Endpoint) Name() string { return e.name }
func (e *Endpoint) Type() string { return "kafka" }

func (e *Endpoint) SendBatch(ctx context.Context, lines []string) error {
	if e.closed.Load() {
		return core.ErrClosed
	}
	msgs := Messages(lines)
	if len(msgs) == 0 {
		return nil
	}
	if err := e.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("%w: kafka write: %v", core.ErrTransport, err)
	}
	return nil
}

// Messages maps lines to records. Lines without an id go out unkeyed.
func Messages(lines []string) []kafka.Message {
	msgs := make([]kafka.Message, 0, len(lines))
	for _, line := range lines {
		msg := kafka.Message{Value: []byte(line)}
		if id, ok := core.LineID(line); ok {
			msg.Key = []byte(strconv.FormatUint(id, 10))
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

func (e *Endpoint) Healthy() bool {
	return !e.closed.Load()
}

func (e *Endpoint) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := e.writer.Close(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("kafka close: %w", err)
	}
	return nil
}
