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

// Package builtin registers every sink kind shipped with cambridge.
package builtin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/altoclef/cambridge/pkg/core"
	"github.com/altoclef/cambridge/pkg/plugins"
	"github.com/altoclef/cambridge/pkg/plugins/amqp10"
	"github.com/altoclef/cambridge/pkg/plugins/file"
	"github.com/altoclef/cambridge/pkg/plugins/kafka"
	"github.com/altoclef/cambridge/pkg/plugins/mqtt3"
	"github.com/altoclef/cambridge/pkg/plugins/mqtt5"
	"github.com/altoclef/cambridge/pkg/plugins/rabbitmq"
	"github.com/altoclef/cambridge/pkg/plugins/redis"
	"github.com/altoclef/cambridge/pkg/plugins/solace"
	"github.com/altoclef/cambridge/pkg/plugins/sse"
	"github.com/altoclef/cambridge/pkg/plugins/udp"
	"github.com/altoclef/cambridge/pkg/plugins/webhook"
	"github.com/altoclef/cambridge/pkg/plugins/ws"
)

func Register(r *plugins.Registry) {
	r.Register("udp", buildUDP)
	r.Register("file", buildFile)
	r.Register("kafka", kafka.Build)
	r.Register("mqtt5", mqtt5.Build)
	r.Register("mqtt", mqtt3.Build)
	r.Register("rabbitmq", rabbitmq.Build)
	r.Register("amqp", amqp10.Build)
	r.Register("solace", solace.Build)
	r.Register("redis", redis.Build)
	r.Register("websocket", ws.Build)
	r.Register("sse", sse.Build)
	r.Register("http", webhook.Build)
}

func buildUDP(ctx context.Context, spec core.SinkSpec, logger *slog.Logger) (core.Transport, error) {
	port, err := spec.Int("port", 0)
	if err != nil {
		return nil, err
	}
	if port <= 0 {
		return nil, fmt.Errorf("%w: udp sink %q: port required", core.ErrSetup, spec.Name)
	}
	return udp.New(spec.Name, spec.Get("host", "127.0.0.1"), port, logger)
}

func buildFile(ctx context.Context, spec core.SinkSpec, logger *slog.Logger) (core.Transport, error) {
	path, err := spec.Require("path")
	if err != nil {
		return nil, err
	}
	return file.New(spec.Name, path, logger)
}
