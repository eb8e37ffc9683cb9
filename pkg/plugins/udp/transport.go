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

package udp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/altoclef/cambridge/pkg/core"
)

// Transport sends each line as one datagram to a fixed destination. The first
// send failure marks it unhealthy for good.
type Transport struct {
	name      string
	addr      *net.UDPAddr
	conn      *net.UDPConn
	healthy   atomic.Bool
	closeOnce sync.Once
	logger    *slog.Logger
}

func New(name, host string, port int, logger *slog.Logger) (*Transport, error) {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("%w: resolve udp %s:%d: %v", core.ErrSetup, host, port, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("%w: open udp socket: %v", core.ErrSetup, err)
	}
	t := &Transport{
		name:   name,
		addr:   addr,
		conn:   conn,
		logger: logger,
	}
	t.healthy.Store(true)
	logger.Info("udp transport ready", "name", name, "addr", addr.String())
	return t, nil
}

func (t *Transport) Name() string { return t.name }
func (t *Transport) Type() string { return "udp" }

func (t *Transport) Addr() *net.UDPAddr { return t.addr }

func (t *Transport) SendBatch(ctx context.Context, lines []string) error {
	if !t.healthy.Load() {
		return fmt.Errorf("%w: udp %s", core.ErrUnhealthy, t.addr)
	}
	for _, line := range lines {
		if _, err := t.conn.Write([]byte(line)); err != nil {
			t.healthy.Store(false)
			t.logger.Warn("udp send failed", "name", t.name, "addr", t.addr.String(), "error", err)
			return fmt.Errorf("%w: udp %s: %v", core.ErrTransport, t.addr, err)
		}
	}
	return nil
}

func (t *Transport) Healthy() bool {
	return t.healthy.Load()
}

func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.healthy.Store(false)
		err = t.conn.Close()
	})
	return err
}
