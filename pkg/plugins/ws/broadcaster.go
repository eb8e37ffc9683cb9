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

package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/altoclef/cambridge/pkg/core"
)

const clientBuffer = 64

type client struct {
	id       string
	conn     *websocket.Conn
	out      chan []byte
	gone     chan struct{}
	goneOnce sync.Once
}

func (c *client) markGone() {
	c.goneOnce.Do(func() { close(c.gone) })
}

// Broadcaster serves a websocket endpoint and pushes every line to all
// connected clients. Slow clients lose lines rather than stall the batch.
type Broadcaster struct {
	name     string
	upgrader websocket.Upgrader
	listener net.Listener
	server   *http.Server
	clients  map[string]*client
	mu       sync.Mutex
	done     chan struct{}
	closed   bool
	logger   *slog.Logger
}

func New(name, addr, path string, logger *slog.Logger) (*Broadcaster, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: websocket listen %s: %v", core.ErrSetup, addr, err)
	}
	b := &Broadcaster{
		name: name,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		listener: ln,
		clients:  make(map[string]*client),
		done:     make(chan struct{}),
		logger:   logger,
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, b.handleConnection)
	b.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := b.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("websocket server stopped", "name", name, "error", err)
		}
	}()

	logger.Info("websocket broadcaster starting", "name", name, "addr", ln.Addr().String(), "path", path)
	return b, nil
}

// Build starts a broadcaster from sink config keys addr and path.
func Build(ctx context.Context, spec core.SinkSpec, logger *slog.Logger) (core.Transport, error) {
	return New(spec.Name, spec.Get("addr", "127.0.0.1:36668"), spec.Get("path", "/events"), logger)
}

func (b *Broadcaster) Name() string { return b.name }
func (b *Broadcaster) Type() string { return "websocket" }

func (b *Broadcaster) Addr() string { return b.listener.Addr().String() }

func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *Broadcaster) SendBatch(ctx context.Context, lines []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return core.ErrClosed
	}
	for _, line := range lines {
		data := []byte(line)
		for _, c := range b.clients {
			select {
			case c.out <- data:
			default:
				b.logger.Debug("ws client buffer full, dropping line", "client_id", c.id)
			}
		}
	}
	return nil
}

func (b *Broadcaster) Healthy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed
}

func (b *Broadcaster) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)
	for _, c := range b.clients {
		c.conn.Close()
	}
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return b.server.Shutdown(ctx)
}

func (b *Broadcaster) handleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Error("ws upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		out:  make(chan []byte, clientBuffer),
		gone: make(chan struct{}),
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		conn.Close()
		return
	}
	b.clients[c.id] = c
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.clients, c.id)
		b.mu.Unlock()
		conn.Close()
		b.logger.Info("ws client disconnected", "client_id", c.id)
	}()

	b.logger.Info("ws client connected", "client_id", c.id)

	go b.readLoop(c)
	b.writeLoop(c)
}

func (b *Broadcaster) writeLoop(c *client) {
	for {
		select {
		case <-b.done:
			return
		case <-c.gone:
			return
		case data := <-c.out:
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				b.logger.Debug("ws write failed", "client_id", c.id, "error", err)
				return
			}
		}
	}
}

// readLoop drains control frames and marks the client gone when the peer
// goes away, which ends writeLoop.
func (b *Broadcaster) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				b.logger.Debug("ws read error", "client_id", c.id, "error", err)
			}
			c.markGone()
			return
		}
	}
}
