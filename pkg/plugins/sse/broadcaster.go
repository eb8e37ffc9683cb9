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

package sse

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

	"github.com/altoclef/cambridge/pkg/core"
)

const clientBuffer = 64

// Broadcaster serves a text/event-stream endpoint. Each line becomes one
// event whose id is the event id when the line carries one.
type Broadcaster struct {
	name     string
	listener net.Listener
	server   *http.Server
	clients  map[string]chan string
	mu       sync.Mutex
	done     chan struct{}
	closed   bool
	logger   *slog.Logger
}

func New(name, addr, path string, logger *slog.Logger) (*Broadcaster, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: sse listen %s: %v", core.ErrSetup, addr, err)
	}
	b := &Broadcaster{
		name:     name,
		listener: ln,
		clients:  make(map[string]chan string),
		done:     make(chan struct{}),
		logger:   logger,
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, b.handleSSE)
	b.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := b.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("sse server stopped", "name", name, "error", err)
		}
	}()

	logger.Info("sse broadcaster starting", "name", name, "addr", ln.Addr().String(), "path", path)
	return b, nil
}

// Build starts a broadcaster from sink config keys addr and path.
func Build(ctx context.Context, spec core.SinkSpec, logger *slog.Logger) (core.Transport, error) {
	return New(spec.Name, spec.Get("addr", "127.0.0.1:36669"), spec.Get("path", "/events"), logger)
}

func (b *Broadcaster) Name() string { return b.name }
func (b *Broadcaster) Type() string { return "sse" }

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
		for id, ch := range b.clients {
			select {
			case ch <- line:
			default:
				b.logger.Debug("sse client buffer full, dropping line", "client_id", id)
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
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return b.server.Shutdown(ctx)
}

func (b *Broadcaster) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	clientID := uuid.New().String()
	ch := make(chan string, clientBuffer)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.clients[clientID] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.clients, clientID)
		b.mu.Unlock()
		b.logger.Info("sse client disconnected", "client_id", clientID)
	}()

	b.logger.Info("sse client connected", "client_id", clientID)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-b.done:
			return
		case line := <-ch:
			if id, ok := core.LineID(line); ok {
				fmt.Fprintf(w, "id: %d\ndata: %s\n\n", id, line)
			} else {
				fmt.Fprintf(w, "data: %s\n\n", line)
			}
			flusher.Flush()
		}
	}
}
