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

package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/altoclef/cambridge/pkg/core"
)

const contentType = "application/x-ndjson"

// Endpoint posts each batch as newline-delimited JSON.
type Endpoint struct {
	name     string
	url      string
	token    string
	clientID string
	client   *http.Client
	healthy  atomic.Bool
	closed   atomic.Bool
	logger   *slog.Logger
}

func New(name, target, token, clientID string, timeout time.Duration, logger *slog.Logger) *Endpoint {
	e := &Endpoint{
		name:     name,
		url:      target,
		token:    token,
		clientID: clientID,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
	e.healthy.Store(true)
	return e
}

// Build creates an endpoint from sink config keys url, token and timeout.
func Build(ctx context.Context, spec core.SinkSpec, logger *slog.Logger) (core.Transport, error) {
	target, err := spec.Require("url")
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: webhook sink %q: invalid url %q", core.ErrSetup, spec.Name, target)
	}
	timeout, err := spec.Duration("timeout", 2*time.Second)
	if err != nil {
		return nil, err
	}
	logger.Info("webhook endpoint ready", "name", spec.Name, "url", u.Redacted())
	return New(spec.Name, target, spec.Get("token", ""), spec.ClientID, timeout, logger), nil
}

func (e *Endpoint) Name() string { return e.name }
func (e *Endpoint) Type() string { return "webhook" }

func (e *Endpoint) SendBatch(ctx context.Context, lines []string) error {
	if e.closed.Load() {
		return core.ErrClosed
	}
	if len(lines) == 0 {
		return nil
	}
	body := strings.Join(lines, "\n") + "\n"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewBufferString(body))
	if err != nil {
		return fmt.Errorf("%w: webhook request: %v", core.ErrTransport, err)
	}
	req.Header.Set("Content-Type", contentType)
	if e.clientID != "" {
		req.Header.Set("X-Cambridge-Client", e.clientID)
	}
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		e.healthy.Store(false)
		return fmt.Errorf("%w: webhook post: %v", core.ErrTransport, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e.healthy.Store(false)
		return fmt.Errorf("%w: webhook status %d", core.ErrTransport, resp.StatusCode)
	}
	e.healthy.Store(true)
	return nil
}

// Healthy reflects the outcome of the last post.
func (e *Endpoint) Healthy() bool {
	return !e.closed.Load() && e.healthy.Load()
}

func (e *Endpoint) Close() error {
	if e.closed.CompareAndSwap(false, true) {
		e.client.CloseIdleConnections()
	}
	return nil
}
