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

package composite

import (
	"context"
	"log/slog"

	"github.com/altoclef/cambridge/pkg/core"
)

// Transport fans a batch out to its delegates in order. A batch succeeds when
// at least one delegate accepts it.
type Transport struct {
	name      string
	delegates []core.Transport
	logger    *slog.Logger
}

func New(name string, delegates []core.Transport, logger *slog.Logger) *Transport {
	return &Transport{
		name:      name,
		delegates: append([]core.Transport(nil), delegates...),
		logger:    logger,
	}
}

func (t *Transport) Name() string { return t.name }
func (t *Transport) Type() string { return "composite" }

func (t *Transport) Delegates() []core.Transport {
	return append([]core.Transport(nil), t.delegates...)
}

func (t *Transport) SendBatch(ctx context.Context, lines []string) error {
	if len(t.delegates) == 0 {
		return core.ErrNoTransport
	}
	var lastErr error
	delivered := false
	for _, d := range t.delegates {
		if err := d.SendBatch(ctx, lines); err != nil {
			t.logger.Debug("delegate send failed", "name", t.name, "delegate", d.Name(), "error", err)
			lastErr = err
			continue
		}
		delivered = true
	}
	if delivered {
		return nil
	}
	return lastErr
}

func (t *Transport) Healthy() bool {
	for _, d := range t.delegates {
		if d.Healthy() {
			return true
		}
	}
	return false
}

// Close closes every delegate and returns the last error seen.
func (t *Transport) Close() error {
	var lastErr error
	for _, d := range t.delegates {
		if err := d.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
