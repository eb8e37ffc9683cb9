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

package file

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/altoclef/cambridge/pkg/core"
)

// Transport keeps the last batch as the complete content of one file. Writes
// go through a temp file and rename so readers never see a partial batch.
type Transport struct {
	name   string
	path   string
	mu     sync.Mutex
	closed bool
	logger *slog.Logger
}

func New(name, path string, logger *slog.Logger) (*Transport, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", core.ErrSetup, path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create dir for %s: %v", core.ErrSetup, abs, err)
	}
	if err := os.WriteFile(abs, nil, 0o644); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", core.ErrSetup, abs, err)
	}
	logger.Info("file transport ready", "name", name, "path", abs)
	return &Transport{name: name, path: abs, logger: logger}, nil
}

func (t *Transport) Name() string { return t.name }
func (t *Transport) Type() string { return "file" }
func (t *Transport) Path() string { return t.path }

func (t *Transport) SendBatch(ctx context.Context, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return core.ErrClosed
	}
	if err := writeAtomic(t.path, []byte(strings.Join(lines, "\n"))); err != nil {
		t.logger.Warn("file transport write failed", "name", t.name, "path", t.path, "error", err)
		return fmt.Errorf("%w: %v", core.ErrTransport, err)
	}
	return nil
}

// Healthy only checks that the file still exists.
func (t *Transport) Healthy() bool {
	_, err := os.Stat(t.path)
	return err == nil
}

// Close leaves the file in place, emptied.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if err := os.WriteFile(t.path, nil, 0o644); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("truncate %s: %w", t.path, err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp: %w", err)
	}
	return nil
}
