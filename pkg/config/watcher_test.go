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

package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("cambridge:\n  transport: udp\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	reloaded := make(chan *Config, 4)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	w := NewWatcher(path, func(cfg *Config) { reloaded <- cfg }, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Watch(ctx) }()

	deadline := time.After(5 * time.Second)
	for {
		if err := os.WriteFile(path, []byte("cambridge:\n  transport: file\n"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
		select {
		case cfg := <-reloaded:
			if cfg.Cambridge.Transport != "file" {
				t.Fatalf("expected reloaded transport file, got %s", cfg.Cambridge.Transport)
			}
			cancel()
			if err := <-errCh; err != nil {
				t.Fatalf("watch returned error: %v", err)
			}
			return
		case <-time.After(300 * time.Millisecond):
		case <-deadline:
			t.Fatal("config was not reloaded")
		}
	}
}

func TestWatcherMissingDir(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	w := NewWatcher("/nonexistent/dir/config.yaml", nil, logger)
	if err := w.Watch(context.Background()); err == nil {
		t.Fatal("expected setup error")
	}
}
