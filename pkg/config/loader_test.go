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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/altoclef/cambridge/internal/routing"
	"github.com/altoclef/cambridge/pkg/core"
)

func TestLoad(t *testing.T) {
	content := `
cambridge:
  enabled: true
  transport: FILE
  mode: lite
  udp:
    host: 10.0.0.5
    port: 4000
    mirror_ports: [4001, 4001, 0]
  file:
    path: /tmp/cam.jsonl
  sinks:
    - name: overlay
      type: websocket
      config:
        addr: ":8090"
filter:
  mute: [MINI_HUD]
plan:
  target_eyes: 16
  barter_pearls: true
metrics:
  otlp_endpoint: localhost:4317
  interval: 30s
tick:
  interval: 100ms
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte(content), 0644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Cambridge.Transport != "file" {
		t.Fatalf("expected transport file, got %s", cfg.Cambridge.Transport)
	}
	if cfg.Mode() != routing.ModeStatusOnly {
		t.Fatalf("expected status_only mode, got %s", cfg.Mode())
	}
	if cfg.Cambridge.UDP.Host != "10.0.0.5" || cfg.Cambridge.UDP.Port != 4000 {
		t.Fatalf("unexpected udp config %+v", cfg.Cambridge.UDP)
	}
	if len(cfg.Cambridge.UDP.MirrorPorts) != 3 {
		t.Fatalf("mirror ports are kept verbatim, got %v", cfg.Cambridge.UDP.MirrorPorts)
	}
	if len(cfg.Cambridge.Sinks) != 1 || cfg.Cambridge.Sinks[0].Config["addr"] != ":8090" {
		t.Fatalf("unexpected sinks %+v", cfg.Cambridge.Sinks)
	}
	if cfg.Plan.TargetEyes != 16 || cfg.Plan.RodsTarget != 6 || !cfg.Plan.BarterPearls {
		t.Fatalf("unexpected plan %+v", cfg.Plan)
	}
	if cfg.Metrics.Interval != 30*time.Second {
		t.Fatalf("expected 30s metrics interval, got %s", cfg.Metrics.Interval)
	}
	if cfg.Tick.Interval != 100*time.Millisecond {
		t.Fatalf("expected 100ms tick, got %s", cfg.Tick.Interval)
	}
	rules, unknown := cfg.FilterRules()
	if len(unknown) != 0 || len(rules) == 0 {
		t.Fatalf("unexpected rules %d unknown %v", len(rules), unknown)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if !cfg.Enabled() {
		t.Fatal("expected enabled by default")
	}
	if cfg.Cambridge.Transport != DefaultTransport || cfg.Cambridge.UDP.Host != DefaultHost || cfg.Cambridge.UDP.Port != DefaultPort {
		t.Fatalf("unexpected transport defaults %+v", cfg.Cambridge)
	}
	if cfg.Cambridge.File.Path != DefaultFilePath {
		t.Fatalf("unexpected file path %s", cfg.Cambridge.File.Path)
	}
	if cfg.Plan != core.DefaultPlan() {
		t.Fatalf("unexpected plan %+v", cfg.Plan)
	}
	if cfg.Tick.Interval != DefaultTick {
		t.Fatalf("unexpected tick %s", cfg.Tick.Interval)
	}
	if cfg.Mode() != routing.ModeFull {
		t.Fatalf("unexpected mode %s", cfg.Mode())
	}
}

func TestDisabled(t *testing.T) {
	cfg, err := Parse([]byte("cambridge:\n  enabled: false\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Enabled() {
		t.Fatal("expected disabled")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	os.WriteFile(path, []byte("cambridge: [unclosed"), 0644)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}
