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
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/altoclef/cambridge/internal/routing"
	"github.com/altoclef/cambridge/pkg/core"
)

const (
	DefaultTransport = "udp"
	DefaultHost      = "127.0.0.1"
	DefaultPort      = 36667
	DefaultFilePath  = "cambridge.jsonl"
	DefaultTick      = 50 * time.Millisecond
)

type Config struct {
	Cambridge  CambridgeConfig  `yaml:"cambridge"`
	Filter     FilterConfig     `yaml:"filter"`
	Plan       core.Plan        `yaml:"plan"`
	Introspect IntrospectConfig `yaml:"introspect"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
	Tick       TickConfig       `yaml:"tick"`
}

type CambridgeConfig struct {
	Enabled   *bool        `yaml:"enabled"`
	Transport string       `yaml:"transport"`
	Mode      string       `yaml:"mode"`
	UDP       UDPConfig    `yaml:"udp"`
	File      FileConfig   `yaml:"file"`
	Sinks     []SinkConfig `yaml:"sinks"`
}

type UDPConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	MirrorPorts []int  `yaml:"mirror_ports"`
}

type FileConfig struct {
	Path string `yaml:"path"`
}

// SinkConfig describes an additional transport fanned out next to the
// primary one.
type SinkConfig struct {
	Name   string            `yaml:"name"`
	Type   string            `yaml:"type"`
	Config map[string]string `yaml:"config"`
}

type FilterConfig struct {
	Mute []string `yaml:"mute"`
}

type IntrospectConfig struct {
	Addr string `yaml:"addr"`
}

type MetricsConfig struct {
	OTLPEndpoint string        `yaml:"otlp_endpoint"`
	Insecure     bool          `yaml:"insecure"`
	Interval     time.Duration `yaml:"interval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TickConfig struct {
	Interval time.Duration `yaml:"interval"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

func (c *Config) ApplyDefaults() {
	if c.Cambridge.Enabled == nil {
		enabled := true
		c.Cambridge.Enabled = &enabled
	}
	c.Cambridge.Transport = strings.ToLower(strings.TrimSpace(c.Cambridge.Transport))
	if c.Cambridge.Transport == "" {
		c.Cambridge.Transport = DefaultTransport
	}
	if c.Cambridge.Mode == "" {
		c.Cambridge.Mode = string(routing.ModeFull)
	}
	if c.Cambridge.UDP.Host == "" {
		c.Cambridge.UDP.Host = DefaultHost
	}
	if c.Cambridge.UDP.Port == 0 {
		c.Cambridge.UDP.Port = DefaultPort
	}
	if c.Cambridge.File.Path == "" {
		c.Cambridge.File.Path = DefaultFilePath
	}

	def := core.DefaultPlan()
	if c.Plan.RodsTarget <= 0 {
		c.Plan.RodsTarget = def.RodsTarget
	}
	if c.Plan.TargetEyes <= 0 {
		c.Plan.TargetEyes = def.TargetEyes
	}
	if c.Plan.MinimumEyes <= 0 {
		c.Plan.MinimumEyes = def.MinimumEyes
	}
	if c.Plan.RequiredBeds <= 0 {
		c.Plan.RequiredBeds = def.RequiredBeds
	}

	if c.Tick.Interval <= 0 {
		c.Tick.Interval = DefaultTick
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

func (c *Config) Enabled() bool {
	return c.Cambridge.Enabled == nil || *c.Cambridge.Enabled
}

func (c *Config) Mode() routing.Mode {
	return routing.ParseMode(c.Cambridge.Mode)
}

// FilterRules derives the emission filter for this config.
func (c *Config) FilterRules() (rules []*routing.Rule, unknown []string) {
	return routing.BuildRules(c.Mode(), c.Filter.Mute)
}
