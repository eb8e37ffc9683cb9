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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"

	"github.com/altoclef/cambridge/internal/bridge"
	"github.com/altoclef/cambridge/internal/introspect"
	"github.com/altoclef/cambridge/internal/logging"
	"github.com/altoclef/cambridge/internal/metrics"
	"github.com/altoclef/cambridge/internal/replay"
	"github.com/altoclef/cambridge/pkg/config"
	"github.com/altoclef/cambridge/pkg/plugins"
	"github.com/altoclef/cambridge/pkg/plugins/builtin"
)

func main() {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "cambridge.yaml"
	}
	configPath := flag.StringP("config", "c", defaultConfig, "config file")
	scenarioPath := flag.StringP("scenario", "s", "", "scenario file (JSON Lines) to replay")
	logLevel := flag.String("log-level", "", "override logging.level")
	hold := flag.Bool("hold", false, "keep running after the scenario ends until interrupted")
	linger := flag.Duration("linger", 500*time.Millisecond, "grace period for queued batches before exit")
	flag.Parse()

	if *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "cambridge: --scenario is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cambridge: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	instanceID := uuid.NewString()
	provider, shutdownMetrics, err := metrics.NewProvider(ctx, metrics.ExporterConfig{
		Endpoint:    cfg.Metrics.OTLPEndpoint,
		Insecure:    cfg.Metrics.Insecure,
		Interval:    cfg.Metrics.Interval,
		ServiceName: "cambridge",
		InstanceID:  instanceID,
	})
	if err != nil {
		logger.Error("failed to set up metrics", "error", err)
		os.Exit(1)
	}
	recorder, err := metrics.New(provider)
	if err != nil {
		logger.Error("failed to create instruments", "error", err)
		os.Exit(1)
	}

	frames, err := replay.Load(*scenarioPath)
	if err != nil {
		logger.Error("failed to load scenario", "path", *scenarioPath, "error", err)
		os.Exit(1)
	}
	player := replay.NewPlayer(frames)

	registry := plugins.NewRegistry(instanceID, logger.With("component", "registry"))
	builtin.Register(registry)

	b := bridge.New(player, registry, logger.With("component", "bridge"), bridge.WithMetrics(recorder))
	b.Start(ctx)
	if err := b.Configure(ctx, cfg); err != nil {
		// a later config reload may bring the pipeline up
		logger.Error("pipeline disabled", "error", err)
	}

	watcher := config.NewWatcher(*configPath, func(next *config.Config) {
		if err := b.Configure(ctx, next); err != nil {
			logger.Error("pipeline disabled after reload", "error", err)
		}
	}, logger.With("component", "config"))
	go func() {
		if err := watcher.Watch(ctx); err != nil {
			logger.Warn("config hot reload unavailable", "error", err)
		}
	}()

	if cfg.Introspect.Addr != "" {
		srv := introspect.New(cfg.Introspect.Addr, b, logger.With("component", "introspect"))
		go func() {
			if err := srv.Start(ctx); err != nil {
				logger.Error("introspection server failed", "error", err)
			}
		}()
	}

	logger.Info("cambridge started",
		"config", *configPath,
		"scenario", *scenarioPath,
		"frames", len(frames),
		"instance", instanceID,
	)
	b.NotifyBootstrapStarted(ctx, filepath.Base(*scenarioPath))
	b.NotifyBootstrapFinished(ctx, fmt.Sprintf("%d frames over %s", len(frames), player.Duration()))

	err = replay.Run(ctx, player, cfg.Tick.Interval, b.Tick)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("replay interrupted")
	case err != nil:
		logger.Error("replay failed", "error", err)
	default:
		logger.Info("replay finished", "last_id", b.Health().LastID)
		if *hold {
			<-ctx.Done()
		} else {
			time.Sleep(*linger)
		}
	}

	logger.Info("shutting down cambridge")
	b.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdownMetrics(shutdownCtx); err != nil {
		logger.Warn("metrics shutdown failed", "error", err)
	}
	logger.Info("cambridge stopped")
}
