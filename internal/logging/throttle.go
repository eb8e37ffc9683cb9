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

package logging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const DefaultThrottleWindow = 5 * time.Second

// Throttle emits at most one record per window. Suppressed records are
// counted and reported with the next one that gets through.
type Throttle struct {
	logger     *slog.Logger
	limiter    *rate.Limiter
	now        func() time.Time
	mu         sync.Mutex
	suppressed int
}

func NewThrottle(logger *slog.Logger, window time.Duration, now func() time.Time) *Throttle {
	if window <= 0 {
		window = DefaultThrottleWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Throttle{
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(window), 1),
		now:     now,
	}
}

// Warn logs msg unless another record went out within the window. It reports
// whether the record was written.
func (t *Throttle) Warn(msg string, args ...any) bool {
	return t.log(slog.LevelWarn, msg, args)
}

// Error is Warn at error level. Both levels share one window.
func (t *Throttle) Error(msg string, args ...any) bool {
	return t.log(slog.LevelError, msg, args)
}

func (t *Throttle) log(level slog.Level, msg string, args []any) bool {
	t.mu.Lock()
	if !t.limiter.AllowN(t.now(), 1) {
		t.suppressed++
		t.mu.Unlock()
		return false
	}
	suppressed := t.suppressed
	t.suppressed = 0
	t.mu.Unlock()

	if suppressed > 0 {
		args = append(args, "suppressed", suppressed)
	}
	t.logger.Log(context.Background(), level, msg, args...)
	return true
}
