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

package mqtt3

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/altoclef/cambridge/pkg/core"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestBuildValidation(t *testing.T) {
	cases := map[string]map[string]string{
		"missing broker": {},
		"bad qos":        {"broker": "tcp://127.0.0.1:1", "qos": "7"},
		"unreachable":    {"broker": "tcp://127.0.0.1:1", "connect_timeout": "1s"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Build(context.Background(), core.SinkSpec{Name: "hud", Kind: "mqtt", Config: cfg}, testLogger())
			assert.ErrorIs(t, err, core.ErrSetup)
		})
	}
}

func TestClosedEndpoint(t *testing.T) {
	e := New("hud", "tcp://127.0.0.1:1", "cambridge/events", 0, "cambridge-test", time.Second, testLogger())
	assert.False(t, e.Healthy())
	assert.NoError(t, e.Close())
	assert.ErrorIs(t, e.SendBatch(context.Background(), []string{"{}"}), core.ErrClosed)
}
