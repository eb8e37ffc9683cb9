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
)

type BatchLogger struct {
	logger *slog.Logger
}

func NewBatchLogger(logger *slog.Logger) *BatchLogger {
	return &BatchLogger{logger: logger}
}

// Log records one dispatched batch at debug level.
func (b *BatchLogger) Log(transport string, lines []string, firstID, lastID uint64) {
	if !b.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	size := 0
	for _, l := range lines {
		size += len(l)
	}
	b.logger.Debug("batch",
		"transport", transport,
		"lines", len(lines),
		"bytes", size,
		"first_id", firstID,
		"last_id", lastID,
	)
}
