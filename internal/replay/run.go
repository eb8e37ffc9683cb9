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

package replay

import (
	"context"
	"time"
)

// Run seeks the player along wall time and calls tick every interval. It
// returns after the tick that follows the last frame, or with the context
// error.
func Run(ctx context.Context, p *Player, interval time.Duration, tick func(context.Context)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	p.Seek(0)
	tick(ctx)
	for !p.Done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Seek(time.Since(start))
			tick(ctx)
		}
	}
	return nil
}
