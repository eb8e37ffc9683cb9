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

package detect

import (
	"sort"
	"time"

	"github.com/altoclef/cambridge/pkg/core"
)

const (
	MilestoneInactivity = 600 * time.Millisecond
	MilestoneMaxWindow  = 2400 * time.Millisecond
)

// Accumulator coalesces resource changes into one milestone payload. A batch
// opens on the first recorded change and flushes once it has been quiet for
// Inactivity or has been open for MaxWindow.
type Accumulator struct {
	Inactivity time.Duration
	MaxWindow  time.Duration

	latest  map[string]int
	totals  map[string]int
	crossed map[string]struct{}
	active  bool
	first   time.Time
	last    time.Time
}

func NewAccumulator() *Accumulator {
	a := &Accumulator{
		Inactivity: MilestoneInactivity,
		MaxWindow:  MilestoneMaxWindow,
	}
	a.Reset()
	return a
}

func (a *Accumulator) Active() bool { return a.active }

func (a *Accumulator) Record(delta map[string]core.StatChange, thresholds []string, now time.Time) {
	if len(delta) == 0 {
		return
	}
	if !a.active {
		a.active = true
		a.first = now
	}
	a.last = now
	for key, change := range delta {
		a.latest[key] = change.Current
		a.totals[key] += change.Delta
	}
	for _, tag := range thresholds {
		a.crossed[tag] = struct{}{}
	}
}

// FlushIfReady returns the coalesced payload when the batch is due. The
// accumulator is empty afterwards even when no payload is produced.
func (a *Accumulator) FlushIfReady(now time.Time, plan core.Plan) (map[string]any, bool) {
	if !a.active {
		return nil, false
	}
	if now.Sub(a.last) < a.Inactivity && now.Sub(a.first) < a.MaxWindow {
		return nil, false
	}

	keys := make([]string, 0, len(a.latest))
	for key := range a.latest {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	items := make([]map[string]any, 0, len(keys))
	for _, key := range keys {
		current := a.latest[key]
		delta := a.totals[key]
		_, reached := a.crossed[key]
		if delta == 0 && !reached {
			continue
		}
		item := map[string]any{
			"key":     key,
			"current": current,
			"delta":   delta,
		}
		if target, ok := plan.Target(key); ok {
			item["target"] = target
			item["target_met"] = reached || current >= target
		} else if reached {
			item["target_met"] = true
		}
		items = append(items, item)
	}

	duration := a.last.Sub(a.first).Milliseconds()
	a.Reset()
	if len(items) == 0 {
		return nil, false
	}
	return map[string]any{
		"milestones":  items,
		"duration_ms": max(duration, 0),
	}, true
}

func (a *Accumulator) Reset() {
	a.active = false
	a.latest = make(map[string]int)
	a.totals = make(map[string]int)
	a.crossed = make(map[string]struct{})
	a.first = time.Time{}
	a.last = time.Time{}
}
