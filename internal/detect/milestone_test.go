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
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altoclef/cambridge/pkg/core"
)

func TestAccumulatorCoalescesRepeatedSnapshots(t *testing.T) {
	acc := NewAccumulator()
	plan := core.DefaultPlan()
	t0 := time.UnixMilli(0)

	prev := core.Snapshot{}
	cur := core.Snapshot{Food: 5}
	acc.Record(cur.Diff(prev), cur.CrossedThresholds(prev, plan), t0)

	again := cur
	acc.Record(again.Diff(cur), again.CrossedThresholds(cur, plan), t0.Add(100*time.Millisecond))

	_, ok := acc.FlushIfReady(t0.Add(500*time.Millisecond), plan)
	require.False(t, ok, "inactivity window still open")

	payload, ok := acc.FlushIfReady(t0.Add(600*time.Millisecond), plan)
	require.True(t, ok)
	items := payload["milestones"].([]map[string]any)
	require.Len(t, items, 1)
	assert.Equal(t, "food", items[0]["key"])
	assert.Equal(t, 5, items[0]["current"])
	assert.Equal(t, 5, items[0]["delta"])
	assert.NotContains(t, items[0], "target")
	assert.Equal(t, int64(0), payload["duration_ms"])
	assert.False(t, acc.Active())

	_, ok = acc.FlushIfReady(t0.Add(5*time.Second), plan)
	assert.False(t, ok, "flush happens once")
}

func TestAccumulatorTargets(t *testing.T) {
	acc := NewAccumulator()
	plan := core.DefaultPlan()
	t0 := time.UnixMilli(0)

	prev := core.Snapshot{Rods: 5}
	cur := core.Snapshot{Rods: 6}
	acc.Record(cur.Diff(prev), cur.CrossedThresholds(prev, plan), t0)

	payload, ok := acc.FlushIfReady(t0.Add(time.Second), plan)
	require.True(t, ok)
	item := payload["milestones"].([]map[string]any)[0]
	assert.Equal(t, 6, item["target"])
	assert.Equal(t, true, item["target_met"])
}

func TestAccumulatorDropsNetZero(t *testing.T) {
	acc := NewAccumulator()
	plan := core.DefaultPlan()
	t0 := time.UnixMilli(0)

	acc.Record(map[string]core.StatChange{"iron": {Current: 3, Delta: 3}}, nil, t0)
	acc.Record(map[string]core.StatChange{"iron": {Current: 0, Delta: -3}}, nil, t0.Add(50*time.Millisecond))

	_, ok := acc.FlushIfReady(t0.Add(time.Second), plan)
	assert.False(t, ok)
	assert.False(t, acc.Active(), "empty batch still resets")
}

func TestAccumulatorMaxWindow(t *testing.T) {
	acc := NewAccumulator()
	plan := core.DefaultPlan()
	t0 := time.UnixMilli(0)

	var flushedAt time.Duration
	for at := time.Duration(0); at <= 5*time.Second; at += 100 * time.Millisecond {
		acc.Record(map[string]core.StatChange{"arrows": {Current: int(at / time.Millisecond), Delta: 1}}, nil, t0.Add(at))
		if _, ok := acc.FlushIfReady(t0.Add(at), plan); ok {
			flushedAt = at
			break
		}
	}
	assert.Equal(t, MilestoneMaxWindow, flushedAt)
}

func TestAccumulatorWindowProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("batches respect inactivity and max windows", prop.ForAll(
		func(changes []bool) bool {
			acc := NewAccumulator()
			plan := core.DefaultPlan()
			t0 := time.UnixMilli(0)
			counter := 0
			var first, last time.Time

			step := func(now time.Time, changed bool) bool {
				if changed {
					if !acc.Active() {
						first = now
					}
					counter++
					last = now
					acc.Record(map[string]core.StatChange{"pearls": {Current: counter, Delta: 1}}, nil, now)
				}
				payload, ok := acc.FlushIfReady(now, plan)
				if !ok {
					return true
				}
				if now.Sub(first) > MilestoneMaxWindow {
					return false
				}
				return payload["duration_ms"].(int64) <= MilestoneMaxWindow.Milliseconds()
			}

			i := 0
			for ; i < len(changes); i++ {
				if !step(t0.Add(time.Duration(i)*tick), changes[i]) {
					return false
				}
			}
			for ; acc.Active(); i++ {
				now := t0.Add(time.Duration(i) * tick)
				if !step(now, false) {
					return false
				}
				if acc.Active() && now.Sub(last) >= MilestoneInactivity {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(120, gen.Bool()),
	))

	properties.TestingRun(t)
}
