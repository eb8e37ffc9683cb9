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
	"math/rand/v2"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altoclef/cambridge/pkg/core"
)

const tick = 50 * time.Millisecond

func fixedSettle(d time.Duration) SettleFunc {
	return func() time.Duration { return d }
}

func TestHazardCommitsAfterSettle(t *testing.T) {
	h := NewHazardState(fixedSettle(time.Second))
	t0 := time.UnixMilli(0)

	assert.False(t, h.Update(true, t0))
	assert.True(t, h.Pending())
	assert.False(t, h.Update(true, t0.Add(999*time.Millisecond)))
	assert.True(t, h.Update(true, t0.Add(time.Second)))
	assert.True(t, h.Active())
	assert.False(t, h.Update(true, t0.Add(2*time.Second)), "fires once only")
}

func TestHazardRejectsFlicker(t *testing.T) {
	h := NewHazardState(fixedSettle(time.Second))
	t0 := time.UnixMilli(0)

	h.Update(true, t0)
	h.Update(false, t0.Add(500*time.Millisecond))
	assert.False(t, h.Pending())
	// pending restarts from the new onset
	assert.False(t, h.Update(true, t0.Add(900*time.Millisecond)))
	assert.False(t, h.Update(true, t0.Add(1500*time.Millisecond)))
	assert.True(t, h.Update(true, t0.Add(1900*time.Millisecond)))
}

func TestHazardStopTransition(t *testing.T) {
	h := NewHazardState(fixedSettle(800 * time.Millisecond))
	t0 := time.UnixMilli(0)
	h.Update(true, t0)
	require.True(t, h.Update(true, t0.Add(800*time.Millisecond)))

	assert.False(t, h.Update(false, t0.Add(time.Second)))
	assert.True(t, h.Update(false, t0.Add(1800*time.Millisecond)))
	assert.False(t, h.Active())
}

func TestHazardResetImmediate(t *testing.T) {
	h := NewHazardState(fixedSettle(0))
	t0 := time.UnixMilli(0)
	h.Update(true, t0)
	require.True(t, h.Update(true, t0))
	h.ResetImmediate()
	assert.False(t, h.Active())
	assert.False(t, h.Pending())
}

func TestHazardHeldFiveHundredMillisNeverFires(t *testing.T) {
	h := NewHazardState(UniformSettle(rand.New(rand.NewPCG(1, 2))))
	t0 := time.UnixMilli(0)
	for at := time.Duration(0); at <= 500*time.Millisecond; at += tick {
		require.False(t, h.Update(true, t0.Add(at)))
	}
	require.False(t, h.Update(false, t0.Add(550*time.Millisecond)))
	assert.False(t, h.Active())
}

func TestUniformSettleRange(t *testing.T) {
	draw := UniformSettle(rand.New(rand.NewPCG(7, 11)))
	for i := 0; i < 1000; i++ {
		d := draw()
		require.GreaterOrEqual(t, d, MinSettle)
		require.LessOrEqual(t, d, MaxSettle)
	}
}

func TestHazardSettleProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("signals shorter than the minimum settle window never commit", prop.ForAll(
		func(seed uint64, ticks int) bool {
			h := NewHazardState(UniformSettle(rand.New(rand.NewPCG(seed, seed^0x9e37))))
			t0 := time.UnixMilli(1_000_000)
			for i := 0; i < ticks; i++ {
				if h.Update(true, t0.Add(time.Duration(i)*tick)) {
					return false
				}
			}
			return !h.Update(false, t0.Add(time.Duration(ticks)*tick)) && !h.Active()
		},
		gen.UInt64(),
		gen.IntRange(1, 16),
	))

	properties.Property("signals held past the maximum settle window commit exactly once", prop.ForAll(
		func(seed uint64, ticks int) bool {
			h := NewHazardState(UniformSettle(rand.New(rand.NewPCG(seed, seed^0x9e37))))
			t0 := time.UnixMilli(1_000_000)
			commits := 0
			for i := 0; i < ticks; i++ {
				if h.Update(true, t0.Add(time.Duration(i)*tick)) {
					commits++
				}
			}
			return commits == 1 && h.Active()
		},
		gen.UInt64(),
		gen.IntRange(25, 200),
	))

	properties.TestingRun(t)
}

func TestProbes(t *testing.T) {
	signals := func(v core.Vitals) map[HazardKind]bool {
		out := make(map[HazardKind]bool)
		for _, p := range Probes {
			out[p.Kind] = p.Signal(v)
		}
		return out
	}

	healthy := core.Vitals{Health: 20, Air: 300, MaxAir: 300}
	for kind, on := range signals(healthy) {
		assert.False(t, on, kind)
	}

	got := signals(core.Vitals{Health: 8, Absorption: 4, Submerged: true, Air: 10, MaxAir: 300, FallDistance: 3.5, HostileNearby: true})
	assert.True(t, got[HazardLowHP])
	assert.True(t, got[HazardDrowning])
	assert.True(t, got[HazardFalling])
	assert.True(t, got[HazardCombat])
	assert.False(t, got[HazardFire])
	assert.False(t, got[HazardLava])

	assert.Equal(t, HazardCombat, Probes[0].Kind)
	assert.Equal(t, HazardLowHP, Probes[len(Probes)-1].Kind)
}
