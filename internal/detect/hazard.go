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
	"time"

	"github.com/altoclef/cambridge/pkg/core"
)

const (
	MinSettle = 800 * time.Millisecond
	MaxSettle = 1200 * time.Millisecond
)

// SettleFunc draws the settle window for a new pending transition.
type SettleFunc func() time.Duration

// UniformSettle draws uniformly from [MinSettle, MaxSettle] in whole
// milliseconds. A nil source uses the global generator.
func UniformSettle(r *rand.Rand) SettleFunc {
	span := int((MaxSettle - MinSettle) / time.Millisecond)
	return func() time.Duration {
		var n int
		if r == nil {
			n = rand.IntN(span + 1)
		} else {
			n = r.IntN(span + 1)
		}
		return MinSettle + time.Duration(n)*time.Millisecond
	}
}

// HazardState debounces one boolean hazard signal. Update returns true exactly
// once per committed transition.
type HazardState struct {
	active       bool
	pending      bool
	pendingValue bool
	pendingSince time.Time
	settle       time.Duration
	draw         SettleFunc
}

func NewHazardState(draw SettleFunc) *HazardState {
	if draw == nil {
		draw = UniformSettle(nil)
	}
	return &HazardState{draw: draw}
}

func (h *HazardState) Update(signal bool, now time.Time) bool {
	if signal == h.active {
		h.pending = false
		return false
	}
	if !h.pending || h.pendingValue != signal {
		h.pending = true
		h.pendingValue = signal
		h.pendingSince = now
		h.settle = h.draw()
		return false
	}
	if now.Sub(h.pendingSince) >= h.settle {
		h.active = signal
		h.pending = false
		return true
	}
	return false
}

func (h *HazardState) Active() bool  { return h.active }
func (h *HazardState) Pending() bool { return h.pending }

// ResetImmediate forces the quiet state without reporting a transition.
func (h *HazardState) ResetImmediate() {
	h.active = false
	h.pending = false
}

type HazardKind string

const (
	HazardCombat   HazardKind = "COMBAT"
	HazardFire     HazardKind = "FIRE"
	HazardLava     HazardKind = "LAVA"
	HazardFalling  HazardKind = "FALLING"
	HazardDrowning HazardKind = "DROWNING"
	HazardLowHP    HazardKind = "LOW_HP"
)

const (
	fallDistanceLimit = 3.0
	lowHealthLimit    = 12.0
)

// Probe computes the raw signal for one hazard kind.
type Probe struct {
	Kind   HazardKind
	Signal func(v core.Vitals) bool
}

// Probes is the fixed evaluation order of hazard kinds.
var Probes = []Probe{
	{HazardCombat, func(v core.Vitals) bool { return v.Shielding || v.HostileNearby }},
	{HazardFire, func(v core.Vitals) bool { return v.OnFire }},
	{HazardLava, func(v core.Vitals) bool { return v.InLava }},
	{HazardFalling, func(v core.Vitals) bool { return v.Falling || v.FallDistance > fallDistanceLimit }},
	{HazardDrowning, func(v core.Vitals) bool { return v.Submerged && v.Air < v.MaxAir }},
	{HazardLowHP, func(v core.Vitals) bool { return v.EffectiveHealth() <= lowHealthLimit }},
}
