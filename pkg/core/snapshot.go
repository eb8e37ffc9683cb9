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

package core

import "math"

type Area string

const (
	AreaUnknown   Area = "UNKNOWN"
	AreaOverworld Area = "OVERWORLD"
	AreaNether    Area = "NETHER"
	AreaEnd       Area = "END"
)

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) DistanceSq(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return dx*dx + dy*dy + dz*dz
}

// ToolState describes the best pickaxe carried. The zero value means none.
type ToolState struct {
	PickTier          string `json:"pick_tier,omitempty"`
	PickDurabilityPct int    `json:"pick_dur_pct,omitempty"`
}

// Plan holds the resource targets the agent is working towards.
type Plan struct {
	RodsTarget   int  `yaml:"rods_target"`
	TargetEyes   int  `yaml:"target_eyes"`
	MinimumEyes  int  `yaml:"minimum_eyes"`
	RequiredBeds int  `yaml:"required_beds"`
	BarterPearls bool `yaml:"barter_pearls"`
}

func DefaultPlan() Plan {
	return Plan{
		RodsTarget:   6,
		TargetEyes:   14,
		MinimumEyes:  12,
		RequiredBeds: 10,
	}
}

// Target returns the configured goal for a resource key.
func (p Plan) Target(key string) (int, bool) {
	switch key {
	case "pearls", "eyes":
		return p.TargetEyes, true
	case "rods":
		return p.RodsTarget, true
	case "beds":
		return p.RequiredBeds, true
	}
	return 0, false
}

// Snapshot captures the countable state of the agent at one tick. It is a
// value type; callers never mutate a captured snapshot.
type Snapshot struct {
	Pearls     int       `json:"pearls"`
	Rods       int       `json:"rods"`
	Eyes       int       `json:"eyes"`
	Beds       int       `json:"beds"`
	Arrows     int       `json:"arrows"`
	Food       int       `json:"food"`
	Iron       int       `json:"iron"`
	Gold       int       `json:"gold"`
	Obsidian   int       `json:"obsidian"`
	Buckets    int       `json:"buckets"`
	FlintSteel int       `json:"flint_steel"`
	Tools      ToolState `json:"tools"`
}

type StatChange struct {
	Current int
	Delta   int
}

// Diff returns the scalar fields that changed since previous, keyed by wire name.
func (s Snapshot) Diff(previous Snapshot) map[string]StatChange {
	delta := make(map[string]StatChange)
	for _, f := range s.fields() {
		prev := previous.field(f.key)
		if f.value != prev {
			delta[f.key] = StatChange{Current: f.value, Delta: f.value - prev}
		}
	}
	if s.Tools != previous.Tools && s.Tools != (ToolState{}) {
		delta["tools"] = StatChange{Current: 1, Delta: 1}
	}
	return delta
}

// CrossedThresholds returns the keys whose plan target was reached between
// previous and s.
func (s Snapshot) CrossedThresholds(previous Snapshot, plan Plan) []string {
	var hit []string
	if previous.Pearls < plan.TargetEyes && s.Pearls >= plan.TargetEyes {
		hit = append(hit, "pearls")
	}
	if previous.Rods < plan.RodsTarget && s.Rods >= plan.RodsTarget {
		hit = append(hit, "rods")
	}
	if previous.Eyes < plan.MinimumEyes && s.Eyes >= plan.MinimumEyes {
		hit = append(hit, "eyes")
	}
	if previous.Beds < plan.RequiredBeds && s.Beds >= plan.RequiredBeds {
		hit = append(hit, "beds")
	}
	return hit
}

// Brief is the abbreviated view carried by heartbeats.
func (s Snapshot) Brief() map[string]any {
	return map[string]any{
		"pearls": s.Pearls,
		"rods":   s.Rods,
		"beds":   s.Beds,
		"food":   s.Food,
		"arrows": s.Arrows,
	}
}

type snapshotField struct {
	key   string
	value int
}

func (s Snapshot) fields() []snapshotField {
	return []snapshotField{
		{"pearls", s.Pearls},
		{"rods", s.Rods},
		{"eyes", s.Eyes},
		{"beds", s.Beds},
		{"arrows", s.Arrows},
		{"food", s.Food},
		{"iron", s.Iron},
		{"gold", s.Gold},
		{"obsidian", s.Obsidian},
		{"buckets", s.Buckets},
		{"flint_steel", s.FlintSteel},
	}
}

func (s Snapshot) field(key string) int {
	for _, f := range s.fields() {
		if f.key == key {
			return f.value
		}
	}
	return 0
}

// Vitals are the raw hazard probes read from the agent each tick.
type Vitals struct {
	OnFire        bool    `json:"on_fire"`
	InLava        bool    `json:"in_lava"`
	Falling       bool    `json:"falling"`
	FallDistance  float64 `json:"fall_distance"`
	Submerged     bool    `json:"submerged"`
	Air           int     `json:"air"`
	MaxAir        int     `json:"max_air"`
	Health        float64 `json:"health"`
	Absorption    float64 `json:"absorption"`
	Shielding     bool    `json:"shielding"`
	HostileNearby bool    `json:"hostile_nearby"`
}

func (v Vitals) EffectiveHealth() float64 {
	return v.Health + v.Absorption
}

func RoundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
