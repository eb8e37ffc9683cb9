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

package bridge

import (
	"context"
	"strings"
	"time"

	"github.com/altoclef/cambridge/pkg/core"
)

type ActivityKind string

const (
	ActivityCrafting   ActivityKind = "CRAFTING"
	ActivitySmelting   ActivityKind = "SMELTING"
	ActivitySpawnWait  ActivityKind = "SPAWN_WAIT"
	ActivityContext    ActivityKind = "CONTEXT"
	ActivityStronghold ActivityKind = "STRONGHOLD"
)

var activityKinds = []ActivityKind{
	ActivityCrafting, ActivitySmelting, ActivitySpawnWait, ActivityContext, ActivityStronghold,
}

const (
	panelWindow          = 10 * time.Second
	activityQuickSec     = 4
	activityStopSec      = 2
	craftMoveLimitSq     = 4.0
	smeltMoveLimitSq     = 25.0
	stationaryDwell      = 1200 * time.Millisecond
	stationaryMoveSq     = 0.25
	contextPortalKit     = "PORTAL_KIT"
	contextInventoryTidy = "INVENTORY_TIDY"
)

type activityState struct {
	active    bool
	context   string
	anchor    core.Vec3
	hasAnchor bool
}

func (a *activityState) reset() {
	*a = activityState{}
}

// stationaryTracker reports whether the agent has stayed within a small
// radius for at least stationaryDwell.
type stationaryTracker struct {
	anchor core.Vec3
	since  time.Time
	known  bool
}

func (s *stationaryTracker) reset() {
	*s = stationaryTracker{}
}

func (s *stationaryTracker) update(pos core.Vec3, known bool, now time.Time) bool {
	if !known {
		s.reset()
		return false
	}
	if !s.known || pos.DistanceSq(s.anchor) > stationaryMoveSq {
		s.anchor = pos
		s.since = now
		s.known = true
		return false
	}
	return now.Sub(s.since) >= stationaryDwell
}

// activityMatch is what a resolver found in the goal chain for one kind.
type activityMatch struct {
	context string
	label   string
}

type activityInput struct {
	goals      []core.Goal
	stationary bool
}

func (b *Bridge) updateActivities(ctx context.Context, snap core.Snapshot, now time.Time) {
	pos, known := b.agent.Position()
	in := activityInput{
		goals:      b.agent.ActiveGoals(),
		stationary: b.stationary.update(pos, known, now),
	}
	hazard := b.anyHazardActive()

	for _, kind := range activityKinds {
		state := b.activities[kind]
		if hazard {
			if state.active {
				b.stopActivity(ctx, kind, state, "hazard", now)
			}
			continue
		}

		match, ok := resolveActivity(kind, in)
		switch {
		case ok && !state.active:
			b.startActivity(ctx, kind, state, match, pos, known, now)
		case ok && match.context != state.context:
			b.stopActivity(ctx, kind, state, "task_end", now)
			b.startActivity(ctx, kind, state, match, pos, known, now)
		case !ok && state.active:
			b.stopActivity(ctx, kind, state, stopReason(kind, state, in, pos, known), now)
		}
	}
	b.emitMiniHUD(ctx, snap, now)
}

func (b *Bridge) startActivity(ctx context.Context, kind ActivityKind, state *activityState, match activityMatch, pos core.Vec3, known bool, now time.Time) {
	state.active = true
	state.context = match.context
	state.anchor, state.hasAnchor = pos, known

	payload := map[string]any{
		"activity": string(kind),
		"state":    "start",
		"label":    match.label,
	}
	if match.context != "" {
		payload["context"] = match.context
	}
	e := core.NewEvent(core.EventActivityContext, now, b.phase, payload)
	if b.lastPanel.IsZero() || now.Sub(b.lastPanel) >= panelWindow {
		b.lastPanel = now
		e = e.WithSuggestedMode(core.DisplayFull, 0)
	} else {
		e = e.WithSuggestedMode(core.DisplayQuick, activityQuickSec)
	}
	b.emit(ctx, e, now)
}

func (b *Bridge) stopActivity(ctx context.Context, kind ActivityKind, state *activityState, reason string, now time.Time) {
	payload := map[string]any{
		"activity": string(kind),
		"state":    "stop",
		"reason":   reason,
	}
	if state.context != "" {
		payload["context"] = state.context
	}
	state.reset()
	e := core.NewEvent(core.EventActivityContext, now, b.phase, payload)
	b.emit(ctx, e.WithSuggestedMode(core.DisplayQuick, activityStopSec), now)
}

func stopReason(kind ActivityKind, state *activityState, in activityInput, pos core.Vec3, known bool) string {
	moved := func(limitSq float64) bool {
		return state.hasAnchor && known && pos.DistanceSq(state.anchor) > limitSq
	}
	switch kind {
	case ActivityCrafting:
		if moved(craftMoveLimitSq) {
			return "moved"
		}
		return "complete"
	case ActivitySmelting:
		if moved(smeltMoveLimitSq) {
			return "abandoned"
		}
		return "complete"
	case ActivityContext:
		if !in.stationary && state.context != contextPortalKit {
			return "movement"
		}
	}
	return "task_end"
}

func resolveActivity(kind ActivityKind, in activityInput) (activityMatch, bool) {
	switch kind {
	case ActivityCrafting:
		return resolveCrafting(in.goals)
	case ActivitySmelting:
		return resolveSmelting(in.goals)
	case ActivitySpawnWait:
		return resolveSpawnWait(in.goals)
	case ActivityContext:
		return resolveContext(in.goals, in.stationary)
	case ActivityStronghold:
		if hasKind(in.goals, core.GoalStronghold) {
			return activityMatch{context: "STRONGHOLD_TRIANGULATE", label: "Triangulating stronghold"}, true
		}
	}
	return activityMatch{}, false
}

func resolveCrafting(goals []core.Goal) (activityMatch, bool) {
	for _, g := range goals {
		key := strings.ToLower(g.Key())
		if g.Kind() != core.GoalCraft && !(strings.Contains(key, "craft") && !strings.Contains(key, "squash")) {
			continue
		}
		return activityMatch{label: craftLabel(key)}, true
	}
	return activityMatch{}, false
}

func craftLabel(key string) string {
	switch {
	case strings.Contains(key, "bed"):
		return "beds"
	case strings.Contains(key, "eye"):
		return "eyes"
	case strings.Contains(key, "portal"):
		return "portal_kit"
	case strings.Contains(key, "pickaxe"), strings.Contains(key, "sword"),
		strings.Contains(key, "axe"), strings.Contains(key, "tool"):
		return "tools"
	}
	return "generic"
}

func resolveSmelting(goals []core.Goal) (activityMatch, bool) {
	for _, g := range goals {
		key := strings.ToLower(g.Key())
		switch {
		case g.Kind() == core.GoalSmoke || strings.Contains(key, "smoke"):
			return activityMatch{label: "cooking"}, true
		case g.Kind() == core.GoalSmelt || strings.Contains(key, "smelt"):
			return activityMatch{label: "smelting"}, true
		}
	}
	return activityMatch{}, false
}

func resolveSpawnWait(goals []core.Goal) (activityMatch, bool) {
	switch {
	case hasKind(goals, core.GoalBlazeRods):
		return activityMatch{context: "FORTRESS_BLAZE", label: "Waiting for blaze spawns"}, true
	case hasKind(goals, core.GoalEndermen):
		return activityMatch{context: "HUNT_ENDERMEN", label: "Waiting for endermen"}, true
	case hasKind(goals, core.GoalBarter):
		return activityMatch{context: "BARTER_PEARLS", label: "Waiting on piglin barters"}, true
	}
	return activityMatch{}, false
}

func resolveContext(goals []core.Goal, stationary bool) (activityMatch, bool) {
	for _, g := range goals {
		if g.Kind() == core.GoalPortal || strings.Contains(strings.ToLower(g.Key()), "portal") {
			return activityMatch{context: contextPortalKit, label: "Assembling portal kit"}, true
		}
	}
	if !stationary {
		return activityMatch{}, false
	}
	for _, g := range goals {
		if g.Kind() == core.GoalInventory || mentionsInventory(g.Key()) || mentionsInventory(g.Summary()) {
			return activityMatch{context: contextInventoryTidy, label: "Organizing inventory"}, true
		}
	}
	return activityMatch{}, false
}

func mentionsInventory(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "inventory") || strings.Contains(s, "organize") || strings.Contains(s, "sorting")
}

func hasKind(goals []core.Goal, kind core.GoalKind) bool {
	for _, g := range goals {
		if g.Kind() == kind {
			return true
		}
	}
	return false
}
