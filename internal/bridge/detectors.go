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
	"time"

	"github.com/altoclef/cambridge/internal/detect"
	"github.com/altoclef/cambridge/pkg/core"
)

const (
	phaseEnterDisplaySec = 8
	taskStartDisplaySec  = 5
	taskFailDisplaySec   = 6
	dimChangeDisplaySec  = 4
	statusDisplaySec     = 2
)

func (b *Bridge) updateDimension(ctx context.Context, area core.Area, now time.Time) {
	if b.hasArea && area == b.lastArea {
		return
	}
	b.lastArea = area
	b.hasArea = true
	e := core.NewEvent(core.EventDimChange, now, b.phase, map[string]any{"dimension": string(area)})
	b.emit(ctx, e.WithSuggestedMode(core.DisplayQuick, dimChangeDisplaySec), now)
}

func (b *Bridge) updatePhase(ctx context.Context, snap core.Snapshot, area core.Area, now time.Time) {
	detected := detect.DetectPhase(snap, area, b.plan)
	if detected == b.phase {
		return
	}
	previous := b.phase
	b.phase = detected
	if previous != core.PhaseNone {
		b.emit(ctx, core.NewEvent(core.EventPhaseExit, now, previous, nil), now)
	}
	if detected == core.PhaseNone {
		return
	}
	goldPlan := "hunt"
	if b.plan.BarterPearls {
		goldPlan = "barter"
	}
	payload := map[string]any{
		"shopping": map[string]any{
			"rods_target":   b.plan.RodsTarget,
			"pearls_target": b.plan.TargetEyes,
			"beds_target":   b.plan.RequiredBeds,
			"gold_plan":     goldPlan,
		},
	}
	e := core.NewEvent(core.EventPhaseEnter, now, detected, payload)
	b.emit(ctx, e.WithSuggestedMode(core.DisplayFull, phaseEnterDisplaySec), now)
}

// updateGoal compares goal handles by identity.
func (b *Bridge) updateGoal(ctx context.Context, now time.Time) {
	current := b.agent.CurrentGoal()
	if current == b.goal {
		return
	}
	previous := b.goal
	b.goal = current

	if previous != nil {
		success := previous.Finished() && !previous.Stopped()
		b.status.onGoalFinished(success, now)
		payload := map[string]any{
			"task_key":   previous.Key(),
			"task_class": previous.Class(),
			"success":    success,
		}
		e := core.NewEvent(core.EventTaskEnd, now, b.phase, payload)
		if !success {
			reason := "unknown"
			if previous.Stopped() {
				reason = "stopped"
			}
			payload["reason"] = reason
			e = e.WithSuggestedMode(core.DisplayFull, taskFailDisplaySec)
		}
		b.emit(ctx, e, now)
	}

	if current != nil {
		b.status.onGoalStarted(now)
		payload := map[string]any{
			"task_key":   current.Key(),
			"task_class": current.Class(),
			"task_debug": current.Summary(),
		}
		e := core.NewEvent(core.EventTaskStart, now, b.phase, payload)
		b.emit(ctx, e.WithSuggestedMode(core.DisplayQuick, taskStartDisplaySec), now)
	}
}

func (b *Bridge) updateMilestones(ctx context.Context, snap core.Snapshot, now time.Time) {
	if !b.hasSnap {
		return
	}
	if delta := snap.Diff(b.lastSnap); len(delta) > 0 {
		b.milestone.Record(delta, snap.CrossedThresholds(b.lastSnap, b.plan), now)
	}
	if payload, ok := b.milestone.FlushIfReady(now, b.plan); ok {
		b.emit(ctx, core.NewEvent(core.EventMilestone, now, b.phase, payload), now)
	}
}

func (b *Bridge) updateHazards(ctx context.Context, now time.Time) {
	vitals := b.agent.Vitals()
	for _, probe := range detect.Probes {
		state := b.hazards[probe.Kind]
		if !state.Update(probe.Signal(vitals), now) {
			continue
		}
		transition := "stop"
		if state.Active() {
			transition = "start"
		}
		payload := map[string]any{
			"hazard": string(probe.Kind),
			"state":  transition,
		}
		if probe.Kind == detect.HazardLowHP {
			payload["health"] = core.RoundOneDecimal(vitals.EffectiveHealth())
		}
		b.emit(ctx, core.NewEvent(core.EventHazard, now, b.phase, payload), now)

		if probe.Kind == detect.HazardLava && state.Active() {
			reroute := core.NewEvent(core.EventReroute, now, b.phase, map[string]any{"reason": "lava_blocked_path"})
			b.emit(ctx, reroute, now)
			b.status.onReroute(now)
		}
	}
}

func (b *Bridge) anyHazardActive() bool {
	for _, h := range b.hazards {
		if h.Active() {
			return true
		}
	}
	return false
}

func (b *Bridge) updateStall(ctx context.Context, snap core.Snapshot, area core.Area, now time.Time) {
	pos, known := b.agent.Position()
	stuck, fired := b.stall.Update(pos, known, b.goal != nil, now)
	if !fired {
		return
	}
	var near any
	if label := detect.InferStallContext(snap, area, b.plan); label != "" {
		near = label
	}
	payload := map[string]any{
		"duration_sec": core.RoundOneDecimal(stuck.Seconds()),
		"near":         near,
	}
	b.emit(ctx, core.NewEvent(core.EventStall, now, b.phase, payload), now)
}

func (b *Bridge) updateStatus(ctx context.Context, snap core.Snapshot, now time.Time) {
	desc := describeStatus(b.goal, b.agent.DefenseEngaged(), snap, b.phase, b.plan)
	supp := b.buildSupplement()
	b.status.tick(desc, b.phase, b.stall.Active(), supp, now)
	if payload, ok := b.status.pollEmit(now); ok {
		e := core.NewEvent(core.EventStatusNow, now, b.phase, payload)
		b.emit(ctx, e.WithSuggestedMode(core.DisplayQuick, statusDisplaySec), now)
	}
}

func (b *Bridge) emitHeartbeat(ctx context.Context, snap core.Snapshot, now time.Time) {
	if now.Sub(b.lastHeartbeat) < HeartbeatInterval {
		return
	}
	b.lastHeartbeat = now
	payload := map[string]any{
		"phase": b.phase.Label(),
		"brief": snap.Brief(),
	}
	b.status.appendHeartbeat(payload)
	b.emit(ctx, core.NewEvent(core.EventHeartbeat, now, b.phase, payload), now)
}

func (b *Bridge) emitMiniHUD(ctx context.Context, snap core.Snapshot, now time.Time) {
	if now.Sub(b.lastMiniHUD) < MiniHUDInterval {
		return
	}
	b.lastMiniHUD = now
	payload := map[string]any{
		"pearls":     snap.Pearls,
		"rods":       snap.Rods,
		"beds":       snap.Beds,
		"food":       snap.Food,
		"arrows":     snap.Arrows,
		"phase_slot": detect.PhaseSlot(b.phase),
	}
	b.emit(ctx, core.NewEvent(core.EventMiniHUD, now, b.phase, payload), now)
}
