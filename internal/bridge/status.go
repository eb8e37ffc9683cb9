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
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/altoclef/cambridge/pkg/core"
)

const (
	statusMinInterval   = 750 * time.Millisecond
	statusForceInterval = 5 * time.Second
	goalOutcomeWindow   = 3 * time.Second
	rerouteWindow       = 6 * time.Second
	queueLookahead      = 3
	mobDefenseSummary   = "Mob Defense – Hunt nearby hostiles"
)

type StatusState string

const (
	StatusRunning   StatusState = "running"
	StatusPaused    StatusState = "paused"
	StatusStalled   StatusState = "stalled"
	StatusRerouting StatusState = "rerouting"
	StatusSuccess   StatusState = "success"
	StatusFailed    StatusState = "failed"
)

type progress struct {
	key     string
	current int
	target  int
}

func (p progress) payload() map[string]any {
	display := strconv.Itoa(p.current)
	if p.target > 0 {
		display += " / " + strconv.Itoa(p.target)
	}
	return map[string]any{
		"key":     p.key,
		"current": p.current,
		"target":  p.target,
		"display": display,
	}
}

type statusDescriptor struct {
	taskKey     string
	hint        string
	progress    progress
	hasProgress bool
}

func descriptor(key, hint string) statusDescriptor {
	return statusDescriptor{taskKey: key, hint: hint}
}

func (d statusDescriptor) withProgress(key string, current, target int) statusDescriptor {
	d.progress = progress{key: key, current: current, target: target}
	d.hasProgress = true
	return d
}

var (
	idleStatus       = descriptor("idle", "Idle")
	mobDefenseStatus = descriptor("mob_defense", "Combat – Hunt Hostiles")
)

// describeStatus picks the status for the current goal, falling back to the
// default for the phase.
func describeStatus(goal core.Goal, defense bool, snap core.Snapshot, phase core.Phase, plan core.Plan) statusDescriptor {
	if defense {
		return mobDefenseStatus
	}
	if d, ok := goalStatus(goal, snap, plan); ok {
		return d
	}
	return phaseStatus(phase, snap, plan)
}

func goalStatus(goal core.Goal, snap core.Snapshot, plan core.Plan) (statusDescriptor, bool) {
	if goal == nil {
		return statusDescriptor{}, false
	}
	switch goal.Kind() {
	case core.GoalBlazeRods:
		return descriptor("collect_rods", "Fortress – Blaze Rods").withProgress("rods", snap.Rods, plan.RodsTarget), true
	case core.GoalBarter:
		return descriptor("barter_pearls", "Nether – Bartering Pearls").withProgress("pearls", snap.Pearls, plan.TargetEyes), true
	case core.GoalEndermen:
		return descriptor("hunt_endermen", "Overworld – Hunt Endermen").withProgress("pearls", snap.Pearls, plan.TargetEyes), true
	case core.GoalStronghold:
		return descriptor("locate_stronghold", "Stronghold – Locate Portal"), true
	case core.GoalPortal:
		return descriptor("build_portal", "Overworld – Build Portal"), true
	}
	key := strings.ToLower(goal.Key())
	if goal.Kind() == core.GoalBedCycle || (strings.Contains(key, "bed") && strings.Contains(key, "cycle")) {
		return descriptor("dragon_bed_cycle", "End – Dragon Cycle").withProgress("beds", snap.Beds, plan.RequiredBeds), true
	}
	return statusDescriptor{}, false
}

func phaseStatus(phase core.Phase, snap core.Snapshot, plan core.Plan) statusDescriptor {
	switch phase {
	case core.PhaseOverworldPrep:
		return descriptor("build_portal", "Overworld – Build Portal")
	case core.PhaseFortress:
		return descriptor("collect_rods", "Fortress – Blaze Rods").withProgress("rods", snap.Rods, plan.RodsTarget)
	case core.PhasePearls:
		if plan.BarterPearls {
			return descriptor("barter_pearls", "Nether – Bartering Pearls").withProgress("pearls", snap.Pearls, plan.TargetEyes)
		}
		return descriptor("hunt_endermen", "Overworld – Hunt Endermen").withProgress("pearls", snap.Pearls, plan.TargetEyes)
	case core.PhaseNether:
		if snap.Eyes < plan.TargetEyes {
			return descriptor("craft_eyes", "Nether – Craft Eyes").withProgress("eyes", snap.Eyes, plan.TargetEyes)
		}
		return descriptor("enter_end", "Nether – Exit Prep")
	case core.PhaseStronghold:
		if snap.Eyes < plan.TargetEyes {
			return descriptor("craft_eyes", "Stronghold – Craft Eyes").withProgress("eyes", snap.Eyes, plan.TargetEyes)
		}
		return descriptor("locate_stronghold", "Stronghold – Locate Portal")
	case core.PhaseEnd:
		return descriptor("dragon_bed_cycle", "End – Dragon Cycle").withProgress("beds", snap.Beds, plan.RequiredBeds)
	}
	return idleStatus
}

// queueSupplement summarizes the goal queue for status payloads.
type queueSupplement struct {
	current    string
	future     []string
	mobDefense bool
}

func (s queueSupplement) equal(o queueSupplement) bool {
	return s.current == o.current && s.mobDefense == o.mobDefense && slices.Equal(s.future, o.future)
}

func (s queueSupplement) empty() bool {
	return s.current == "" && len(s.future) == 0 && !s.mobDefense
}

func (b *Bridge) buildSupplement() queueSupplement {
	defense := b.agent.DefenseEngaged()
	supp := queueSupplement{mobDefense: defense}
	if defense {
		supp.current = mobDefenseSummary
	} else if b.goal != nil {
		supp.current = sanitizeSummary(b.goal.Summary())
		if supp.current == "" {
			supp.current = b.goal.Key()
		}
	}

	var queue []string
	for _, s := range b.agent.QueueSummaries() {
		if clean := sanitizeSummary(s); clean != "" {
			queue = append(queue, clean)
		}
	}
	if len(queue) > 0 {
		if !defense {
			supp.current = queue[0]
		}
		if len(queue) > 1 {
			end := min(len(queue), queueLookahead+1)
			supp.future = slices.Clone(queue[1:end])
		}
	}
	return supp
}

func sanitizeSummary(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, "\n", " "))
}

// statusTracker decides when a STATUS_NOW event is due. It emits when
// something changed, no more often than statusMinInterval, and at least every
// statusForceInterval.
type statusTracker struct {
	desc          statusDescriptor
	phase         core.Phase
	state         StatusState
	startedAt     time.Time
	lastEmit      time.Time
	dirty         bool
	override      StatusState
	overrideUntil time.Time
	rerouteUntil  time.Time
	supplement    queueSupplement
}

func newStatusTracker(now time.Time) *statusTracker {
	t := &statusTracker{}
	t.reset(now)
	return t
}

func (t *statusTracker) reset(now time.Time) {
	*t = statusTracker{
		desc:      idleStatus,
		state:     StatusPaused,
		startedAt: now,
		dirty:     true,
	}
}

func (t *statusTracker) tick(next statusDescriptor, phase core.Phase, stalled bool, supp queueSupplement, now time.Time) {
	if next.taskKey != t.desc.taskKey || next.hint != t.desc.hint {
		t.desc = next
		t.startedAt = now
		t.dirty = true
		t.override = ""
		t.overrideUntil = time.Time{}
	} else if next.hasProgress != t.desc.hasProgress || next.progress != t.desc.progress {
		t.desc = next
		t.dirty = true
	}
	if !supp.equal(t.supplement) {
		t.supplement = supp
		t.dirty = true
	}
	if phase != t.phase {
		t.phase = phase
		t.dirty = true
	}
	if computed := t.compute(stalled, now); computed != t.state {
		t.state = computed
		t.dirty = true
	}
	if t.lastEmit.IsZero() || now.Sub(t.lastEmit) >= statusForceInterval {
		t.dirty = true
	}
}

func (t *statusTracker) compute(stalled bool, now time.Time) StatusState {
	if t.override != "" && !now.Before(t.overrideUntil) {
		t.override = ""
	}
	if t.override != "" {
		return t.override
	}
	if stalled {
		return StatusStalled
	}
	if t.rerouteUntil.After(now) {
		return StatusRerouting
	}
	if t.desc.taskKey == idleStatus.taskKey {
		return StatusPaused
	}
	return StatusRunning
}

func (t *statusTracker) pollEmit(now time.Time) (map[string]any, bool) {
	if !t.dirty || (!t.lastEmit.IsZero() && now.Sub(t.lastEmit) < statusMinInterval) {
		return nil, false
	}
	payload := map[string]any{"phase": t.phase.Label()}
	t.fill(payload)
	t.lastEmit = now
	t.dirty = false
	return payload, true
}

func (t *statusTracker) appendHeartbeat(payload map[string]any) {
	t.fill(payload)
}

func (t *statusTracker) fill(payload map[string]any) {
	payload["task_key"] = t.desc.taskKey
	payload["hint"] = t.desc.hint
	payload["state"] = string(t.state)
	payload["started_at"] = t.startedAt.UTC().Truncate(time.Millisecond).Format(time.RFC3339Nano)
	if t.desc.hasProgress {
		payload["progress"] = t.desc.progress.payload()
	}
	if t.supplement.empty() {
		return
	}
	queue := map[string]any{"mob_defense": t.supplement.mobDefense}
	if t.supplement.current != "" {
		queue["current"] = t.supplement.current
	}
	if len(t.supplement.future) > 0 {
		queue["future"] = slices.Clone(t.supplement.future)
	}
	payload["task_queue"] = queue
	payload["mob_defense_active"] = t.supplement.mobDefense
}

func (t *statusTracker) onGoalFinished(success bool, now time.Time) {
	t.override = StatusFailed
	if success {
		t.override = StatusSuccess
	}
	t.overrideUntil = now.Add(goalOutcomeWindow)
	t.dirty = true
}

func (t *statusTracker) onGoalStarted(now time.Time) {
	t.override = ""
	t.overrideUntil = time.Time{}
	t.startedAt = now
	t.dirty = true
}

func (t *statusTracker) onReroute(now time.Time) {
	if until := now.Add(rerouteWindow); until.After(t.rerouteUntil) {
		t.rerouteUntil = until
	}
	t.dirty = true
}
