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

import "time"

type EventType string

const (
	EventPhaseEnter      EventType = "PHASE_ENTER"
	EventPhaseExit       EventType = "PHASE_EXIT"
	EventTaskStart       EventType = "TASK_START"
	EventTaskEnd         EventType = "TASK_END"
	EventMilestone       EventType = "MILESTONE"
	EventHazard          EventType = "HAZARD"
	EventReroute         EventType = "REROUTE"
	EventStall           EventType = "STALL"
	EventDimChange       EventType = "DIM_CHANGE"
	EventHeartbeat       EventType = "HEARTBEAT"
	EventStatusNow       EventType = "STATUS_NOW"
	EventActivityContext EventType = "ACTIVITY_CONTEXT"
	EventMiniHUD         EventType = "MINI_HUD"
	EventDiagnostic      EventType = "DIAGNOSTIC"
)

type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

type eventClass struct {
	big      bool
	priority Priority
}

var eventClasses = map[EventType]eventClass{
	EventPhaseEnter:      {true, PriorityP1},
	EventPhaseExit:       {true, PriorityP2},
	EventTaskStart:       {true, PriorityP1},
	EventTaskEnd:         {true, PriorityP1},
	EventMilestone:       {false, PriorityP2},
	EventHazard:          {true, PriorityP1},
	EventReroute:         {true, PriorityP1},
	EventStall:           {true, PriorityP2},
	EventDimChange:       {true, PriorityP2},
	EventHeartbeat:       {false, PriorityP3},
	EventStatusNow:       {false, PriorityP2},
	EventActivityContext: {false, PriorityP1},
	EventMiniHUD:         {false, PriorityP3},
	EventDiagnostic:      {false, PriorityP3},
}

// EventTypes lists every known classification in declaration order.
func EventTypes() []EventType {
	return []EventType{
		EventPhaseEnter, EventPhaseExit, EventTaskStart, EventTaskEnd,
		EventMilestone, EventHazard, EventReroute, EventStall, EventDimChange,
		EventHeartbeat, EventStatusNow, EventActivityContext, EventMiniHUD,
		EventDiagnostic,
	}
}

// Big reports whether events of this type are subject to the global cooldown.
func (t EventType) Big() bool {
	return eventClasses[t].big
}

func (t EventType) DefaultPriority() Priority {
	if c, ok := eventClasses[t]; ok {
		return c.priority
	}
	return PriorityP3
}

func (t EventType) Valid() bool {
	_, ok := eventClasses[t]
	return ok
}

type Phase string

const (
	PhaseNone          Phase = ""
	PhaseOverworldPrep Phase = "OVERWORLD_PREP"
	PhaseNether        Phase = "NETHER"
	PhaseFortress      Phase = "FORTRESS"
	PhasePearls        Phase = "PEARLS"
	PhaseStronghold    Phase = "STRONGHOLD"
	PhaseEnd           Phase = "END"
)

// Label returns the phase name, or "UNKNOWN" when no phase is active.
func (p Phase) Label() string {
	if p == PhaseNone {
		return "UNKNOWN"
	}
	return string(p)
}

type DisplayMode string

const (
	DisplayNone  DisplayMode = ""
	DisplayFull  DisplayMode = "FULL"
	DisplayQuick DisplayMode = "QUICK"
)

// Event is the unit flowing through the pipeline. Payload is never nil once
// built through NewEvent. ID is zero until the event is emitted.
type Event struct {
	ID                   uint64         `json:"id"`
	TS                   int64          `json:"ts"`
	Type                 EventType      `json:"type"`
	Priority             Priority       `json:"priority,omitempty"`
	Phase                Phase          `json:"phase,omitempty"`
	Payload              map[string]any `json:"payload"`
	SuggestedMode        DisplayMode    `json:"suggested_mode,omitempty"`
	SuggestedDurationSec *int           `json:"suggested_duration_sec,omitempty"`
}

func NewEvent(t EventType, now time.Time, phase Phase, payload map[string]any) Event {
	if payload == nil {
		payload = map[string]any{}
	}
	return Event{
		TS:       now.UnixMilli(),
		Type:     t,
		Priority: t.DefaultPriority(),
		Phase:    phase,
		Payload:  payload,
	}
}

// WithSuggestedMode returns a copy carrying a display hint. A zero duration
// leaves the duration unset.
func (e Event) WithSuggestedMode(mode DisplayMode, durationSec int) Event {
	if mode == DisplayNone {
		return e
	}
	e.SuggestedMode = mode
	e.SuggestedDurationSec = nil
	if durationSec > 0 {
		d := durationSec
		e.SuggestedDurationSec = &d
	}
	return e
}

func (e Event) WithoutSuggestion() Event {
	e.SuggestedMode = DisplayNone
	e.SuggestedDurationSec = nil
	return e
}

func (e Event) WantsFullDisplay() bool {
	return e.SuggestedMode == DisplayFull
}
