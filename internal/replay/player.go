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
	"slices"
	"time"

	"github.com/altoclef/cambridge/pkg/core"
)

type goal struct {
	frame GoalFrame
}

func (g *goal) Key() string         { return g.frame.Key }
func (g *goal) Class() string       { return g.frame.Class }
func (g *goal) Kind() core.GoalKind { return g.frame.Kind }
func (g *goal) Summary() string     { return g.frame.Summary }
func (g *goal) Finished() bool      { return g.frame.Finished }
func (g *goal) Stopped() bool       { return g.frame.Stopped }

// Player is an Agent whose state follows a scenario. Seek and the Agent
// methods must be called from the same goroutine.
type Player struct {
	frames  []Frame
	next    int
	goals   map[string]*goal
	current Frame
	goal    core.Goal
	active  []core.Goal
	pos     core.Vec3
	hasPos  bool
	vitals  core.Vitals
	session bool
}

func NewPlayer(frames []Frame) *Player {
	return &Player{
		frames: slices.Clone(frames),
		goals:  make(map[string]*goal),
		vitals: core.Vitals{Health: 20, Air: 300, MaxAir: 300},
	}
}

// Seek applies every frame whose offset is at or before elapsed and reports
// how many were applied.
func (p *Player) Seek(elapsed time.Duration) int {
	applied := 0
	for p.next < len(p.frames) && p.frames[p.next].At() <= elapsed {
		p.apply(p.frames[p.next])
		p.next++
		applied++
	}
	return applied
}

// Done reports whether every frame has been applied.
func (p *Player) Done() bool {
	return p.next >= len(p.frames)
}

// Duration is the offset of the last frame.
func (p *Player) Duration() time.Duration {
	if len(p.frames) == 0 {
		return 0
	}
	return p.frames[len(p.frames)-1].At()
}

func (p *Player) apply(f Frame) {
	p.current = f
	p.session = f.InSession == nil || *f.InSession
	if f.Position != nil {
		p.pos, p.hasPos = *f.Position, true
	} else {
		p.hasPos = false
	}
	if f.Vitals != nil {
		p.vitals = *f.Vitals
	}

	p.active = p.active[:0]
	for _, g := range f.Active {
		p.active = append(p.active, p.handle(g))
	}
	// The current goal entry wins over a chain entry with the same id.
	p.goal = nil
	if f.Goal != nil {
		p.goal = p.handle(*f.Goal)
	}
	if len(p.active) == 0 && p.goal != nil {
		p.active = append(p.active, p.goal)
	}
}

// handle returns the stable handle for a goal id, refreshing its state.
func (p *Player) handle(f GoalFrame) core.Goal {
	g, ok := p.goals[f.ID]
	if !ok {
		g = &goal{}
		p.goals[f.ID] = g
	}
	g.frame = f
	return g
}

func (p *Player) InSession() bool                { return p.session }
func (p *Player) CaptureSnapshot() core.Snapshot { return p.current.Snapshot }
func (p *Player) Position() (core.Vec3, bool)    { return p.pos, p.hasPos }
func (p *Player) Vitals() core.Vitals            { return p.vitals }
func (p *Player) CurrentGoal() core.Goal         { return p.goal }
func (p *Player) DefenseEngaged() bool           { return p.current.Defense }

func (p *Player) CurrentArea() core.Area {
	if p.current.Area == "" {
		return core.AreaUnknown
	}
	return p.current.Area
}

func (p *Player) ActiveGoals() []core.Goal {
	return slices.Clone(p.active)
}

func (p *Player) QueueSummaries() []string {
	return slices.Clone(p.current.Queue)
}
