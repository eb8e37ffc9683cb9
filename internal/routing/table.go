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

package routing

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/altoclef/cambridge/pkg/core"
)

type Mode string

const (
	ModeFull       Mode = "full"
	ModeStatusOnly Mode = "status_only"
)

// ParseMode accepts the emission mode names used in config. Anything
// unrecognised means full.
func ParseMode(raw string) Mode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "status", "status-only", "status_only", "lite", "light", "minimal":
		return ModeStatusOnly
	}
	return ModeFull
}

var statusOnlyAllowed = map[core.EventType]bool{
	core.EventStatusNow:  true,
	core.EventHeartbeat:  true,
	core.EventDiagnostic: true,
	core.EventTaskStart:  true,
	core.EventTaskEnd:    true,
}

const (
	ReasonMode = "mode"
	ReasonMute = "mute"
)

// Rule mutes one event type.
type Rule struct {
	Type   core.EventType
	Reason string
}

// Table decides which event types may be emitted. Readers never observe a
// partially replaced rule set.
type Table struct {
	mu    sync.Mutex
	rules atomic.Pointer[map[core.EventType]*Rule]
}

func NewTable() *Table {
	t := &Table{}
	empty := map[core.EventType]*Rule{}
	t.rules.Store(&empty)
	return t
}

func (t *Table) Add(rule *Rule) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := t.clone()
	next[rule.Type] = rule
	t.rules.Store(&next)
}

func (t *Table) Remove(et core.EventType) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := t.clone()
	delete(next, et)
	t.rules.Store(&next)
}

func (t *Table) Lookup(et core.EventType) (*Rule, bool) {
	r, ok := (*t.rules.Load())[et]
	return r, ok
}

// Allowed reports whether events of type et pass the filter.
func (t *Table) Allowed(et core.EventType) bool {
	_, muted := t.Lookup(et)
	return !muted
}

func (t *Table) ReplaceAll(rules []*Rule) {
	next := make(map[core.EventType]*Rule, len(rules))
	for _, r := range rules {
		next[r.Type] = r
	}
	t.mu.Lock()
	t.rules.Store(&next)
	t.mu.Unlock()
}

func (t *Table) Len() int {
	return len(*t.rules.Load())
}

func (t *Table) clone() map[core.EventType]*Rule {
	cur := *t.rules.Load()
	next := make(map[core.EventType]*Rule, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	return next
}

// BuildRules derives the rule set for a mode plus an explicit mute list.
// Unknown type names in mute are returned separately.
func BuildRules(mode Mode, mute []string) (rules []*Rule, unknown []string) {
	seen := make(map[core.EventType]bool)
	if mode == ModeStatusOnly {
		for _, et := range core.EventTypes() {
			if !statusOnlyAllowed[et] {
				rules = append(rules, &Rule{Type: et, Reason: ReasonMode})
				seen[et] = true
			}
		}
	}
	for _, raw := range mute {
		et := core.EventType(strings.ToUpper(strings.TrimSpace(raw)))
		if !et.Valid() {
			unknown = append(unknown, raw)
			continue
		}
		if seen[et] {
			continue
		}
		seen[et] = true
		rules = append(rules, &Rule{Type: et, Reason: ReasonMute})
	}
	return rules, unknown
}
