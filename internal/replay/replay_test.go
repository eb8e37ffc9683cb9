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
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altoclef/cambridge/pkg/core"
)

const scenario = `{"at_ms": 0, "area": "OVERWORLD", "position": {"x": 1, "y": 64, "z": 2}}
{"at_ms": 100, "area": "OVERWORLD", "snapshot": {"pearls": 3}, "goal": {"id": "g1", "key": "craft_beds", "kind": "craft", "summary": "beds"}, "queue": ["beds", "eyes"]}
{"at_ms": 200, "area": "NETHER", "goal": {"id": "g1", "key": "craft_beds", "kind": "craft", "finished": true}, "active_goals": [{"id": "root", "key": "beat_game"}, {"id": "g1", "key": "craft_beds", "kind": "craft"}]}
{"at_ms": 300, "in_session": false, "vitals": {"health": 4, "on_fire": true}}
`

func TestDecode(t *testing.T) {
	frames, err := Decode(strings.NewReader(scenario))
	require.NoError(t, err)
	require.Len(t, frames, 4)
	assert.Equal(t, 200*time.Millisecond, frames[2].At())
	assert.Equal(t, 3, frames[1].Snapshot.Pearls)
	require.NotNil(t, frames[0].Position)
	assert.Equal(t, core.Vec3{X: 1, Y: 64, Z: 2}, *frames[0].Position)
	assert.Equal(t, core.GoalCraft, frames[1].Goal.Kind)
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"syntax":        `{"at_ms": `,
		"unknown field": `{"at_ms": 0, "colour": "red"}`,
		"backwards":     "{\"at_ms\": 10}\n{\"at_ms\": 5}",
		"bad area":      `{"area": "MOON"}`,
		"goal no id":    `{"goal": {"key": "x"}}`,
		"negative":      `{"at_ms": -1}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(input))
			assert.ErrorIs(t, err, ErrScenario)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(scenario), 0o644))
	frames, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, frames, 4)

	_, err = Load(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}

func TestPlayerFollowsFrames(t *testing.T) {
	frames, err := Decode(strings.NewReader(scenario))
	require.NoError(t, err)
	p := NewPlayer(frames)

	assert.False(t, p.InSession(), "nothing applied yet")
	assert.Equal(t, 1, p.Seek(0))
	assert.True(t, p.InSession())
	assert.Equal(t, core.AreaOverworld, p.CurrentArea())
	pos, ok := p.Position()
	assert.True(t, ok)
	assert.Equal(t, 64.0, pos.Y)
	assert.Nil(t, p.CurrentGoal())
	assert.Empty(t, p.ActiveGoals())

	assert.Equal(t, 1, p.Seek(150*time.Millisecond))
	first := p.CurrentGoal()
	require.NotNil(t, first)
	assert.Equal(t, "craft_beds", first.Key())
	assert.False(t, first.Finished())
	assert.Equal(t, []string{"beds", "eyes"}, p.QueueSummaries())
	assert.Len(t, p.ActiveGoals(), 1)
	_, ok = p.Position()
	assert.False(t, ok, "frames without a position clear it")

	assert.Equal(t, 1, p.Seek(250*time.Millisecond))
	second := p.CurrentGoal()
	assert.True(t, first == second, "same id keeps the same handle")
	assert.True(t, first.Finished())
	active := p.ActiveGoals()
	require.Len(t, active, 2)
	assert.Equal(t, "beat_game", active[0].Key())
	assert.True(t, active[1] == first)
	assert.Equal(t, core.AreaNether, p.CurrentArea())
	assert.Equal(t, 20.0, p.Vitals().Health)

	assert.False(t, p.Done())
	assert.Equal(t, 1, p.Seek(time.Second))
	assert.True(t, p.Done())
	assert.False(t, p.InSession())
	assert.Equal(t, core.AreaUnknown, p.CurrentArea())
	assert.True(t, p.Vitals().OnFire)
	assert.Equal(t, 300*time.Millisecond, p.Duration())
}

func TestRun(t *testing.T) {
	frames, err := Decode(strings.NewReader("{\"at_ms\": 0}\n{\"at_ms\": 30}"))
	require.NoError(t, err)
	p := NewPlayer(frames)

	ticks := 0
	require.NoError(t, Run(context.Background(), p, 5*time.Millisecond, func(context.Context) { ticks++ }))
	assert.True(t, p.Done())
	assert.GreaterOrEqual(t, ticks, 2)
}

func TestRunStopsOnCancel(t *testing.T) {
	frames, err := Decode(strings.NewReader("{\"at_ms\": 0}\n{\"at_ms\": 60000}"))
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = Run(ctx, NewPlayer(frames), 5*time.Millisecond, func(context.Context) {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
