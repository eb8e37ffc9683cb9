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

// Package replay drives the pipeline from a recorded scenario. A scenario is
// a JSON Lines file of frames; each frame replaces the observed agent state
// at its offset.
package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/altoclef/cambridge/pkg/core"
)

var ErrScenario = errors.New("invalid scenario")

// GoalFrame describes a goal handle. Frames naming the same id refer to the
// same handle.
type GoalFrame struct {
	ID       string        `json:"id"`
	Key      string        `json:"key"`
	Class    string        `json:"class"`
	Kind     core.GoalKind `json:"kind"`
	Summary  string        `json:"summary"`
	Finished bool          `json:"finished"`
	Stopped  bool          `json:"stopped"`
}

type Frame struct {
	AtMS      int64         `json:"at_ms"`
	InSession *bool         `json:"in_session"`
	Area      core.Area     `json:"area"`
	Snapshot  core.Snapshot `json:"snapshot"`
	Position  *core.Vec3    `json:"position"`
	Vitals    *core.Vitals  `json:"vitals"`
	Goal      *GoalFrame    `json:"goal"`
	// Active lists the goal chain, outermost first. Empty means just Goal.
	Active  []GoalFrame `json:"active_goals"`
	Queue   []string    `json:"queue"`
	Defense bool        `json:"defense"`
}

func (f Frame) At() time.Duration {
	return time.Duration(f.AtMS) * time.Millisecond
}

func (f Frame) validate() error {
	if f.AtMS < 0 {
		return fmt.Errorf("negative at_ms %d", f.AtMS)
	}
	switch f.Area {
	case "", core.AreaUnknown, core.AreaOverworld, core.AreaNether, core.AreaEnd:
	default:
		return fmt.Errorf("unknown area %q", f.Area)
	}
	if f.Goal != nil && f.Goal.ID == "" {
		return errors.New("goal without id")
	}
	for _, g := range f.Active {
		if g.ID == "" {
			return errors.New("active goal without id")
		}
	}
	return nil
}

// Decode reads frames until EOF. Offsets must not decrease.
func Decode(r io.Reader) ([]Frame, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var frames []Frame
	for n := 1; ; n++ {
		var f Frame
		err := dec.Decode(&f)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: frame %d: %w", ErrScenario, n, err)
		}
		if err := f.validate(); err != nil {
			return nil, fmt.Errorf("%w: frame %d: %w", ErrScenario, n, err)
		}
		if len(frames) > 0 && f.AtMS < frames[len(frames)-1].AtMS {
			return nil, fmt.Errorf("%w: frame %d: at_ms goes backwards", ErrScenario, n)
		}
		frames = append(frames, f)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrScenario)
	}
	return frames, nil
}

func Load(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
