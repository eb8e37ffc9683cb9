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
	"time"

	"github.com/altoclef/cambridge/pkg/core"
)

const (
	StallThreshold     = 18 * time.Second
	ProgressDistanceSq = 1.5 * 1.5
)

// StallDetector fires once per episode in which the agent holds a goal but
// does not move further than ProgressDistanceSq for Threshold.
type StallDetector struct {
	Threshold  time.Duration
	DistanceSq float64

	anchor       core.Vec3
	hasAnchor    bool
	lastProgress time.Time
	active       bool
}

func NewStallDetector() *StallDetector {
	return &StallDetector{Threshold: StallThreshold, DistanceSq: ProgressDistanceSq}
}

func (s *StallDetector) Active() bool { return s.active }

// Update returns the no-progress duration and whether a stall fired this tick.
func (s *StallDetector) Update(pos core.Vec3, known bool, goalActive bool, now time.Time) (time.Duration, bool) {
	if !known {
		s.active = false
		return 0, false
	}
	if !s.hasAnchor || pos.DistanceSq(s.anchor) > s.DistanceSq || !goalActive {
		s.anchor = pos
		s.hasAnchor = true
		s.lastProgress = now
		s.active = false
		return 0, false
	}
	stuck := now.Sub(s.lastProgress)
	if stuck >= s.Threshold && !s.active {
		s.active = true
		return stuck, true
	}
	if s.active {
		s.anchor = pos
	}
	return stuck, false
}

func (s *StallDetector) Reset() {
	s.active = false
	s.hasAnchor = false
	s.lastProgress = time.Time{}
}
