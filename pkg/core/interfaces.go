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

import "context"

// Transport is a sink for serialized event lines. SendBatch reports success or
// failure for the whole batch. Close is idempotent.
type Transport interface {
	Name() string
	Type() string
	SendBatch(ctx context.Context, lines []string) error
	Healthy() bool
	Close() error
}

type GoalKind string

const (
	GoalOther      GoalKind = ""
	GoalCraft      GoalKind = "craft"
	GoalSmelt      GoalKind = "smelt"
	GoalSmoke      GoalKind = "smoke"
	GoalPortal     GoalKind = "portal"
	GoalInventory  GoalKind = "inventory"
	GoalBlazeRods  GoalKind = "blaze_rods"
	GoalEndermen   GoalKind = "endermen"
	GoalBarter     GoalKind = "barter"
	GoalStronghold GoalKind = "stronghold"
	GoalBedCycle   GoalKind = "bed_cycle"
)

// Goal is a handle to a unit of work the agent is pursuing. Handles are
// compared by identity, so implementations should be pointer types.
type Goal interface {
	Key() string
	Class() string
	Kind() GoalKind
	Summary() string
	Finished() bool
	Stopped() bool
}

// Agent is the observed collaborator. All methods are called from the tick
// goroutine only.
type Agent interface {
	InSession() bool
	CaptureSnapshot() Snapshot
	CurrentArea() Area
	Position() (Vec3, bool)
	Vitals() Vitals
	CurrentGoal() Goal
	// ActiveGoals returns the running goal chain, outermost first.
	ActiveGoals() []Goal
	// QueueSummaries returns the user goal queue, current first.
	QueueSummaries() []string
	DefenseEngaged() bool
}
