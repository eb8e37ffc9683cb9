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

import "github.com/altoclef/cambridge/pkg/core"

// DetectPhase maps the current area and resources onto a coarse progress phase.
func DetectPhase(snap core.Snapshot, area core.Area, plan core.Plan) core.Phase {
	switch area {
	case core.AreaEnd:
		return core.PhaseEnd
	case core.AreaNether:
		if snap.Rods < plan.RodsTarget {
			return core.PhaseFortress
		}
		if snap.Pearls < plan.TargetEyes {
			return core.PhasePearls
		}
		return core.PhaseNether
	}
	if snap.Rods >= plan.RodsTarget && snap.Pearls >= plan.TargetEyes {
		return core.PhaseStronghold
	}
	return core.PhaseOverworldPrep
}

// InferStallContext guesses where the agent is stuck. It returns "" when no
// label applies.
func InferStallContext(snap core.Snapshot, area core.Area, plan core.Plan) string {
	if area == core.AreaNether {
		if snap.Rods < plan.RodsTarget {
			return "fortress"
		}
		if plan.BarterPearls && snap.Gold > 0 {
			return "bastion"
		}
		if snap.Pearls < plan.TargetEyes {
			return "pearls"
		}
	}
	if area == core.AreaOverworld && snap.Rods >= plan.RodsTarget {
		return "stronghold"
	}
	return ""
}

// PhaseSlot names the resource family the HUD highlights for a phase.
func PhaseSlot(p core.Phase) string {
	switch p {
	case core.PhaseNether, core.PhaseFortress, core.PhasePearls:
		return "GOLD"
	case core.PhaseStronghold:
		return "EYES"
	case core.PhaseEnd:
		return "ARROWS"
	}
	return "IRON"
}
