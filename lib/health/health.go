/*
Copyright 2023 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// package health defines the service health vocabulary and the
// classification primitives for a fleet of Windows servers.
package health

import "strings"

// Status describes the health of a single server or of the fleet as a whole.
type Status string

const (
	// StatusGood indicates a healthy server or fleet.
	StatusGood Status = "good"
	// StatusBad indicates an unhealthy server or fleet.
	StatusBad Status = "bad"
)

// Role describes the logical group a server belongs to.
// The role determines the display grouping and is an input to
// classification.
type Role string

const (
	// RoleWebPortal groups the password vault web access servers.
	RoleWebPortal Role = "web-portal"
	// RoleConnector groups the application credential provider servers.
	RoleConnector Role = "connector"
	// RolePolicyManager groups the central policy manager servers.
	RolePolicyManager Role = "policy-manager"
	// RoleSessionManager groups the privileged session manager servers.
	// Services on these servers are started on demand, which softens
	// the wording of the verdict when some of them are stopped.
	RoleSessionManager Role = "session-manager"
)

// Roles lists every valid server role.
var Roles = []Role{RoleWebPortal, RoleConnector, RolePolicyManager, RoleSessionManager}

// Valid determines whether this role is one of the known roles.
func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RunState describes the current run state of a Windows service.
// This is the service state vocabulary (Win32_Service.State) and is
// distinct from the scheduled task state modeled by TaskState.
type RunState string

const (
	RunStateRunning      RunState = "Running"
	RunStateStopped      RunState = "Stopped"
	RunStateStartPending RunState = "Start Pending"
	RunStateStopPending  RunState = "Stop Pending"
	RunStatePaused       RunState = "Paused"
	RunStateUnknown      RunState = "Unknown"
)

// NormalizeRunState maps a raw service state value to the canonical
// RunState vocabulary. Matching is case-insensitive and tolerates the
// condensed spellings reported by Get-Service (e.g. "StartPending").
func NormalizeRunState(raw string) RunState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "running":
		return RunStateRunning
	case "stopped":
		return RunStateStopped
	case "start pending", "startpending":
		return RunStateStartPending
	case "stop pending", "stoppending":
		return RunStateStopPending
	case "paused":
		return RunStatePaused
	default:
		return RunStateUnknown
	}
}

// StartMode describes how a Windows service is configured to start.
type StartMode string

const (
	StartModeBoot     StartMode = "Boot"
	StartModeSystem   StartMode = "System"
	StartModeAuto     StartMode = "Auto"
	StartModeManual   StartMode = "Manual"
	StartModeDisabled StartMode = "Disabled"
)

// NormalizeStartMode maps a raw start mode value to the canonical
// StartMode vocabulary. Matching is case-insensitive and accepts both
// the WMI ("Auto") and the service controller ("Automatic") spellings.
func NormalizeStartMode(raw string) StartMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "boot":
		return StartModeBoot
	case "system":
		return StartModeSystem
	case "auto", "automatic":
		return StartModeAuto
	case "disabled":
		return StartModeDisabled
	default:
		return StartModeManual
	}
}

// Observation captures the state of a single watched service on a single
// server at poll time. Observations are produced once per poll cycle and
// are read-only afterwards.
type Observation struct {
	// Server identifies the server the observation was made on.
	Server string `json:"server"`
	// Service is the service name, unique within a server's observation
	// set for a given poll.
	Service string `json:"service"`
	// State is the current run state of the service.
	State RunState `json:"state"`
	// StartMode is the configured start mode of the service.
	StartMode StartMode `json:"startMode"`
}

// Verdict is the computed health classification of a single server.
// Verdicts are recomputed from scratch on every poll cycle and are never
// persisted.
type Verdict struct {
	// Server identifies the classified server.
	Server string `json:"server"`
	// Status is the Good/Bad health classification.
	Status Status `json:"status"`
	// Message is the human-readable classification summary rendered on
	// the status page.
	Message string `json:"message"`
}
