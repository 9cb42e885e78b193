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

// Package status runs collection passes over the configured fleet: it
// queries every server once, classifies the results and folds them into
// a single fleet status.
package status

import (
	"time"

	"github.com/gravitational/vaultwatch/lib/health"
)

// Status is the result of one collection pass over the fleet.
type Status struct {
	// RunID uniquely identifies the collection pass
	RunID string `json:"runId"`
	// Timestamp is the UTC time the pass started
	Timestamp time.Time `json:"timestamp"`
	// Fleet folds the verdicts of all servers: bad if any server is bad
	Fleet health.Status `json:"fleet"`
	// Groups lists per-role statuses in configuration order
	Groups []GroupStatus `json:"groups"`
	// Backups lists the inspected scheduled backup tasks. Backup results
	// are displayed but do not participate in the fleet fold
	Backups []BackupStatus `json:"backups,omitempty"`
}

// GroupStatus describes the health of the servers sharing a role.
type GroupStatus struct {
	// Role is the logical role of the group
	Role health.Role `json:"role"`
	// Status folds the verdicts of the group members
	Status health.Status `json:"status"`
	// Servers lists the group members in configuration order
	Servers []ServerStatus `json:"servers"`
}

// ServerStatus describes the health of a single server.
type ServerStatus struct {
	// Verdict is the classified health of the server
	health.Verdict
	// Services lists the observed services, empty when the query failed
	Services []health.Observation `json:"services,omitempty"`
	// Unreachable is set when the server could not be queried
	Unreachable bool `json:"unreachable,omitempty"`
}

// BackupStatus describes one inspected scheduled backup task.
type BackupStatus struct {
	// BackupTaskResult is the queried task state
	health.BackupTaskResult
	// Outcome is the display classification of the result
	Outcome health.Outcome `json:"outcome"`
	// Error is the query failure, if the task could not be inspected
	Error string `json:"error,omitempty"`
}

// Group lists the servers that share a role.
type Group struct {
	// Role is the logical role of every server in this group
	Role health.Role
	// Servers lists the group members
	Servers []string
}
