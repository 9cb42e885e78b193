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

package health

import (
	"strings"
	"time"
)

// TaskState describes the state of a Windows scheduled task. This is the
// task scheduler vocabulary and is unrelated to the service RunState even
// though both contain a "Running" member.
type TaskState string

const (
	TaskStateUnknown  TaskState = "Unknown"
	TaskStateDisabled TaskState = "Disabled"
	TaskStateQueued   TaskState = "Queued"
	TaskStateReady    TaskState = "Ready"
	TaskStateRunning  TaskState = "Running"
)

// NormalizeTaskState maps a raw scheduled task state value to the
// canonical TaskState vocabulary.
func NormalizeTaskState(raw string) TaskState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "disabled":
		return TaskStateDisabled
	case "queued":
		return TaskStateQueued
	case "ready":
		return TaskStateReady
	case "running":
		return TaskStateRunning
	default:
		return TaskStateUnknown
	}
}

// BackupTaskResult captures the last known outcome of a named scheduled
// backup task.
type BackupTaskResult struct {
	// TaskName is the exact scheduled task name.
	TaskName string `json:"taskName"`
	// LastResult is the exit code of the last run, with 0 meaning
	// success. Nil when the scheduler reported no result.
	LastResult *int64 `json:"lastResult"`
	// LastRunTime is the time of the last run, zero when the task has
	// never run.
	LastRunTime time.Time `json:"lastRunTime"`
	// NextRunTime is the next scheduled run, zero when none is scheduled.
	NextRunTime time.Time `json:"nextRunTime"`
	// State is the scheduler state of the task.
	State TaskState `json:"state"`
	// Enabled indicates whether the task is enabled in the scheduler.
	Enabled bool `json:"enabled"`
}

// Outcome is the display classification of a backup task result.
type Outcome struct {
	// Color tags the status page indicator.
	Color string `json:"color"`
	// Icon tags the status page indicator glyph.
	Icon string `json:"icon"`
}

// Backup task outcome tags consumed by the report template.
var (
	OutcomeSuccess = Outcome{Color: "green", Icon: "check"}
	OutcomeFailure = Outcome{Color: "red", Icon: "cross"}
)

// MapOutcome classifies a backup task result for display. Only a present
// last result of exactly 0 counts as success; every other value collapses
// to failure, with no distinction between "failed", "never ran" and
// "still running".
func MapOutcome(result BackupTaskResult) Outcome {
	if result.LastResult != nil && *result.LastResult == 0 {
		return OutcomeSuccess
	}
	return OutcomeFailure
}
