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

package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gravitational/vaultwatch/lib/health"

	"github.com/gravitational/trace"
)

type (
	serviceRecord struct {
		Name      string `json:"Name"`
		State     string `json:"State"`
		StartMode string `json:"StartMode"`
	}

	taskRecord struct {
		TaskName       string `json:"TaskName"`
		State          string `json:"State"`
		Enabled        bool   `json:"Enabled"`
		LastTaskResult *int64 `json:"LastTaskResult"`
		LastRunTime    string `json:"LastRunTime"`
		NextRunTime    string `json:"NextRunTime"`
	}
)

// servicesCommand builds the PowerShell pipeline that reports the state
// of the watched services as compact JSON.
func servicesCommand(services []string) string {
	return fmt.Sprintf(`Get-WmiObject -Class Win32_Service -Filter "%v" | Select-Object Name,State,StartMode | ConvertTo-Json -Compress`,
		wqlNameFilter(services))
}

// taskCommand builds the PowerShell script that reports the state and the
// last run of a scheduled task as compact JSON.
func taskCommand(task string) string {
	return fmt.Sprintf(`$ErrorActionPreference = 'Stop'
$task = Get-ScheduledTask -TaskName '%[1]s'
$info = $task | Get-ScheduledTaskInfo
[pscustomobject]@{
  TaskName = $task.TaskName
  State = [string]$task.State
  Enabled = $task.Settings.Enabled
  LastTaskResult = $info.LastTaskResult
  LastRunTime = if ($info.LastRunTime) { $info.LastRunTime.ToString('o') } else { '' }
  NextRunTime = if ($info.NextRunTime) { $info.NextRunTime.ToString('o') } else { '' }
} | ConvertTo-Json -Compress`, escapeSingleQuoted(task))
}

// wqlNameFilter builds a WQL filter expression matching any of the given
// service names.
func wqlNameFilter(services []string) string {
	clauses := make([]string, 0, len(services))
	for _, service := range services {
		clauses = append(clauses, fmt.Sprintf("Name='%v'", escapeSingleQuoted(service)))
	}
	return strings.Join(clauses, " OR ")
}

// escapeSingleQuoted escapes value for interpolation into a single-quoted
// WQL or PowerShell string literal
func escapeSingleQuoted(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

// parseServices decodes the JSON document produced by servicesCommand.
// ConvertTo-Json emits a bare object instead of a single-element array
// when the pipeline produces one result.
func parseServices(server string, payload []byte) ([]health.Observation, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, trace.NotFound("no watched services reported by %v", server)
	}
	var records []serviceRecord
	if payload[0] == '[' {
		if err := json.Unmarshal(payload, &records); err != nil {
			return nil, trace.Wrap(err, "invalid service query response from %v", server)
		}
	} else {
		var record serviceRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, trace.Wrap(err, "invalid service query response from %v", server)
		}
		records = append(records, record)
	}
	observations := make([]health.Observation, 0, len(records))
	for _, record := range records {
		observations = append(observations, health.Observation{
			Server:    server,
			Service:   record.Name,
			State:     health.NormalizeRunState(record.State),
			StartMode: health.NormalizeStartMode(record.StartMode),
		})
	}
	return observations, nil
}

// parseTask decodes the JSON document produced by taskCommand.
func parseTask(payload []byte) (*health.BackupTaskResult, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, trace.NotFound("scheduled task not reported")
	}
	var record taskRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, trace.Wrap(err, "invalid task query response")
	}
	return &health.BackupTaskResult{
		TaskName:    record.TaskName,
		LastResult:  record.LastTaskResult,
		LastRunTime: parseTaskTime(record.LastRunTime),
		NextRunTime: parseTaskTime(record.NextRunTime),
		State:       health.NormalizeTaskState(record.State),
		Enabled:     record.Enabled,
	}, nil
}

// parseTaskTime parses the round-trip timestamp format emitted by
// DateTime.ToString('o'). The offset suffix is absent when the scheduler
// reports a timestamp of unspecified kind.
func parseTaskTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
