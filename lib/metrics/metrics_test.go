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

package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gravitational/vaultwatch/lib/defaults"
	"github.com/gravitational/vaultwatch/lib/health"
	"github.com/gravitational/vaultwatch/lib/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportsTextfileMetrics(t *testing.T) {
	dir := t.TempDir()
	code := int64(0)
	result := &status.Status{
		Timestamp: time.Date(2023, 8, 1, 6, 30, 0, 0, time.UTC),
		Fleet:     health.StatusBad,
		Groups: []status.GroupStatus{
			{
				Role:   health.RoleWebPortal,
				Status: health.StatusBad,
				Servers: []status.ServerStatus{
					{Verdict: health.Verdict{Server: "pvwa-1", Status: health.StatusGood}},
					{Verdict: health.Verdict{Server: "pvwa-2", Status: health.StatusBad}},
				},
			},
		},
		Backups: []status.BackupStatus{
			{
				BackupTaskResult: health.BackupTaskResult{TaskName: "CyberArkFullBackup", LastResult: &code},
				Outcome:          health.OutcomeSuccess,
			},
		},
	}

	require.NoError(t, Write(dir, result, 1500*time.Millisecond))

	payload, err := os.ReadFile(filepath.Join(dir, defaults.MetricsFile))
	require.NoError(t, err)

	export := string(payload)
	assert.Contains(t, export, `vaultwatch_server_healthy{role="web-portal",server="pvwa-1"} 1`)
	assert.Contains(t, export, `vaultwatch_server_healthy{role="web-portal",server="pvwa-2"} 0`)
	assert.Contains(t, export, "vaultwatch_fleet_healthy 0")
	assert.Contains(t, export, `vaultwatch_backup_task_ok{task="CyberArkFullBackup"} 1`)
	assert.Contains(t, export, "vaultwatch_poll_duration_seconds 1.5")
	assert.Contains(t, export, "vaultwatch_last_poll_timestamp_seconds 1.6908714e+09")
}

func TestExportReplacesPreviousFile(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, defaults.MetricsFile)
	require.NoError(t, os.WriteFile(stale, []byte("vaultwatch_fleet_healthy 1\n"), 0644))

	result := &status.Status{
		Timestamp: time.Date(2023, 8, 1, 6, 30, 0, 0, time.UTC),
		Fleet:     health.StatusBad,
	}
	require.NoError(t, Write(dir, result, time.Second))

	payload, err := os.ReadFile(stale)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "vaultwatch_fleet_healthy 0")
	assert.NotContains(t, string(payload), "vaultwatch_fleet_healthy 1")
}
