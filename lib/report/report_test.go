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

package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gravitational/vaultwatch/lib/health"
	"github.com/gravitational/vaultwatch/lib/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRendersHealthyFleet(t *testing.T) {
	document, err := Render(healthyStatus(), Config{RefreshInterval: 2 * time.Minute})
	require.NoError(t, err)

	page := string(document)
	assert.Contains(t, page, bannerFleetGood)
	assert.Contains(t, page, `<meta http-equiv="refresh" content="120">`)
	assert.Contains(t, page, "Last checked: 01 Aug 2023 06:30:00 UTC")
	assert.Contains(t, page, "Web Portal Servers")
	assert.Contains(t, page, "Session Manager Servers")
	assert.Contains(t, page, health.MessageAllRunning)
	assert.Contains(t, page, "IISAdmin: Running")
}

func TestRendersUnreachableServer(t *testing.T) {
	result := healthyStatus()
	result.Fleet = health.StatusBad
	result.Groups[0].Status = health.StatusBad
	result.Groups[0].Servers = append(result.Groups[0].Servers, status.ServerStatus{
		Verdict:     health.FetchFailed("pvwa-2"),
		Unreachable: true,
	})

	document, err := Render(result, Config{})
	require.NoError(t, err)

	page := string(document)
	assert.Contains(t, page, bannerFleetBad)
	assert.Contains(t, page, health.MessageFetchFailed)
	// a server without observations renders a placeholder row
	assert.Contains(t, page, "no data")
}

func TestRendersMaintenanceBanner(t *testing.T) {
	document, err := Render(healthyStatus(), Config{MaintenanceMessage: "Patching window Saturday 22:00"})
	require.NoError(t, err)
	assert.Contains(t, string(document), "Patching window Saturday 22:00")

	document, err = Render(healthyStatus(), Config{})
	require.NoError(t, err)
	assert.NotContains(t, string(document), `<div class="maintenance">`)
}

func TestEscapesMaintenanceMessage(t *testing.T) {
	document, err := Render(healthyStatus(), Config{MaintenanceMessage: "<script>alert(1)</script>"})
	require.NoError(t, err)
	assert.NotContains(t, string(document), "<script>alert(1)</script>")
	assert.Contains(t, string(document), "&lt;script&gt;")
}

func TestRendersBackupIndicators(t *testing.T) {
	code0, code1 := int64(0), int64(1641)
	result := healthyStatus()
	result.Backups = []status.BackupStatus{
		{
			BackupTaskResult: health.BackupTaskResult{
				TaskName:    "CyberArkFullBackup",
				LastResult:  &code0,
				LastRunTime: time.Date(2023, 8, 1, 3, 0, 0, 0, time.UTC),
				NextRunTime: time.Date(2023, 8, 2, 3, 0, 0, 0, time.UTC),
			},
			Outcome: health.OutcomeSuccess,
		},
		{
			BackupTaskResult: health.BackupTaskResult{
				TaskName:   "CyberArkIncrementalBackup",
				LastResult: &code1,
			},
			Outcome: health.OutcomeFailure,
		},
	}

	document, err := Render(result, Config{})
	require.NoError(t, err)

	page := string(document)
	assert.Contains(t, page, `<span class="green">`+"✔"+` CyberArkFullBackup</span>`)
	assert.Contains(t, page, `<span class="red">`+"✘"+` CyberArkIncrementalBackup</span>`)
	assert.Contains(t, page, "exit code 0")
	assert.Contains(t, page, "exit code 1641")
	// a task without timestamps renders "never"
	assert.Contains(t, page, "last run never")
}

func TestSkipsRefreshDirectiveWhenDisabled(t *testing.T) {
	document, err := Render(healthyStatus(), Config{})
	require.NoError(t, err)
	assert.NotContains(t, string(document), `http-equiv="refresh"`)
}

func TestWritesDocumentToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.html")
	require.NoError(t, WriteFile(path, healthyStatus(), Config{}))

	document, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(document), bannerFleetGood)
}

func healthyStatus() *status.Status {
	return &status.Status{
		RunID:     "e8b3e2a0-7b25-4a90-912c-0b132a91d803",
		Timestamp: time.Date(2023, 8, 1, 6, 30, 0, 0, time.UTC),
		Fleet:     health.StatusGood,
		Groups: []status.GroupStatus{
			{
				Role:   health.RoleWebPortal,
				Status: health.StatusGood,
				Servers: []status.ServerStatus{
					{
						Verdict: health.Verdict{
							Server:  "pvwa-1",
							Status:  health.StatusGood,
							Message: health.MessageAllRunning,
						},
						Services: []health.Observation{
							{Server: "pvwa-1", Service: "IISAdmin", State: health.RunStateRunning, StartMode: health.StartModeAuto},
							{Server: "pvwa-1", Service: "W3Svc", State: health.RunStateRunning, StartMode: health.StartModeAuto},
						},
					},
				},
			},
			{
				Role:   health.RoleSessionManager,
				Status: health.StatusGood,
				Servers: []status.ServerStatus{
					{
						Verdict: health.Verdict{
							Server:  "psm-1",
							Status:  health.StatusGood,
							Message: health.MessageAllRunning,
						},
						Services: []health.Observation{
							{Server: "psm-1", Service: "Cyber-Ark Privileged Session Manager", State: health.RunStateRunning, StartMode: health.StartModeAuto},
						},
					},
				},
			},
		},
	}
}
