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
	"testing"
	"time"

	"github.com/gravitational/vaultwatch/lib/health"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsesServiceList(t *testing.T) {
	payload := `[{"Name":"IISAdmin","State":"Running","StartMode":"Auto"},
		{"Name":"W3Svc","State":"Stopped","StartMode":"Manual"}]`

	observations, err := parseServices("pvwa-1", []byte(payload))
	require.NoError(t, err)
	assert.Equal(t, []health.Observation{
		{Server: "pvwa-1", Service: "IISAdmin", State: health.RunStateRunning, StartMode: health.StartModeAuto},
		{Server: "pvwa-1", Service: "W3Svc", State: health.RunStateStopped, StartMode: health.StartModeManual},
	}, observations)
}

// ConvertTo-Json drops the array wrapper when the pipeline produces a
// single element.
func TestParsesSingleServiceObject(t *testing.T) {
	payload := `{"Name":"Cyber-Ark Privileged Session Manager","State":"Running","StartMode":"Auto"}`

	observations, err := parseServices("psm-1", []byte(payload))
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, "Cyber-Ark Privileged Session Manager", observations[0].Service)
	assert.Equal(t, health.RunStateRunning, observations[0].State)
}

func TestParsesGetServiceSpellings(t *testing.T) {
	payload := `[{"Name":"CyberArk Password Manager","State":"StartPending","StartMode":"Automatic"}]`

	observations, err := parseServices("cpm-1", []byte(payload))
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, health.RunStateStartPending, observations[0].State)
	assert.Equal(t, health.StartModeAuto, observations[0].StartMode)
}

func TestEmptyServiceListIsNotFound(t *testing.T) {
	_, err := parseServices("pvwa-1", []byte("  \r\n"))
	require.Error(t, err)
	assert.True(t, trace.IsNotFound(err))
}

func TestRejectsMalformedServicePayload(t *testing.T) {
	_, err := parseServices("pvwa-1", []byte(`Get-WmiObject : Access denied`))
	require.Error(t, err)
}

func TestServiceCommandFiltersWatchedServices(t *testing.T) {
	command := servicesCommand([]string{"IISAdmin", "W3Svc"})
	assert.Contains(t, command, "Win32_Service")
	assert.Contains(t, command, "Name='IISAdmin' OR Name='W3Svc'")
	assert.Contains(t, command, "ConvertTo-Json -Compress")
}

func TestEscapesQuotesInServiceNames(t *testing.T) {
	assert.Equal(t, "Name='O''Brien'", wqlNameFilter([]string{"O'Brien"}))
}

func TestParsesTaskReport(t *testing.T) {
	payload := `{"TaskName":"CyberArkFullBackup","State":"Ready","Enabled":true,
		"LastTaskResult":0,
		"LastRunTime":"2023-08-01T03:00:05.1230000+02:00",
		"NextRunTime":"2023-08-02T03:00:00.0000000+02:00"}`

	result, err := parseTask([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, "CyberArkFullBackup", result.TaskName)
	assert.Equal(t, health.TaskStateReady, result.State)
	assert.True(t, result.Enabled)
	require.NotNil(t, result.LastResult)
	assert.EqualValues(t, 0, *result.LastResult)
	assert.Equal(t, 2023, result.LastRunTime.Year())
	assert.True(t, result.NextRunTime.After(result.LastRunTime))
}

// the scheduler reports 0x41303 for a task that has never run
func TestParsesNeverRunTask(t *testing.T) {
	payload := `{"TaskName":"CyberArkIncrementalBackup","State":"Ready","Enabled":true,
		"LastTaskResult":267011,"LastRunTime":"","NextRunTime":""}`

	result, err := parseTask([]byte(payload))
	require.NoError(t, err)
	require.NotNil(t, result.LastResult)
	assert.EqualValues(t, 267011, *result.LastResult)
	assert.True(t, result.LastRunTime.IsZero())
	assert.Equal(t, health.OutcomeFailure, health.MapOutcome(*result))
}

func TestEmptyTaskReportIsNotFound(t *testing.T) {
	_, err := parseTask(nil)
	require.Error(t, err)
	assert.True(t, trace.IsNotFound(err))
}

func TestParsesTimestampWithoutOffset(t *testing.T) {
	// DateTime.ToString('o') omits the offset for unspecified-kind values
	parsed := parseTaskTime("2023-08-01T03:00:05.1234567")
	assert.Equal(t, time.Date(2023, 8, 1, 3, 0, 5, 123456700, time.UTC), parsed)

	assert.True(t, parseTaskTime("").IsZero())
	assert.True(t, parseTaskTime("yesterday").IsZero())
}

func TestTaskCommandQuotesTaskName(t *testing.T) {
	command := taskCommand("CyberArkFullBackup")
	assert.Contains(t, command, "Get-ScheduledTask -TaskName 'CyberArkFullBackup'")
	assert.Contains(t, command, "Get-ScheduledTaskInfo")
}
