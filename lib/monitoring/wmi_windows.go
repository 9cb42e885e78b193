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

//go:build windows

package monitoring

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/gravitational/vaultwatch/lib/constants"
	"github.com/gravitational/vaultwatch/lib/health"
	"github.com/gravitational/vaultwatch/lib/utils"

	"github.com/gravitational/trace"
	"github.com/yusufpapurcu/wmi"
)

// win32Service mirrors the queried columns of the Win32_Service WMI class
type win32Service struct {
	Name      string
	State     string
	StartMode string
}

// WMI queries service state through the native WMI infrastructure.
// Scheduled task queries shell out to the local PowerShell since the task
// scheduler has no WMI class.
type WMI struct {
	config Config
}

// NewWMI creates a native WMI query source.
func NewWMI(config Config) (*WMI, error) {
	if err := config.checkAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return &WMI{config: config}, nil
}

// Services returns one observation per watched service found on server.
func (r *WMI) Services(ctx context.Context, server string) ([]health.Observation, error) {
	query := fmt.Sprintf("SELECT Name, State, StartMode FROM Win32_Service WHERE %v",
		wqlNameFilter(r.config.Services))
	var args []interface{}
	if !isLocal(server) {
		args = append(args, server, constants.WMINamespace, r.config.Username, r.config.Password)
	}
	var records []win32Service
	if err := wmi.Query(query, &records, args...); err != nil {
		return nil, trace.Wrap(err, "failed to query %v", server)
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
	if len(observations) == 0 {
		return nil, trace.NotFound("no watched services reported by %v", server)
	}
	return observations, nil
}

// Task returns the state of the named scheduled task on server.
func (r *WMI) Task(ctx context.Context, server, task string) (*health.BackupTaskResult, error) {
	if !isLocal(server) {
		return nil, trace.BadParameter(
			"native task queries are local only, use the winrm source for %v", server)
	}
	output, err := exec.CommandContext(ctx, "powershell.exe",
		"-NoProfile", "-NonInteractive", "-Command", taskCommand(task)).Output()
	if err != nil {
		return nil, trace.ConvertSystemError(err)
	}
	result, err := parseTask(output)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return result, nil
}

// isLocal returns true if server names the host the poller runs on
func isLocal(server string) bool {
	host, _ := utils.SplitHostPort(server, 0)
	switch host {
	case "", ".", "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
