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

package status

import (
	"context"
	"time"

	"github.com/gravitational/vaultwatch/lib/constants"
	"github.com/gravitational/vaultwatch/lib/defaults"
	"github.com/gravitational/vaultwatch/lib/health"
	"github.com/gravitational/vaultwatch/lib/monitoring"

	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
	"github.com/pborman/uuid"
	"github.com/sirupsen/logrus"
)

// Config configures a Runner.
type Config struct {
	// Groups lists the monitored servers by role
	Groups []Group
	// Inventory queries service state
	Inventory monitoring.Inventory
	// Tasks queries scheduled task state. Optional: backup inspection is
	// skipped when unset
	Tasks monitoring.Tasks
	// BackupHost is the server whose task scheduler is inspected
	BackupHost string
	// BackupTasks lists the scheduled task names to inspect
	BackupTasks []string
	// Timeout bounds a single server query
	Timeout time.Duration
	// Diagnose is invoked after a failed server query. Optional
	Diagnose func(ctx context.Context, server string)
	// FieldLogger is the logger
	logrus.FieldLogger
	// clock specifies the time implementation.
	// Overridden in tests
	clock clockwork.Clock
}

func (r *Config) checkAndSetDefaults() error {
	if len(r.Groups) == 0 {
		return trace.BadParameter("no server groups configured")
	}
	if r.Inventory == nil {
		return trace.BadParameter("inventory source is not set")
	}
	if r.Timeout == 0 {
		r.Timeout = defaults.FetchTimeout
	}
	if r.FieldLogger == nil {
		r.FieldLogger = logrus.WithField(trace.Component, constants.ComponentStatus)
	}
	if r.clock == nil {
		r.clock = clockwork.NewRealClock()
	}
	return nil
}

// New creates a Runner from config.
func New(config Config) (*Runner, error) {
	if err := config.checkAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return &Runner{config: config}, nil
}

// Runner executes collection passes over the configured fleet.
type Runner struct {
	config Config
}

// Run executes a single collection pass. Servers are queried one at a
// time in configuration order. A failed query never aborts the pass:
// the affected server is reported unreachable and the pass moves on.
func (r *Runner) Run(ctx context.Context) (*Status, error) {
	status := &Status{
		RunID:     uuid.New(),
		Timestamp: r.config.clock.Now().UTC(),
	}
	logger := r.config.WithField("run-id", status.RunID)
	logger.Info("Start collection pass.")

	var fleet []health.Verdict
	for _, group := range r.config.Groups {
		if err := ctx.Err(); err != nil {
			return nil, trace.Wrap(err)
		}
		groupStatus := GroupStatus{Role: group.Role}
		verdicts := make([]health.Verdict, 0, len(group.Servers))
		for _, server := range group.Servers {
			serverStatus := r.observe(ctx, logger, server, group.Role)
			verdicts = append(verdicts, serverStatus.Verdict)
			groupStatus.Servers = append(groupStatus.Servers, serverStatus)
		}
		groupStatus.Status = health.Aggregate(verdicts)
		status.Groups = append(status.Groups, groupStatus)
		fleet = append(fleet, verdicts...)
	}
	status.Fleet = health.Aggregate(fleet)

	if r.config.Tasks != nil && r.config.BackupHost != "" {
		for _, task := range r.config.BackupTasks {
			if err := ctx.Err(); err != nil {
				return nil, trace.Wrap(err)
			}
			status.Backups = append(status.Backups, r.inspectTask(ctx, logger, task))
		}
	}

	logger.WithField("fleet", status.Fleet).Info("Collection pass done.")
	return status, nil
}

// observe queries a single server and classifies the result.
func (r *Runner) observe(ctx context.Context, logger logrus.FieldLogger, server string, role health.Role) ServerStatus {
	queryCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()
	observations, err := r.config.Inventory.Services(queryCtx, server)
	if err != nil {
		logger.WithError(err).Warnf("Failed to query services on %v.", server)
		if r.config.Diagnose != nil {
			r.config.Diagnose(ctx, server)
		}
		return ServerStatus{
			Verdict:     health.FetchFailed(server),
			Unreachable: true,
		}
	}
	return ServerStatus{
		Verdict:  health.Classify(server, role, observations),
		Services: observations,
	}
}

// inspectTask queries a single scheduled backup task.
func (r *Runner) inspectTask(ctx context.Context, logger logrus.FieldLogger, task string) BackupStatus {
	queryCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()
	result, err := r.config.Tasks.Task(queryCtx, r.config.BackupHost, task)
	if err != nil {
		logger.WithError(err).Warnf("Failed to query scheduled task %q on %v.", task, r.config.BackupHost)
		return BackupStatus{
			BackupTaskResult: health.BackupTaskResult{TaskName: task},
			Outcome:          health.OutcomeFailure,
			Error:            err.Error(),
		}
	}
	return BackupStatus{
		BackupTaskResult: *result,
		Outcome:          health.MapOutcome(*result),
	}
}
