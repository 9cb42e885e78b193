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

// Package metrics exports collection pass results in the Prometheus
// textfile collector format so an existing node_exporter can pick them
// up. The poller is a one-shot process, a scrape endpoint would outlive
// every pass.
package metrics

import (
	"bytes"
	"path/filepath"
	"time"

	"github.com/gravitational/vaultwatch/lib/constants"
	"github.com/gravitational/vaultwatch/lib/defaults"
	"github.com/gravitational/vaultwatch/lib/health"
	"github.com/gravitational/vaultwatch/lib/status"
	"github.com/gravitational/vaultwatch/lib/utils"

	"github.com/gravitational/trace"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Write exports result into the textfile collector directory dir. The
// file is replaced atomically so a concurrent scrape never sees a
// partial export.
func Write(dir string, result *status.Status, pollDuration time.Duration) error {
	registry := prometheus.NewRegistry()
	serverHealthy := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vaultwatch_server_healthy",
		Help: "Whether a monitored server reports healthy (1) or not (0).",
	}, []string{"server", "role"})
	fleetHealthy := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vaultwatch_fleet_healthy",
		Help: "Whether the whole fleet reports healthy (1) or not (0).",
	})
	backupOK := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vaultwatch_backup_task_ok",
		Help: "Whether the named backup task last completed successfully (1) or not (0).",
	}, []string{"task"})
	pollSeconds := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vaultwatch_poll_duration_seconds",
		Help: "Duration of the last collection pass in seconds.",
	})
	lastPoll := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vaultwatch_last_poll_timestamp_seconds",
		Help: "Unix timestamp of the last collection pass.",
	})
	registry.MustRegister(serverHealthy, fleetHealthy, backupOK, pollSeconds, lastPoll)

	for _, group := range result.Groups {
		for _, server := range group.Servers {
			serverHealthy.WithLabelValues(server.Server, string(group.Role)).
				Set(boolGauge(server.Status == health.StatusGood))
		}
	}
	fleetHealthy.Set(boolGauge(result.Fleet == health.StatusGood))
	for _, backup := range result.Backups {
		backupOK.WithLabelValues(backup.TaskName).
			Set(boolGauge(backup.Outcome == health.OutcomeSuccess))
	}
	pollSeconds.Set(pollDuration.Seconds())
	lastPoll.Set(float64(result.Timestamp.Unix()))

	families, err := registry.Gather()
	if err != nil {
		return trace.Wrap(err)
	}
	var out bytes.Buffer
	encoder := expfmt.NewEncoder(&out, expfmt.FmtText)
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			return trace.Wrap(err)
		}
	}
	return trace.Wrap(utils.SafeWriteFile(
		filepath.Join(dir, defaults.MetricsFile), out.Bytes(), constants.SharedReadMask))
}

func boolGauge(healthy bool) float64 {
	if healthy {
		return 1
	}
	return 0
}
