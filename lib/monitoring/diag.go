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
	"context"

	"github.com/gravitational/vaultwatch/lib/defaults"
	"github.com/gravitational/vaultwatch/lib/utils"

	probing "github.com/prometheus-community/pro-bing"
	"github.com/sirupsen/logrus"
)

// Diagnose checks whether server answers ICMP echo to tell a network
// failure apart from a WinRM failure after a query failed. The result is
// only logged, it does not change how the failure is classified.
func Diagnose(ctx context.Context, log logrus.FieldLogger, server string) {
	host, _ := utils.SplitHostPort(server, 0)
	pinger, err := probing.NewPinger(host)
	if err != nil {
		log.WithError(err).Warnf("Failed to resolve %v for diagnosis.", server)
		return
	}
	pinger.Count = defaults.DiagnosticPingCount
	pinger.Timeout = defaults.DiagnosticPingTimeout
	if err := pinger.RunWithContext(ctx); err != nil {
		log.WithError(err).Warnf("Failed to ping %v.", server)
		return
	}
	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		log.Warnf("%v does not answer ICMP echo: host down or unreachable.", server)
		return
	}
	log.Infof("%v answers ICMP echo (%v/%v packets, avg rtt %v): host is up, the query itself failed.",
		server, stats.PacketsRecv, stats.PacketsSent, stats.AvgRtt)
}
