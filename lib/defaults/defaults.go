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

package defaults

import "time"

const (
	// ConfigPath specifies the default location of the configuration file
	ConfigPath = "/etc/vaultwatch/vaultwatch.yaml"

	// OutputPath specifies the default location of the rendered status page
	OutputPath = "/var/lib/vaultwatch/status.html"

	// RefreshInterval specifies the default browser auto-refresh interval
	// embedded in the status page
	RefreshInterval = 5 * time.Minute

	// FetchTimeout bounds a single server inventory or task query
	FetchTimeout = 30 * time.Second

	// WinRMPort is the default WinRM HTTP listener port
	WinRMPort = 5985

	// WinRMPortHTTPS is the default WinRM HTTPS listener port
	WinRMPortHTTPS = 5986

	// SMTPPort is the default SMTP submission port for alert delivery
	SMTPPort = 25

	// SMTPRetryAttempts is how many times alert email delivery is tried
	SMTPRetryAttempts = 3

	// SMTPRetryPeriod is the pause between alert email delivery attempts
	SMTPRetryPeriod = 5 * time.Second

	// FullBackupTask names the scheduled task that runs the full vault backup
	FullBackupTask = "CyberArkFullBackup"

	// IncrementalBackupTask names the scheduled task that runs the
	// incremental vault backup
	IncrementalBackupTask = "CyberArkIncrementalBackup"

	// MetricsFile is the file name written into the textfile collector
	// directory when metrics export is enabled
	MetricsFile = "vaultwatch.prom"

	// DiagnosticPingCount is the number of ICMP probes sent when
	// diagnosing a failed inventory fetch
	DiagnosticPingCount = 3

	// DiagnosticPingTimeout bounds the ICMP diagnosis of a failed fetch
	DiagnosticPingTimeout = 5 * time.Second
)

var (
	// WatchedServices is the fixed set of service names inspected on every
	// server regardless of role. Matching is case-insensitive and exact.
	WatchedServices = []string{
		"IISAdmin",
		"W3Svc",
		"CyberArk Central Policy Manager Scanner",
		"CyberArk Password Manager",
		"CyberArk Scheduled Tasks",
		"CyberArk Application Password Provider",
		"Cyber-Ark Privileged Session Manager",
	}
)
