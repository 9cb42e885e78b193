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

// Package config defines the configuration surface of the status poller:
// the fleet layout, the inventory source, the output document and its
// destinations, and the optional alerting and metrics settings.
package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/gravitational/vaultwatch/lib/constants"
	"github.com/gravitational/vaultwatch/lib/defaults"
	"github.com/gravitational/vaultwatch/lib/health"

	"github.com/ghodss/yaml"
	"github.com/gravitational/trace"
	"github.com/imdario/mergo"
)

// Config describes a complete poller configuration.
type Config struct {
	// MaintenanceMessage is an optional banner rendered at the top of the
	// status page
	MaintenanceMessage string `json:"maintenanceMessage,omitempty"`
	// RefreshInterval specifies the browser auto-refresh interval of the
	// status page
	RefreshInterval Duration `json:"refreshInterval,omitempty"`
	// Output configures the rendered document and its distribution
	Output OutputConfig `json:"output"`
	// Fetch configures the service inventory source
	Fetch FetchConfig `json:"fetch"`
	// Groups lists the monitored servers by role
	Groups []Group `json:"groups"`
	// Backup configures the scheduled backup task inspection
	Backup BackupConfig `json:"backup"`
	// Alerts configures the optional alert delivery
	Alerts AlertsConfig `json:"alerts,omitempty"`
	// Metrics configures the optional metrics textfile export
	Metrics MetricsConfig `json:"metrics,omitempty"`
}

// OutputConfig configures the rendered status document.
type OutputConfig struct {
	// Path is the location the status page is rendered to
	Path string `json:"path,omitempty"`
	// Destinations lists directories the rendered page is copied to,
	// one per web portal server
	Destinations []string `json:"destinations,omitempty"`
}

// FetchConfig configures the service inventory source.
type FetchConfig struct {
	// Source selects the inventory transport: "winrm" (default) or "wmi"
	// (native, Windows builds only)
	Source string `json:"source,omitempty"`
	// Port is the WinRM listener port on the monitored servers
	Port int `json:"port,omitempty"`
	// UseHTTPS enables the HTTPS WinRM transport
	UseHTTPS bool `json:"https,omitempty"`
	// Insecure skips certificate verification on the HTTPS transport
	Insecure bool `json:"insecure,omitempty"`
	// Username is the service account used to query the servers
	Username string `json:"username,omitempty"`
	// Password is the service account password. Falls back to the
	// VAULTWATCH_WINRM_PASSWORD environment variable when empty
	Password string `json:"password,omitempty"`
	// Timeout bounds a single server query
	Timeout Duration `json:"timeout,omitempty"`
	// Diagnostics enables ICMP reachability diagnosis of failed fetches
	Diagnostics bool `json:"diagnostics,omitempty"`
}

// Group lists the servers that share a role.
type Group struct {
	// Role is the logical role of every server in this group
	Role health.Role `json:"role"`
	// Servers lists the group members as hostnames or addresses
	Servers []string `json:"servers"`
}

// BackupConfig configures the scheduled backup task inspection.
type BackupConfig struct {
	// Host is the server whose task scheduler is inspected
	Host string `json:"host,omitempty"`
	// FullTask names the full backup scheduled task
	FullTask string `json:"fullTask,omitempty"`
	// IncrementalTask names the incremental backup scheduled task
	IncrementalTask string `json:"incrementalTask,omitempty"`
}

// AlertsConfig configures the optional alert delivery paths.
type AlertsConfig struct {
	// Enabled turns alert delivery on
	Enabled bool `json:"enabled,omitempty"`
	// SMTP configures alert email delivery
	SMTP SMTPConfig `json:"smtp,omitempty"`
	// PopupHosts lists Windows hosts that receive a console popup
	PopupHosts []string `json:"popupHosts,omitempty"`
}

// SMTPConfig configures the alert email account.
type SMTPConfig struct {
	// Host is the SMTP server host
	Host string `json:"host,omitempty"`
	// Port is the SMTP server port
	Port int `json:"port,omitempty"`
	// Username authenticates to the SMTP server when set
	Username string `json:"username,omitempty"`
	// Password is the SMTP account password. Falls back to the
	// VAULTWATCH_SMTP_PASSWORD environment variable when empty
	Password string `json:"password,omitempty"`
	// From is the alert sender address
	From string `json:"from,omitempty"`
	// To lists the alert recipient addresses
	To []string `json:"to,omitempty"`
}

// MetricsConfig configures the metrics textfile export.
type MetricsConfig struct {
	// TextfileDir is the node_exporter textfile collector directory.
	// Empty disables the export
	TextfileDir string `json:"textfileDir,omitempty"`
}

// FromFile reads and parses the configuration file at path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, trace.ConvertSystemError(err)
	}
	config, err := FromBytes(data)
	if err != nil {
		return nil, trace.Wrap(err, "failed to parse configuration file %q", path)
	}
	return config, nil
}

// FromBytes parses a configuration document.
func FromBytes(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, trace.Wrap(err)
	}
	return &config, nil
}

// CheckAndSetDefaults validates this configuration and fills in defaults
// for the values that have not been set.
func (c *Config) CheckAndSetDefaults() error {
	if err := mergo.Merge(c, defaultConfig()); err != nil {
		return trace.Wrap(err)
	}
	if c.Fetch.Port == 0 {
		c.Fetch.Port = defaults.WinRMPort
		if c.Fetch.UseHTTPS {
			c.Fetch.Port = defaults.WinRMPortHTTPS
		}
	}
	if c.Fetch.Password == "" {
		c.Fetch.Password = os.Getenv(constants.EnvWinRMPassword)
	}
	if c.Alerts.SMTP.Password == "" {
		c.Alerts.SMTP.Password = os.Getenv(constants.EnvSMTPPassword)
	}
	if c.Fetch.Source != constants.SourceWinRM && c.Fetch.Source != constants.SourceWMI {
		return trace.BadParameter("unknown inventory source %q, expected %q or %q",
			c.Fetch.Source, constants.SourceWinRM, constants.SourceWMI)
	}
	if len(c.Groups) == 0 {
		return trace.BadParameter("no server groups configured")
	}
	for _, group := range c.Groups {
		if !group.Role.Valid() {
			return trace.BadParameter("unknown role %q, expected one of %v", group.Role, health.Roles)
		}
		if len(group.Servers) == 0 {
			return trace.BadParameter("group %q has no servers", group.Role)
		}
	}
	if c.Output.Path == "" {
		return trace.BadParameter("output path is not set")
	}
	if c.Backup.Host == "" {
		// fall back to the first configured server to keep single-host
		// deployments working without explicit backup configuration
		c.Backup.Host = c.Groups[0].Servers[0]
	}
	if c.Alerts.Enabled {
		if c.Alerts.SMTP.Host == "" && len(c.Alerts.PopupHosts) == 0 {
			return trace.BadParameter("alerts are enabled but neither SMTP nor popup hosts are configured")
		}
		if c.Alerts.SMTP.Host != "" {
			if c.Alerts.SMTP.From == "" {
				return trace.BadParameter("alert SMTP sender address is not set")
			}
			if len(c.Alerts.SMTP.To) == 0 {
				return trace.BadParameter("alert SMTP recipient list is empty")
			}
		}
	}
	return nil
}

// Servers returns the flat list of all configured servers in group order.
func (c *Config) Servers() (servers []string) {
	for _, group := range c.Groups {
		servers = append(servers, group.Servers...)
	}
	return servers
}

func defaultConfig() Config {
	return Config{
		RefreshInterval: Duration(defaults.RefreshInterval),
		Output: OutputConfig{
			Path: defaults.OutputPath,
		},
		Fetch: FetchConfig{
			Source:  constants.SourceWinRM,
			Timeout: Duration(defaults.FetchTimeout),
		},
		Backup: BackupConfig{
			FullTask:        defaults.FullBackupTask,
			IncrementalTask: defaults.IncrementalBackupTask,
		},
		Alerts: AlertsConfig{
			SMTP: SMTPConfig{
				Port: defaults.SMTPPort,
			},
		},
	}
}

// Duration is a time.Duration that marshals to and from the
// human-readable duration syntax ("30s", "5m") in configuration files.
type Duration time.Duration

// Duration returns this duration as time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String returns the human-readable form of this duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON serializes this duration in the human-readable form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON deserializes either a duration string or a raw
// nanosecond count.
func (d *Duration) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return trace.Wrap(err)
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return trace.BadParameter("expected a duration like %q but got %q", "5m", value)
		}
		*d = Duration(parsed)
		return nil
	}
	var value int64
	if err := json.Unmarshal(data, &value); err != nil {
		return trace.Wrap(err)
	}
	*d = Duration(value)
	return nil
}
