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

package config

import (
	"os"
	"testing"
	"time"

	"github.com/gravitational/vaultwatch/lib/constants"
	"github.com/gravitational/vaultwatch/lib/defaults"
	"github.com/gravitational/vaultwatch/lib/health"

	"github.com/gravitational/trace"
	. "gopkg.in/check.v1"
)

func TestConfig(t *testing.T) { TestingT(t) }

type ConfigSuite struct{}

var _ = Suite(&ConfigSuite{})

const configDocument = `maintenanceMessage: "Patching window Saturday 22:00"
refreshInterval: 2m
output:
  path: /tmp/status.html
  destinations:
    - /srv/www/portal-a
    - /srv/www/portal-b
fetch:
  username: monitor@example.com
  password: secret
  timeout: 45s
groups:
  - role: web-portal
    servers: [pvwa-1, pvwa-2]
  - role: session-manager
    servers: [psm-1]
backup:
  host: vault-1
alerts:
  enabled: true
  smtp:
    host: mail.example.com
    from: vaultwatch@example.com
    to: [ops@example.com]
  popupHosts: [pvwa-1]
metrics:
  textfileDir: /var/lib/node_exporter
`

func (*ConfigSuite) TestParsesConfigurationDocument(c *C) {
	config, err := FromBytes([]byte(configDocument))
	c.Assert(err, IsNil)
	c.Assert(config.CheckAndSetDefaults(), IsNil)

	c.Assert(config.MaintenanceMessage, Equals, "Patching window Saturday 22:00")
	c.Assert(config.RefreshInterval.Duration(), Equals, 2*time.Minute)
	c.Assert(config.Output.Path, Equals, "/tmp/status.html")
	c.Assert(config.Output.Destinations, DeepEquals, []string{"/srv/www/portal-a", "/srv/www/portal-b"})
	c.Assert(config.Fetch.Username, Equals, "monitor@example.com")
	c.Assert(config.Fetch.Timeout.Duration(), Equals, 45*time.Second)
	c.Assert(config.Groups, DeepEquals, []Group{
		{Role: health.RoleWebPortal, Servers: []string{"pvwa-1", "pvwa-2"}},
		{Role: health.RoleSessionManager, Servers: []string{"psm-1"}},
	})
	c.Assert(config.Backup.Host, Equals, "vault-1")
	c.Assert(config.Alerts.Enabled, Equals, true)
	c.Assert(config.Alerts.SMTP.Host, Equals, "mail.example.com")
	c.Assert(config.Metrics.TextfileDir, Equals, "/var/lib/node_exporter")
}

func (*ConfigSuite) TestFillsDefaults(c *C) {
	config := &Config{
		Groups: []Group{
			{Role: health.RoleConnector, Servers: []string{"psmp-1"}},
		},
	}
	c.Assert(config.CheckAndSetDefaults(), IsNil)

	c.Assert(config.RefreshInterval.Duration(), Equals, defaults.RefreshInterval)
	c.Assert(config.Output.Path, Equals, defaults.OutputPath)
	c.Assert(config.Fetch.Source, Equals, constants.SourceWinRM)
	c.Assert(config.Fetch.Port, Equals, defaults.WinRMPort)
	c.Assert(config.Fetch.Timeout.Duration(), Equals, defaults.FetchTimeout)
	c.Assert(config.Backup.FullTask, Equals, defaults.FullBackupTask)
	c.Assert(config.Backup.IncrementalTask, Equals, defaults.IncrementalBackupTask)
	// backup host falls back to the first configured server
	c.Assert(config.Backup.Host, Equals, "psmp-1")
}

func (*ConfigSuite) TestDefaultsPortFromTransport(c *C) {
	config := &Config{
		Fetch: FetchConfig{UseHTTPS: true},
		Groups: []Group{
			{Role: health.RoleWebPortal, Servers: []string{"pvwa-1"}},
		},
	}
	c.Assert(config.CheckAndSetDefaults(), IsNil)
	c.Assert(config.Fetch.Port, Equals, defaults.WinRMPortHTTPS)
}

func (*ConfigSuite) TestReadsPasswordsFromEnvironment(c *C) {
	os.Setenv(constants.EnvWinRMPassword, "winrm-secret")
	os.Setenv(constants.EnvSMTPPassword, "smtp-secret")
	defer os.Unsetenv(constants.EnvWinRMPassword)
	defer os.Unsetenv(constants.EnvSMTPPassword)

	config := &Config{
		Groups: []Group{
			{Role: health.RolePolicyManager, Servers: []string{"cpm-1"}},
		},
	}
	c.Assert(config.CheckAndSetDefaults(), IsNil)
	c.Assert(config.Fetch.Password, Equals, "winrm-secret")
	c.Assert(config.Alerts.SMTP.Password, Equals, "smtp-secret")
}

func (*ConfigSuite) TestValidatesConfiguration(c *C) {
	var testCases = []struct {
		config  Config
		comment string
	}{
		{
			config:  Config{},
			comment: "empty fleet",
		},
		{
			config: Config{
				Groups: []Group{{Role: "frontend", Servers: []string{"host-1"}}},
			},
			comment: "unknown role",
		},
		{
			config: Config{
				Groups: []Group{{Role: health.RoleWebPortal}},
			},
			comment: "group without servers",
		},
		{
			config: Config{
				Fetch:  FetchConfig{Source: "ssh"},
				Groups: []Group{{Role: health.RoleWebPortal, Servers: []string{"pvwa-1"}}},
			},
			comment: "unknown inventory source",
		},
		{
			config: Config{
				Groups: []Group{{Role: health.RoleWebPortal, Servers: []string{"pvwa-1"}}},
				Alerts: AlertsConfig{Enabled: true},
			},
			comment: "alerts enabled without delivery paths",
		},
		{
			config: Config{
				Groups: []Group{{Role: health.RoleWebPortal, Servers: []string{"pvwa-1"}}},
				Alerts: AlertsConfig{
					Enabled: true,
					SMTP:    SMTPConfig{Host: "mail.example.com"},
				},
			},
			comment: "SMTP alerts without sender",
		},
		{
			config: Config{
				Groups: []Group{{Role: health.RoleWebPortal, Servers: []string{"pvwa-1"}}},
				Alerts: AlertsConfig{
					Enabled: true,
					SMTP: SMTPConfig{
						Host: "mail.example.com",
						From: "vaultwatch@example.com",
					},
				},
			},
			comment: "SMTP alerts without recipients",
		},
	}
	for _, testCase := range testCases {
		config := testCase.config
		err := config.CheckAndSetDefaults()
		c.Assert(err, NotNil, Commentf(testCase.comment))
		c.Assert(trace.IsBadParameter(err), Equals, true, Commentf(testCase.comment))
	}
}

func (*ConfigSuite) TestRejectsMalformedDuration(c *C) {
	_, err := FromBytes([]byte(`refreshInterval: fast`))
	c.Assert(err, NotNil)
}

func (*ConfigSuite) TestListsServersInGroupOrder(c *C) {
	config := &Config{
		Groups: []Group{
			{Role: health.RoleWebPortal, Servers: []string{"pvwa-1", "pvwa-2"}},
			{Role: health.RoleConnector, Servers: []string{"psmp-1"}},
		},
	}
	c.Assert(config.Servers(), DeepEquals, []string{"pvwa-1", "pvwa-2", "psmp-1"})
}
