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

// Package monitoring queries Windows service and scheduled task state on
// the monitored servers. Two sources are available: a WinRM source that
// runs PowerShell queries remotely, and a native WMI source for pollers
// that run on a Windows host themselves.
package monitoring

import (
	"context"
	"time"

	"github.com/gravitational/vaultwatch/lib/constants"
	"github.com/gravitational/vaultwatch/lib/defaults"
	"github.com/gravitational/vaultwatch/lib/health"

	"github.com/gravitational/trace"
	"github.com/sirupsen/logrus"
)

// Inventory queries the state of the watched services on a single server.
type Inventory interface {
	// Services returns one observation per watched service found on server
	Services(ctx context.Context, server string) ([]health.Observation, error)
}

// Tasks queries scheduled task state on a single server.
type Tasks interface {
	// Task returns the state of the named scheduled task on server
	Task(ctx context.Context, server, task string) (*health.BackupTaskResult, error)
}

// Source combines service inventory and scheduled task queries.
type Source interface {
	Inventory
	Tasks
}

// Config configures a query source.
type Config struct {
	// Source selects the transport, "winrm" or "wmi"
	Source string
	// Port is the WinRM listener port on the monitored servers
	Port int
	// UseHTTPS selects the HTTPS WinRM transport
	UseHTTPS bool
	// Insecure skips certificate verification on the HTTPS transport
	Insecure bool
	// Username is the account the queries run as
	Username string
	// Password is the query account password
	Password string
	// Timeout bounds the underlying transport operations
	Timeout time.Duration
	// Services lists the service names to observe
	Services []string
	// FieldLogger is the logger for query diagnostics
	logrus.FieldLogger
}

func (c *Config) checkAndSetDefaults() error {
	if c.Source == "" {
		c.Source = constants.SourceWinRM
	}
	if c.Port == 0 {
		c.Port = defaults.WinRMPort
		if c.UseHTTPS {
			c.Port = defaults.WinRMPortHTTPS
		}
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.FetchTimeout
	}
	if len(c.Services) == 0 {
		c.Services = defaults.WatchedServices
	}
	if c.FieldLogger == nil {
		c.FieldLogger = logrus.WithField(trace.Component, constants.ComponentMonitoring)
	}
	return nil
}

// New creates the query source selected by config.
func New(config Config) (Source, error) {
	if err := config.checkAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	switch config.Source {
	case constants.SourceWinRM:
		return NewWinRM(config)
	case constants.SourceWMI:
		return NewWMI(config)
	}
	return nil, trace.BadParameter("unknown inventory source %q, expected %q or %q",
		config.Source, constants.SourceWinRM, constants.SourceWMI)
}
