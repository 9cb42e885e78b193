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
	"strings"

	"github.com/gravitational/vaultwatch/lib/health"
	"github.com/gravitational/vaultwatch/lib/utils"

	"github.com/gravitational/trace"
	"github.com/masterzen/winrm"
)

// WS-Management parameters for the remote shell
const (
	winrmOperationTimeout = "PT60S"
	winrmLocale           = "en-US"
	winrmEnvelopeSize     = 153600
)

// WinRM queries servers by running PowerShell over the WinRM protocol
// with NTLM authentication.
type WinRM struct {
	config Config
}

// NewWinRM creates a WinRM-backed query source.
func NewWinRM(config Config) (*WinRM, error) {
	if err := config.checkAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	if config.Username == "" || config.Password == "" {
		return nil, trace.BadParameter("WinRM queries require a username and a password")
	}
	return &WinRM{config: config}, nil
}

// Services returns one observation per watched service found on server.
func (r *WinRM) Services(ctx context.Context, server string) ([]health.Observation, error) {
	output, err := r.run(ctx, server, servicesCommand(r.config.Services))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	observations, err := parseServices(server, []byte(output))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return observations, nil
}

// Task returns the state of the named scheduled task on server.
func (r *WinRM) Task(ctx context.Context, server, task string) (*health.BackupTaskResult, error) {
	output, err := r.run(ctx, server, taskCommand(task))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	result, err := parseTask([]byte(output))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return result, nil
}

// Run executes an arbitrary PowerShell command on server and returns its
// standard output. Used for alert popups next to the fixed queries above.
func (r *WinRM) Run(ctx context.Context, server, command string) (string, error) {
	return r.run(ctx, server, command)
}

// run executes a PowerShell command on server and returns its standard
// output.
func (r *WinRM) run(ctx context.Context, server, command string) (string, error) {
	host, port := utils.SplitHostPort(server, r.config.Port)
	endpoint := winrm.NewEndpoint(host, port, r.config.UseHTTPS, r.config.Insecure,
		nil, nil, nil, r.config.Timeout)
	params := winrm.NewParameters(winrmOperationTimeout, winrmLocale, winrmEnvelopeSize)
	params.TransportDecorator = func() winrm.Transporter { return &winrm.ClientNTLM{} }
	client, err := winrm.NewClientWithParameters(endpoint, r.config.Username, r.config.Password, params)
	if err != nil {
		return "", trace.Wrap(err)
	}
	stdout, stderr, exitCode, err := client.RunWithContextWithString(ctx, winrm.Powershell(command), "")
	if err != nil {
		return "", trace.Wrap(err, "failed to query %v", server)
	}
	if exitCode != 0 {
		return "", trace.BadParameter("remote query on %v exited with %v: %v",
			server, exitCode, strings.TrimSpace(stderr))
	}
	if stderr = strings.TrimSpace(stderr); stderr != "" {
		r.config.Warnf("Remote query on %v wrote to stderr: %v.", server, stderr)
	}
	return stdout, nil
}
