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

// Package alert delivers notifications when a collection pass finds
// unhealthy servers: an HTML email over SMTP and a console popup on
// selected Windows hosts.
package alert

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/gravitational/vaultwatch/lib/constants"
	"github.com/gravitational/vaultwatch/lib/defaults"
	"github.com/gravitational/vaultwatch/lib/health"
	"github.com/gravitational/vaultwatch/lib/status"
	"github.com/gravitational/vaultwatch/lib/utils"

	"github.com/gravitational/trace"
	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"
)

// Commander executes a remote command on a Windows host.
type Commander interface {
	Run(ctx context.Context, server, command string) (string, error)
}

// Mailer delivers a prepared email message.
type Mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTP configures the alert email account.
type SMTP struct {
	// Host is the SMTP server host. Email is skipped when empty
	Host string
	// Port is the SMTP server port
	Port int
	// Username authenticates to the SMTP server when set
	Username string
	// Password is the SMTP account password
	Password string
	// From is the sender address
	From string
	// To lists the recipient addresses
	To []string
}

// Config configures a Notifier.
type Config struct {
	// SMTP configures alert email delivery
	SMTP SMTP
	// PopupHosts lists Windows hosts that receive a console popup
	PopupHosts []string
	// Commander executes the remote popup commands. Required when
	// PopupHosts is set
	Commander Commander
	// FieldLogger is the logger
	logrus.FieldLogger
	// mailer specifies the email delivery implementation.
	// Overridden in tests
	mailer Mailer
	// retryAttempts and retryPeriod control email delivery retries.
	// Overridden in tests
	retryAttempts int
	retryPeriod   time.Duration
}

func (r *Config) checkAndSetDefaults() error {
	if r.SMTP.Host != "" {
		if r.SMTP.From == "" {
			return trace.BadParameter("alert sender address is not set")
		}
		if len(r.SMTP.To) == 0 {
			return trace.BadParameter("alert recipient list is empty")
		}
		if r.SMTP.Port == 0 {
			r.SMTP.Port = defaults.SMTPPort
		}
	}
	if len(r.PopupHosts) != 0 && r.Commander == nil {
		return trace.BadParameter("popup alerts require a command runner")
	}
	if r.FieldLogger == nil {
		r.FieldLogger = logrus.WithField(trace.Component, constants.ComponentAlert)
	}
	if r.mailer == nil && r.SMTP.Host != "" {
		r.mailer = gomail.NewDialer(r.SMTP.Host, r.SMTP.Port, r.SMTP.Username, r.SMTP.Password)
	}
	if r.retryAttempts == 0 {
		r.retryAttempts = defaults.SMTPRetryAttempts
	}
	if r.retryPeriod == 0 {
		r.retryPeriod = defaults.SMTPRetryPeriod
	}
	return nil
}

// New creates a Notifier from config.
func New(config Config) (*Notifier, error) {
	if err := config.checkAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return &Notifier{config: config}, nil
}

// Notifier delivers alerts about an unhealthy fleet.
type Notifier struct {
	config Config
}

// Notify delivers the configured alerts if the pass found unhealthy
// servers. A healthy fleet never alerts. Delivery paths are attempted
// independently and failures are folded into the aggregate error.
func (r *Notifier) Notify(ctx context.Context, result *status.Status) error {
	if result.Fleet != health.StatusBad {
		r.config.Debug("Fleet is healthy, no alert.")
		return nil
	}
	var errors []error
	if r.config.SMTP.Host != "" {
		if err := r.email(ctx, result); err != nil {
			r.config.WithError(err).Warn("Failed to deliver alert email.")
			errors = append(errors, err)
		}
	}
	for _, host := range r.config.PopupHosts {
		if err := r.popup(ctx, host, result); err != nil {
			r.config.WithError(err).Warnf("Failed to deliver popup to %v.", host)
			errors = append(errors, err)
		}
	}
	return trace.NewAggregate(errors...)
}

// email renders and delivers the alert email, retrying transient SMTP
// failures.
func (r *Notifier) email(ctx context.Context, result *status.Status) error {
	body, err := renderEmail(result)
	if err != nil {
		return trace.Wrap(err)
	}
	m := gomail.NewMessage()
	m.SetHeader("From", r.config.SMTP.From)
	m.SetHeader("To", r.config.SMTP.To...)
	m.SetHeader("Subject", subject(result))
	m.SetBody("text/html", body)
	err = utils.Retry(ctx, r.config.retryAttempts, r.config.retryPeriod, func() error {
		return r.config.mailer.DialAndSend(m)
	})
	return trace.Wrap(err)
}

func (r *Notifier) popup(ctx context.Context, host string, result *status.Status) error {
	command := fmt.Sprintf("msg * /time:%v '%v'",
		popupSeconds, strings.ReplaceAll(popupText(result), "'", "''"))
	if _, err := r.config.Commander.Run(ctx, host, command); err != nil {
		return trace.Wrap(err, "failed to deliver popup to %v", host)
	}
	return nil
}

// popupSeconds is how long the console popup stays on screen
const popupSeconds = 300

func subject(result *status.Status) string {
	return fmt.Sprintf("CyberArk vault status: %v unhealthy server(s)", len(unhealthy(result)))
}

func popupText(result *status.Status) string {
	servers := make([]string, 0)
	for _, verdict := range unhealthy(result) {
		servers = append(servers, verdict.Server)
	}
	return fmt.Sprintf("CyberArk vault monitoring: %v unhealthy server(s): %v. Check the vault status page.",
		len(servers), strings.Join(servers, ", "))
}

// unhealthy returns the bad server verdicts in display order
func unhealthy(result *status.Status) (verdicts []serverAlert) {
	for _, group := range result.Groups {
		for _, server := range group.Servers {
			if server.Status == health.StatusBad {
				verdicts = append(verdicts, serverAlert{
					Server:  server.Server,
					Role:    group.Role,
					Message: server.Message,
				})
			}
		}
	}
	return verdicts
}

// failedBackups returns the backup tasks that did not succeed
func failedBackups(result *status.Status) (backups []status.BackupStatus) {
	for _, backup := range result.Backups {
		if backup.Outcome != health.OutcomeSuccess {
			backups = append(backups, backup)
		}
	}
	return backups
}

func renderEmail(result *status.Status) (string, error) {
	var out bytes.Buffer
	err := emailBody.Execute(&out, map[string]interface{}{
		"Timestamp": result.Timestamp.Format("02 Jan 2006 15:04:05 MST"),
		"Servers":   unhealthy(result),
		"Backups":   failedBackups(result),
		"RunID":     result.RunID,
	})
	if err != nil {
		return "", trace.Wrap(err)
	}
	return out.String(), nil
}

type serverAlert struct {
	Server  string
	Role    health.Role
	Message string
}

var emailBody = template.Must(template.New("alert-email").Parse(`<p>The CyberArk vault status check at {{.Timestamp}} found problems:</p>
<ul>
{{- range .Servers}}
<li><b>{{.Server}}</b> ({{.Role}}): {{.Message}}</li>
{{- end}}
</ul>
{{- if .Backups}}
<p>Backup tasks without a successful last run:</p>
<ul>
{{- range .Backups}}
<li><b>{{.TaskName}}</b>{{if .Error}}: {{.Error}}{{end}}</li>
{{- end}}
</ul>
{{- end}}
<p>Run {{.RunID}}.</p>
`))
