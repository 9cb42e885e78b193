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

// Package report renders a collection pass into the static HTML status
// page served by the web portal servers.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/gravitational/vaultwatch/lib/constants"
	"github.com/gravitational/vaultwatch/lib/health"
	"github.com/gravitational/vaultwatch/lib/status"
	"github.com/gravitational/vaultwatch/lib/utils"

	"github.com/gravitational/trace"
	"github.com/gravitational/version"
)

// Config configures page rendering.
type Config struct {
	// MaintenanceMessage is an optional banner shown at the top of the page
	MaintenanceMessage string
	// RefreshInterval is the browser auto-refresh interval. Zero disables
	// the refresh directive
	RefreshInterval time.Duration
}

// Render renders a collection pass as a complete HTML document.
func Render(result *status.Status, config Config) ([]byte, error) {
	var out bytes.Buffer
	if err := statusPage.Execute(&out, newPage(result, config)); err != nil {
		return nil, trace.Wrap(err)
	}
	return out.Bytes(), nil
}

// WriteFile renders a collection pass and atomically writes the document
// to path.
func WriteFile(path string, result *status.Status, config Config) error {
	document, err := Render(result, config)
	if err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(utils.SafeWriteFile(path, document, constants.SharedReadMask))
}

type page struct {
	Maintenance    string
	RefreshSeconds int
	GeneratedAt    string
	Fleet          banner
	Backups        []backupView
	Groups         []groupView
	RunID          string
	Version        string
}

type banner struct {
	Class   string
	Message string
}

type groupView struct {
	Title   string
	Class   string
	Servers []serverView
}

type serverView struct {
	Name     string
	Class    string
	Message  string
	Services []serviceView
}

type serviceView struct {
	Name  string
	State string
	Class string
}

type backupView struct {
	Name    string
	Class   string
	Glyph   string
	LastRun string
	NextRun string
	Detail  string
}

// Fleet banner wording. These are page furniture, distinct from the
// per-server classification messages.
const (
	bannerFleetGood = "ALL MONITORED SERVERS ARE HEALTHY"
	bannerFleetBad  = "ONE OR MORE SERVERS REQUIRE ATTENTION!"
)

var roleTitles = map[health.Role]string{
	health.RoleWebPortal:      "Web Portal Servers",
	health.RoleConnector:      "Connector Servers",
	health.RolePolicyManager:  "Policy Manager Servers",
	health.RoleSessionManager: "Session Manager Servers",
}

var outcomeGlyphs = map[string]string{
	"check": "✔",
	"cross": "✘",
}

func newPage(result *status.Status, config Config) *page {
	p := &page{
		Maintenance:    config.MaintenanceMessage,
		RefreshSeconds: int(config.RefreshInterval.Seconds()),
		GeneratedAt:    result.Timestamp.Format(timestampFormat),
		Fleet:          newBanner(result.Fleet),
		RunID:          result.RunID,
		Version:        version.Get().Version,
	}
	for _, backup := range result.Backups {
		p.Backups = append(p.Backups, newBackupView(backup))
	}
	for _, group := range result.Groups {
		p.Groups = append(p.Groups, newGroupView(group))
	}
	return p
}

func newBanner(fleet health.Status) banner {
	if fleet == health.StatusGood {
		return banner{Class: string(fleet), Message: bannerFleetGood}
	}
	return banner{Class: string(fleet), Message: bannerFleetBad}
}

func newGroupView(group status.GroupStatus) groupView {
	view := groupView{
		Title: roleTitle(group.Role),
		Class: string(group.Status),
	}
	for _, server := range group.Servers {
		view.Servers = append(view.Servers, newServerView(server))
	}
	return view
}

func newServerView(server status.ServerStatus) serverView {
	view := serverView{
		Name:    server.Server,
		Class:   string(server.Status),
		Message: server.Message,
	}
	for _, service := range server.Services {
		view.Services = append(view.Services, serviceView{
			Name:  service.Service,
			State: string(service.State),
			Class: serviceClass(service.State),
		})
	}
	return view
}

func newBackupView(backup status.BackupStatus) backupView {
	view := backupView{
		Name:    backup.TaskName,
		Class:   backup.Outcome.Color,
		Glyph:   glyph(backup.Outcome.Icon),
		LastRun: formatTime(backup.LastRunTime),
		NextRun: formatTime(backup.NextRunTime),
	}
	switch {
	case backup.Error != "":
		view.Detail = backup.Error
	case backup.LastResult != nil:
		view.Detail = fmt.Sprintf("exit code %v", *backup.LastResult)
	default:
		view.Detail = "no result reported"
	}
	return view
}

func roleTitle(role health.Role) string {
	if title, ok := roleTitles[role]; ok {
		return title
	}
	return string(role)
}

func serviceClass(state health.RunState) string {
	switch state {
	case health.RunStateRunning:
		return "good"
	case health.RunStateStopped:
		return "bad"
	}
	return "warn"
}

func glyph(icon string) string {
	if g, ok := outcomeGlyphs[icon]; ok {
		return g
	}
	return icon
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(timestampFormat)
}

const timestampFormat = "02 Jan 2006 15:04:05 MST"

var statusPage = template.Must(template.New("status-page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
{{- if .RefreshSeconds}}
<meta http-equiv="refresh" content="{{.RefreshSeconds}}">
{{- end}}
<title>CyberArk Vault Status</title>
<style>
body { font-family: Verdana, Arial, sans-serif; margin: 24px; background: #f7f7f7; color: #222; }
h1 { font-size: 20px; }
h2 { font-size: 15px; margin-bottom: 4px; }
h2.good { color: #2e7d32; }
h2.bad { color: #c62828; }
.banner { padding: 12px; font-weight: bold; color: #fff; }
.banner.good { background: #2e7d32; }
.banner.bad { background: #c62828; }
.maintenance { padding: 10px; background: #fff3cd; border: 1px solid #ffe69c; margin-bottom: 12px; }
.timestamp { color: #555; font-size: 12px; }
table { border-collapse: collapse; margin: 4px 0 16px 0; background: #fff; }
th, td { border: 1px solid #ccc; padding: 6px 10px; font-size: 13px; text-align: left; vertical-align: top; }
th { background: #eee; }
td.status.good { color: #2e7d32; font-weight: bold; }
td.status.bad { color: #c62828; font-weight: bold; }
.service.good { color: #2e7d32; }
.service.bad { color: #c62828; }
.service.warn { color: #b26a00; }
.backup { margin: 4px 0; font-size: 13px; }
.backup .green { color: #2e7d32; font-weight: bold; }
.backup .red { color: #c62828; font-weight: bold; }
.footer { color: #777; font-size: 11px; margin-top: 24px; }
</style>
</head>
<body>
{{- if .Maintenance}}
<div class="maintenance">{{.Maintenance}}</div>
{{- end}}
<h1>CyberArk Privileged Access Security: Vault Status</h1>
<div class="banner {{.Fleet.Class}}">{{.Fleet.Message}}</div>
<p class="timestamp">Last checked: {{.GeneratedAt}}</p>
{{- if .Backups}}
<h2>Scheduled Backups</h2>
{{- range .Backups}}
<div class="backup"><span class="{{.Class}}">{{.Glyph}} {{.Name}}</span>: last run {{.LastRun}}, next run {{.NextRun}} ({{.Detail}})</div>
{{- end}}
{{- end}}
{{- range .Groups}}
<h2 class="{{.Class}}">{{.Title}}</h2>
<table>
<tr><th>Server</th><th>Status</th><th>Services</th></tr>
{{- range .Servers}}
<tr>
<td>{{.Name}}</td>
<td class="status {{.Class}}">{{.Message}}</td>
<td>
{{- range .Services}}
<div class="service {{.Class}}">{{.Name}}: {{.State}}</div>
{{- end}}
{{- if not .Services}}
<div class="service bad">no data</div>
{{- end}}
</td>
</tr>
{{- end}}
</table>
{{- end}}
<div class="footer">vaultwatch {{.Version}}, run {{.RunID}}</div>
</body>
</html>
`))
