package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gravitational/vaultwatch/lib/alert"
	"github.com/gravitational/vaultwatch/lib/check"
	"github.com/gravitational/vaultwatch/lib/config"
	"github.com/gravitational/vaultwatch/lib/constants"
	"github.com/gravitational/vaultwatch/lib/health"
	"github.com/gravitational/vaultwatch/lib/metrics"
	"github.com/gravitational/vaultwatch/lib/monitoring"
	"github.com/gravitational/vaultwatch/lib/publish"
	"github.com/gravitational/vaultwatch/lib/report"
	"github.com/gravitational/vaultwatch/lib/status"

	"github.com/davecgh/go-spew/spew"
	kv "github.com/gravitational/configure"
	"github.com/gravitational/trace"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// options carries the command line settings shared by all commands.
type options struct {
	configPath string
	envFile    string
	timeout    time.Duration
}

// pollConfig carries the command line settings of the run command.
type pollConfig struct {
	options
	outputPath   string
	destinations list
	maintenance  string
	refresh      time.Duration
	servers      kv.KeyVal
	backupTasks  kv.KeyVal
	skipPublish  bool
	skipAlerts   bool
}

// runPoll executes a complete pass: collect the fleet status, render and
// publish the status page and deliver the configured side outputs. The
// fleet being unhealthy is a result, not an error: the pass succeeds as
// long as every step completed.
func runPoll(config pollConfig) error {
	conf, err := loadConfig(config.options)
	if err != nil {
		return trace.Wrap(err)
	}
	applyOverrides(conf, config)
	if err := conf.CheckAndSetDefaults(); err != nil {
		return trace.Wrap(err)
	}
	if err := check.Preflight(conf); err != nil {
		return trace.Wrap(err)
	}
	source, err := newSource(conf)
	if err != nil {
		return trace.Wrap(err)
	}
	var diagnose func(ctx context.Context, server string)
	if conf.Fetch.Diagnostics {
		logger := log.WithField(trace.Component, constants.ComponentMonitoring)
		diagnose = func(ctx context.Context, server string) {
			monitoring.Diagnose(ctx, logger, server)
		}
	}
	runner, err := status.New(status.Config{
		Groups:      groupsFromConfig(conf),
		Inventory:   source,
		Tasks:       source,
		BackupHost:  conf.Backup.Host,
		BackupTasks: []string{conf.Backup.FullTask, conf.Backup.IncrementalTask},
		Timeout:     conf.Fetch.Timeout.Duration(),
		Diagnose:    diagnose,
	})
	if err != nil {
		return trace.Wrap(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.timeout)
	defer cancel()

	started := time.Now()
	result, err := runner.Run(ctx)
	if err != nil {
		return trace.Wrap(err)
	}
	elapsed := time.Since(started)
	log.Debug("Collected fleet status: ", spew.Sdump(result))

	// from here on every step is attempted even if a previous one failed,
	// with the failures folded into the aggregate
	var errors []error
	if err := report.WriteFile(conf.Output.Path, result, report.Config{
		MaintenanceMessage: conf.MaintenanceMessage,
		RefreshInterval:    conf.RefreshInterval.Duration(),
	}); err != nil {
		errors = append(errors, trace.Wrap(err, "failed to write the status page"))
	} else if config.skipPublish {
		log.Infof("Skipping publication, the status page stays at %v.", conf.Output.Path)
	} else if err := publish.Publish(publish.Config{
		Source:       conf.Output.Path,
		Destinations: conf.Output.Destinations,
	}); err != nil {
		errors = append(errors, trace.Wrap(err))
	}
	if conf.Metrics.TextfileDir != "" {
		if err := metrics.Write(conf.Metrics.TextfileDir, result, elapsed); err != nil {
			errors = append(errors, trace.Wrap(err, "failed to export metrics"))
		}
	}
	if conf.Alerts.Enabled && !config.skipAlerts {
		if err := notify(ctx, conf, source, result); err != nil {
			errors = append(errors, trace.Wrap(err))
		}
	}
	log.Infof("Pass complete in %v, fleet is %v.", elapsed.Round(time.Millisecond), result.Fleet)
	return trace.NewAggregate(errors...)
}

// checkConfig validates the configuration and the runtime environment
// without querying the fleet.
func checkConfig(opts options) error {
	conf, err := loadConfig(opts)
	if err != nil {
		return trace.Wrap(err)
	}
	if err := conf.CheckAndSetDefaults(); err != nil {
		return trace.Wrap(err)
	}
	if err := check.Preflight(conf); err != nil {
		return trace.Wrap(err)
	}
	fmt.Printf("Configuration %v passed preflight checks.\n", opts.configPath)
	return nil
}

// loadConfig reads the environment file if one is configured, then reads
// and parses the configuration file. The caller validates the result
// once its own overrides are applied.
func loadConfig(opts options) (*config.Config, error) {
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil {
			return nil, trace.ConvertSystemError(err)
		}
	} else if err := godotenv.Load(); err == nil {
		log.Debug("Loaded environment from .env.")
	}
	conf, err := config.FromFile(opts.configPath)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return conf, nil
}

// applyOverrides replaces configured values with the ones set on the
// command line.
func applyOverrides(conf *config.Config, overrides pollConfig) {
	if overrides.outputPath != "" {
		conf.Output.Path = overrides.outputPath
	}
	if len(overrides.destinations) != 0 {
		conf.Output.Destinations = overrides.destinations
	}
	if overrides.maintenance != "" {
		conf.MaintenanceMessage = overrides.maintenance
	}
	if overrides.refresh != 0 {
		conf.RefreshInterval = config.Duration(overrides.refresh)
	}
	if len(overrides.servers) != 0 {
		conf.Groups = groupsFromFlags(overrides.servers)
	}
	full, incremental := backupTaskOverrides(overrides.backupTasks)
	if full != "" {
		conf.Backup.FullTask = full
	}
	if incremental != "" {
		conf.Backup.IncrementalTask = incremental
	}
}

// groupsFromFlags folds host:role pairs into server groups, ordered by
// the canonical role order. Unknown roles produce a group that fails
// configuration validation with a descriptive error.
func groupsFromFlags(pairs kv.KeyVal) (groups []config.Group) {
	byRole := map[health.Role][]string{}
	for host, role := range pairs {
		byRole[health.Role(role)] = append(byRole[health.Role(role)], host)
	}
	for _, role := range health.Roles {
		if hosts := byRole[role]; len(hosts) != 0 {
			sort.Strings(hosts)
			groups = append(groups, config.Group{Role: role, Servers: hosts})
			delete(byRole, role)
		}
	}
	unknown := make([]health.Role, 0, len(byRole))
	for role := range byRole {
		unknown = append(unknown, role)
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	for _, role := range unknown {
		hosts := byRole[role]
		sort.Strings(hosts)
		groups = append(groups, config.Group{Role: role, Servers: hosts})
	}
	return groups
}

// newSource builds the service inventory source from configuration.
func newSource(conf *config.Config) (monitoring.Source, error) {
	source, err := monitoring.New(monitoring.Config{
		Source:   conf.Fetch.Source,
		Port:     conf.Fetch.Port,
		UseHTTPS: conf.Fetch.UseHTTPS,
		Insecure: conf.Fetch.Insecure,
		Username: conf.Fetch.Username,
		Password: conf.Fetch.Password,
		Timeout:  conf.Fetch.Timeout.Duration(),
	})
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return source, nil
}

// groupsFromConfig maps the configured server groups onto the runner's
// group type.
func groupsFromConfig(conf *config.Config) (groups []status.Group) {
	for _, group := range conf.Groups {
		groups = append(groups, status.Group{
			Role:    group.Role,
			Servers: group.Servers,
		})
	}
	return groups
}

// notify delivers the configured alerts for an unhealthy fleet.
func notify(ctx context.Context, conf *config.Config, source monitoring.Source, result *status.Status) error {
	// popups can only be delivered over a transport that runs arbitrary
	// remote commands, which the native WMI source does not
	commander, _ := source.(alert.Commander)
	notifier, err := alert.New(alert.Config{
		SMTP: alert.SMTP{
			Host:     conf.Alerts.SMTP.Host,
			Port:     conf.Alerts.SMTP.Port,
			Username: conf.Alerts.SMTP.Username,
			Password: conf.Alerts.SMTP.Password,
			From:     conf.Alerts.SMTP.From,
			To:       conf.Alerts.SMTP.To,
		},
		PopupHosts: conf.Alerts.PopupHosts,
		Commander:  commander,
	})
	if err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(notifier.Notify(ctx, result))
}
