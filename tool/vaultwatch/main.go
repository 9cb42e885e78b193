package main

import (
	"fmt"
	"os"

	"github.com/gravitational/vaultwatch/lib/constants"
	"github.com/gravitational/vaultwatch/lib/defaults"

	"github.com/gravitational/trace"
	"github.com/gravitational/version"
	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

func main() {
	var exitCode int
	var err error

	if err = run(); err != nil {
		log.Errorf("Failed to run: %v.", trace.DebugReport(err))
		exitCode = constants.ExitCodeUnknown
		if errExit, ok := trace.Unwrap(err).(*exitError); ok {
			exitCode = errExit.Code
		}
	}
	os.Exit(exitCode)
}

func run() error {
	var (
		app   = kingpin.New("vaultwatch", "Vaultwatch polls the health of a CyberArk PAS fleet and publishes an HTML status page")
		debug = app.Flag("debug", "Enable debug mode").OverrideDefaultFromEnvar(EnvDebug).Bool()

		cversion = app.Command("version", "Print version information")

		// run a single collection and publication pass
		crun             = app.Command("run", "Run a single collection pass and publish the status page")
		crunConfigFile   = crun.Flag("config-file", "Path to the configuration file").Default(defaults.ConfigPath).OverrideDefaultFromEnvar(EnvConfigFile).String()
		crunEnvFile      = crun.Flag("env-file", "File with environment variables to load before reading the configuration").OverrideDefaultFromEnvar(EnvEnvFile).String()
		crunOutput       = crun.Flag("output", "Override the location the status page is written to").OverrideDefaultFromEnvar(EnvOutput).String()
		crunDestinations = List(crun.Flag("destination", "Override the directories the status page is copied to. Can be specified multiple times").OverrideDefaultFromEnvar(EnvDestinations))
		crunMaintenance  = crun.Flag("maintenance", "Set a maintenance banner on the status page").OverrideDefaultFromEnvar(EnvMaintenance).String()
		crunRefresh      = crun.Flag("refresh-interval", "Override the browser auto-refresh interval of the status page").OverrideDefaultFromEnvar(EnvRefreshInterval).Duration()
		crunServers      = KeyValueList(crun.Flag("server", "Replace the configured fleet with host:role pairs, e.g. pvwa-1:web-portal. Can be specified multiple times").OverrideDefaultFromEnvar(EnvServers))
		crunBackupTasks  = KeyValueList(crun.Flag("backup-task", "Override a scheduled backup task name as kind:name, e.g. full:VaultFullBackup").OverrideDefaultFromEnvar(EnvBackupTasks))
		crunSkipPublish  = crun.Flag("skip-publish", "Render the status page but do not copy it to the destinations").Bool()
		crunSkipAlerts   = crun.Flag("skip-alerts", "Do not deliver alerts even if the fleet is unhealthy").Bool()
		crunTimeout      = crun.Flag("timeout", "Collection pass timeout").Default(PollTimeout.String()).Duration()

		// report the fleet status on the terminal without publishing
		cstatus            = app.Command("status", "Query the fleet and report the status on the terminal")
		cstatusConfigFile  = cstatus.Flag("config-file", "Path to the configuration file").Default(defaults.ConfigPath).OverrideDefaultFromEnvar(EnvConfigFile).String()
		cstatusEnvFile     = cstatus.Flag("env-file", "File with environment variables to load before reading the configuration").OverrideDefaultFromEnvar(EnvEnvFile).String()
		cstatusJSON        = cstatus.Flag("json", "Output the collected status as JSON").Bool()
		cstatusPrettyPrint = cstatus.Flag("pretty", "Pretty-print the JSON output, or list individual services in the terminal output").Default("false").Bool()
		cstatusTimeout     = cstatus.Flag("timeout", "Collection pass timeout").Default(PollTimeout.String()).Duration()

		// validate the configuration without touching the fleet
		ccheck           = app.Command("check", "Validate the configuration and the runtime environment")
		ccheckConfigFile = ccheck.Flag("config-file", "Path to the configuration file").Default(defaults.ConfigPath).OverrideDefaultFromEnvar(EnvConfigFile).String()
		ccheckEnvFile    = ccheck.Flag("env-file", "File with environment variables to load before reading the configuration").OverrideDefaultFromEnvar(EnvEnvFile).String()
	)

	cmd, err := app.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed parsing command line arguments: %s.\nTry vaultwatch --help\n", err.Error())
		return err
	}

	if *debug {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.InfoLevel)
	}

	switch cmd {

	// "version" command
	case cversion.FullCommand():
		version.Print()

	// "run" command
	case crun.FullCommand():
		err = runPoll(pollConfig{
			options: options{
				configPath: *crunConfigFile,
				envFile:    *crunEnvFile,
				timeout:    *crunTimeout,
			},
			outputPath:   *crunOutput,
			destinations: *crunDestinations,
			maintenance:  *crunMaintenance,
			refresh:      *crunRefresh,
			servers:      *crunServers,
			backupTasks:  *crunBackupTasks,
			skipPublish:  *crunSkipPublish,
			skipAlerts:   *crunSkipAlerts,
		})

	// "status" command
	case cstatus.FullCommand():
		var ok bool
		ok, err = statusSummary(statusConfig{
			options: options{
				configPath: *cstatusConfigFile,
				envFile:    *cstatusEnvFile,
				timeout:    *cstatusTimeout,
			},
			jsonOut: *cstatusJSON,
			pretty:  *cstatusPrettyPrint,
		})
		if err == nil && !ok {
			err = &exitError{Code: ExitCodeDegraded, Reason: "status degraded"}
		}

	// "check" command
	case ccheck.FullCommand():
		err = checkConfig(options{
			configPath: *ccheckConfigFile,
			envFile:    *ccheckEnvFile,
		})

	default:
		err = trace.Errorf("unsupported command: %v", cmd)
	}

	return err
}

// exitError reports a process exit code distinct from the generic
// failure code.
type exitError struct {
	Code   int
	Reason string
}

func (r *exitError) Error() string {
	return r.Reason
}
