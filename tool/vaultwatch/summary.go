package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gravitational/vaultwatch/lib/health"
	"github.com/gravitational/vaultwatch/lib/status"

	"github.com/fatih/color"
	"github.com/gravitational/trace"
)

// statusConfig carries the command line settings of the status command.
type statusConfig struct {
	options
	jsonOut bool
	pretty  bool
}

// statusSummary runs a collection pass and reports the result on the
// terminal without publishing anything. Returns false when the fleet is
// found unhealthy.
func statusSummary(config statusConfig) (ok bool, err error) {
	conf, err := loadConfig(config.options)
	if err != nil {
		return false, trace.Wrap(err)
	}
	if err := conf.CheckAndSetDefaults(); err != nil {
		return false, trace.Wrap(err)
	}
	source, err := newSource(conf)
	if err != nil {
		return false, trace.Wrap(err)
	}
	runner, err := status.New(status.Config{
		Groups:      groupsFromConfig(conf),
		Inventory:   source,
		Tasks:       source,
		BackupHost:  conf.Backup.Host,
		BackupTasks: []string{conf.Backup.FullTask, conf.Backup.IncrementalTask},
		Timeout:     conf.Fetch.Timeout.Duration(),
	})
	if err != nil {
		return false, trace.Wrap(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.timeout)
	defer cancel()

	result, err := runner.Run(ctx)
	if err != nil {
		return false, trace.Wrap(err)
	}

	if config.jsonOut {
		var blob []byte
		if config.pretty {
			blob, err = json.MarshalIndent(result, "", "   ")
		} else {
			blob, err = json.Marshal(result)
		}
		if err != nil {
			return false, trace.Wrap(err, "failed to marshal status data")
		}
		if _, err = os.Stdout.Write(blob); err != nil {
			return false, trace.Wrap(err, "failed to output status")
		}
	} else {
		printSummary(os.Stdout, result, conf.Backup.Host, config.pretty)
	}
	return result.Fleet == health.StatusGood, nil
}

// printSummary renders the collected status as a terminal listing.
// With verbose set, each server line is followed by the state of every
// watched service.
func printSummary(w io.Writer, result *status.Status, backupHost string, verbose bool) {
	fmt.Fprintf(w, "Vault fleet status at %v\n", result.Timestamp.Format(summaryTimeFormat))
	for _, group := range result.Groups {
		fmt.Fprintf(w, "\n%v\n", group.Role)
		for _, server := range group.Servers {
			fmt.Fprintf(w, "  %-24v %v  %v\n", server.Server, statusText(server.Status), server.Message)
			if !verbose {
				continue
			}
			for _, service := range server.Services {
				fmt.Fprintf(w, "      %-44v %v (%v)\n", service.Service, service.State, service.StartMode)
			}
		}
	}
	if len(result.Backups) != 0 {
		fmt.Fprintf(w, "\nBackup tasks on %v\n", backupHost)
		for _, backup := range result.Backups {
			fmt.Fprintf(w, "  %-26v %v  last run %v, next run %v (%v)\n",
				backup.TaskName, outcomeText(backup.Outcome),
				formatRunTime(backup.LastRunTime), formatRunTime(backup.NextRunTime),
				backupDetail(backup))
		}
	}
	fmt.Fprintf(w, "\nFleet: %v\n", statusText(result.Fleet))
}

var degraded = color.New(color.FgRed, color.Bold)

func statusText(status health.Status) string {
	if status == health.StatusGood {
		return color.GreenString("%-8v", "healthy")
	}
	return degraded.Sprintf("%-8v", "DEGRADED")
}

func outcomeText(outcome health.Outcome) string {
	if outcome == health.OutcomeSuccess {
		return color.GreenString("%-6v", "ok")
	}
	return degraded.Sprintf("%-6v", "FAILED")
}

func backupDetail(backup status.BackupStatus) string {
	if backup.Error != "" {
		return backup.Error
	}
	if backup.LastResult != nil {
		return fmt.Sprintf("exit code %v", *backup.LastResult)
	}
	return "no result reported"
}

const summaryTimeFormat = "02 Jan 2006 15:04:05 MST"

func formatRunTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(summaryTimeFormat)
}
