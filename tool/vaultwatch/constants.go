package main

import (
	"time"
)

const (
	// EnvConfigFile names the environment variable that specifies
	// the location of the configuration file
	EnvConfigFile = "VAULTWATCH_CONFIG_FILE"
	// EnvEnvFile names the environment variable that specifies
	// the location of an environment file loaded before the configuration
	EnvEnvFile = "VAULTWATCH_ENV_FILE"
	// EnvOutput names the environment variable that overrides
	// the location the status page is written to
	EnvOutput = "VAULTWATCH_OUTPUT"
	// EnvDestinations names the environment variable that overrides
	// the directories the status page is copied to
	EnvDestinations = "VAULTWATCH_DESTINATIONS"
	// EnvMaintenance names the environment variable that sets
	// the maintenance banner on the status page
	EnvMaintenance = "VAULTWATCH_MAINTENANCE"
	// EnvRefreshInterval names the environment variable that overrides
	// the browser auto-refresh interval of the status page
	EnvRefreshInterval = "VAULTWATCH_REFRESH_INTERVAL"
	// EnvServers names the environment variable that replaces the
	// configured fleet with host:role pairs
	EnvServers = "VAULTWATCH_SERVERS"
	// EnvBackupTasks names the environment variable that overrides
	// the scheduled backup task names as kind:name pairs
	EnvBackupTasks = "VAULTWATCH_BACKUP_TASKS"
	// EnvDebug names the environment variable that enables debug logging
	EnvDebug = "VAULTWATCH_DEBUG"

	// BackupKindFull keys the full backup task in overrides
	BackupKindFull = "full"
	// BackupKindIncremental keys the incremental backup task in overrides
	BackupKindIncremental = "incremental"

	// PollTimeout bounds a complete collection pass over the fleet
	PollTimeout = 10 * time.Minute

	// ExitCodeDegraded is the exit code of the status command when the
	// fleet is found unhealthy
	ExitCodeDegraded = 1
)
