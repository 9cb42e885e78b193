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

// package check verifies the runtime environment of the poller before a
// collection pass starts, e.g. that the output directory is writable and
// that the configured inventory source is usable on this platform
package check

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/gravitational/vaultwatch/lib/config"
	"github.com/gravitational/vaultwatch/lib/constants"

	"github.com/gravitational/trace"
)

// Preflight verifies that the environment can support a collection pass
// with the given configuration. All failures are reported at once.
func Preflight(conf *config.Config) error {
	var errors []error
	if err := CheckSource(conf.Fetch.Source); err != nil {
		errors = append(errors, err)
	}
	if err := CheckCredentials(conf.Fetch); err != nil {
		errors = append(errors, err)
	}
	if err := CheckOutputDir(conf.Output.Path); err != nil {
		errors = append(errors, err)
	}
	return trace.NewAggregate(errors...)
}

// CheckSource verifies that the configured inventory source can run on
// this platform.
func CheckSource(source string) error {
	if source == constants.SourceWMI && runtime.GOOS != "windows" {
		return trace.BadParameter("inventory source %q requires a windows host, running on %v",
			source, runtime.GOOS)
	}
	return nil
}

// CheckCredentials verifies that remote queries have an account to run as.
func CheckCredentials(fetch config.FetchConfig) error {
	if fetch.Source != constants.SourceWinRM {
		return nil
	}
	if fetch.Username == "" {
		return trace.BadParameter("no query username configured")
	}
	if fetch.Password == "" {
		return trace.BadParameter("no query password configured, set %v", constants.EnvWinRMPassword)
	}
	return nil
}

// CheckOutputDir verifies that the directory the status page is rendered
// to exists (creating it if necessary) and is writable.
func CheckOutputDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.SharedDirMask); err != nil {
		return trace.ConvertSystemError(err)
	}
	probe, err := os.CreateTemp(dir, "vaultwatch")
	if err != nil {
		return trace.Wrap(trace.ConvertSystemError(err), "output directory %q is not writable", dir)
	}
	probe.Close()
	if err := os.Remove(probe.Name()); err != nil {
		return trace.ConvertSystemError(err)
	}
	return nil
}
