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

// Package publish distributes the rendered status page to the web portal
// servers.
package publish

import (
	"os"
	"path/filepath"

	"github.com/gravitational/vaultwatch/lib/constants"
	"github.com/gravitational/vaultwatch/lib/utils"

	"github.com/gravitational/trace"
	"github.com/sirupsen/logrus"
)

// Config configures distribution of the status page.
type Config struct {
	// Source is the path of the rendered document
	Source string
	// Destinations lists the target directories, one per web portal
	// server. The document keeps its base name in every destination
	Destinations []string
	// FieldLogger is the logger
	logrus.FieldLogger
}

func (r *Config) checkAndSetDefaults() error {
	if r.Source == "" {
		return trace.BadParameter("source document is not set")
	}
	if r.FieldLogger == nil {
		r.FieldLogger = logrus.WithField(trace.Component, constants.ComponentPublish)
	}
	return nil
}

// Publish copies the rendered document to every configured destination.
// Destinations are attempted independently: a failed copy is logged and
// folded into the aggregate error without blocking the others. The local
// document is removed once all destinations have been attempted.
//
// Without destinations the document is left in place to be served
// locally.
func Publish(config Config) error {
	if err := config.checkAndSetDefaults(); err != nil {
		return trace.Wrap(err)
	}
	if len(config.Destinations) == 0 {
		config.Debug("No destinations configured, keeping the local document.")
		return nil
	}
	var errors []error
	for _, dir := range config.Destinations {
		if err := publishTo(dir, config.Source); err != nil {
			config.WithError(err).Warnf("Failed to publish to %v.", dir)
			errors = append(errors, trace.Wrap(err, "failed to publish to %v", dir))
			continue
		}
		config.Infof("Published to %v.", dir)
	}
	if err := os.Remove(config.Source); err != nil {
		errors = append(errors, trace.ConvertSystemError(err))
	}
	return trace.NewAggregate(errors...)
}

func publishTo(dir, source string) error {
	if err := os.MkdirAll(dir, constants.SharedDirMask); err != nil {
		return trace.ConvertSystemError(err)
	}
	return trace.Wrap(utils.CopyFile(filepath.Join(dir, filepath.Base(source)), source))
}
