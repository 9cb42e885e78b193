//+build mage

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

package main

import (
	"fmt"

	"github.com/gravitational/trace"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// versionPackage receives the build metadata via linker flags
const versionPackage = "github.com/gravitational/version"

// Build compiles the vaultwatch binary with version metadata linked in.
func Build() error {
	flags, err := linkFlags()
	if err != nil {
		return trace.Wrap(err)
	}
	err = sh.RunV("go", "build", "-ldflags", flags,
		"-o", "build/vaultwatch", "./tool/vaultwatch")
	return trace.Wrap(err)
}

// Test runs the test suite.
func Test() error {
	return trace.Wrap(sh.RunV("go", "test", "-count=1", "./lib/...", "./tool/..."))
}

type Check mg.Namespace

// Vet runs go vet over the module.
func (Check) Vet() error {
	return trace.Wrap(sh.RunV("go", "vet", "./lib/...", "./tool/..."))
}

// Format verifies that the source tree is gofmt'd.
func (Check) Format() error {
	out, err := sh.Output("gofmt", "-l", "lib", "tool")
	if err != nil {
		return trace.Wrap(err)
	}
	if out != "" {
		return trace.BadParameter("files need gofmt:\n%v", out)
	}
	return nil
}

func linkFlags() (string, error) {
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		return "", trace.Wrap(err)
	}
	commit, err := sh.Output("git", "rev-parse", "HEAD")
	if err != nil {
		return "", trace.Wrap(err)
	}
	return fmt.Sprintf("-X %[1]v.version=%[2]v -X %[1]v.gitCommit=%[3]v",
		versionPackage, version, commit), nil
}
