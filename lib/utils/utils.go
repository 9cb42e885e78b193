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

package utils

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// Retry calls fn up to attempts times, waiting period between attempts,
// until it returns nil. Returns the last error when the attempts are
// exhausted or the context is cancelled while waiting.
func Retry(ctx context.Context, attempts int, period time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		log.Debugf("Attempt %v failed (%v), retry in %v.", i+1, err, period)
		select {
		case <-ctx.Done():
			return trace.Wrap(err)
		case <-time.After(period):
		}
	}
	return trace.Wrap(err)
}

// SafeWriteFile is similar to os.WriteFile, but operates by writing to a
// temporary file first and then relinking the file into the filename which
// should be an atomic operation. This should be safer, that if the destination
// file is being replaced, it won't be left in a partial written state.
func SafeWriteFile(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)

	tmpFile, err := os.CreateTemp(dir, "safewrite")
	if err != nil {
		return trace.Wrap(err)
	}
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.Write(data)
	if err != nil {
		tmpFile.Close()
		return trace.Wrap(err)
	}

	err = os.Chmod(tmpFile.Name(), perm)
	if err != nil {
		tmpFile.Close()
		return trace.Wrap(err)
	}

	err = tmpFile.Close()
	if err != nil {
		return trace.Wrap(err)
	}

	err = os.Rename(tmpFile.Name(), filename)
	if err != nil {
		return trace.Wrap(err)
	}

	return nil
}

// CopyFile copies the file at src into the file at dst, creating or
// truncating dst as necessary and preserving the source permissions.
func CopyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return trace.ConvertSystemError(err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return trace.ConvertSystemError(err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return trace.ConvertSystemError(err)
	}
	defer out.Close()

	if _, err = io.Copy(out, in); err != nil {
		return trace.ConvertSystemError(err)
	}
	if err = out.Sync(); err != nil {
		return trace.ConvertSystemError(err)
	}
	return nil
}

// SplitHostPort splits an address into a host and an optional port,
// falling back to defaultPort when the address carries none.
func SplitHostPort(addr string, defaultPort int) (host string, port int) {
	host, port = addr, defaultPort
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		if p := parsePort(addr[i+1:]); p != 0 {
			host, port = addr[:i], p
		}
	}
	return host, port
}

func parsePort(s string) int {
	var port int
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		port = port*10 + int(r-'0')
	}
	return port
}
