package main

import (
	"fmt"
	"strings"

	kv "github.com/gravitational/configure"
	"gopkg.in/alecthomas/kingpin.v2"
)

func List(s kingpin.Settings) *list {
	l := new(list)
	s.SetValue(l)
	return l
}

func KeyValueList(s kingpin.Settings) *kv.KeyVal {
	l := new(kv.KeyVal)
	s.SetValue(l)
	return l
}

// list is a command line flag that accumulates values across repeated
// use and splits comma-separated input.
type list []string

func (l *list) Set(value string) error {
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			*l = append(*l, item)
		}
	}
	return nil
}

func (l *list) String() string {
	return fmt.Sprintf("%v", []string(*l))
}

// backupTaskOverrides interprets each key/value pair as kind:task
// and maps the known kinds onto the full/incremental task names.
func backupTaskOverrides(store kv.KeyVal) (full, incremental string) {
	return store[BackupKindFull], store[BackupKindIncremental]
}
