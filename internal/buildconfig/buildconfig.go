// Package buildconfig exposes the version stamped into the binary.
package buildconfig

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// Set with -ldflags "-X github.com/Harshitk-cp/mnemo/internal/buildconfig.version=...".
var (
	version = "dev"
	commit  = ""
	date    = ""
)

// Info describes the running build.
type Info struct {
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Date     string `json:"date"`
	Modified bool   `json:"modified,omitempty"`
}

var (
	once sync.Once
	info Info
)

// Get returns the build info. Commit and date fall back to the VCS stamp
// the go toolchain embeds when ldflags did not set them.
func Get() Info {
	once.Do(func() {
		info = Info{Version: version, Commit: commit, Date: date}
		bi, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.Date == "" {
					info.Date = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	})
	return info
}

func (i Info) String() string {
	c, d := i.Commit, i.Date
	if c == "" {
		c = "unknown"
	}
	if len(c) > 12 {
		c = c[:12]
	}
	if d == "" {
		d = "unknown"
	}
	if i.Modified {
		c += "+dirty"
	}
	return fmt.Sprintf("mnemo %s (commit %s, built %s)", i.Version, c, d)
}

// String is the one-line form printed by `mnemo version`.
func String() string {
	return Get().String()
}
