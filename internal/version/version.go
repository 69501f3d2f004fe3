// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package version

import "runtime/debug"

// Version is overridden at build time through -ldflags
var Version = "0.1.0" // x-release-please-version

type BuildInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version,omitempty"`
	Revision  string `json:"revision,omitempty"`
}

// Info reports Version with the toolchain and VCS revision embedded in the binary.
func Info() BuildInfo {
	info := BuildInfo{Version: Version}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			info.Revision = s.Value
		}
	}

	return info
}
