// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package version

import (
	"runtime"
	"testing"
)

func TestInfo(t *testing.T) {
	info := Info()

	if info.Version != Version {
		t.Errorf("expected version %s, got %s", Version, info.Version)
	}

	// test binaries carry build info
	if info.GoVersion != runtime.Version() {
		t.Errorf("expected go version %s, got %s", runtime.Version(), info.GoVersion)
	}
}
