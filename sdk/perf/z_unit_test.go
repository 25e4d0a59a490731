// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package perf

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunModes(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	exe := func() error { calls++; return nil }

	if err := Run(dir, "", exe); err != nil || calls != 1 {
		t.Fatalf("plain run: %v calls=%d", err, calls)
	}
	for _, mode := range []string{"heap", "allocs"} {
		if err := Run(dir, mode, exe); err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
		st, err := os.Stat(filepath.Join(dir, mode+".pprof"))
		if err != nil || st.Size() == 0 {
			t.Fatalf("%s profile missing: %v", mode, err)
		}
	}
	if calls != 3 {
		t.Fatalf("calls=%d", calls)
	}
	if err := Run(dir, "trace", exe); err == nil {
		t.Fatalf("expected unknown mode error")
	}
}
