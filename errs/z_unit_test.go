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

package errs

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestRejectMatchesSentinel(t *testing.T) {
	err := Reject(NotFound, "rename", "item %s missing", "abc")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound match")
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unexpected ErrUnauthorized match")
	}
	if err.ErrLv != Warn {
		t.Fatalf("reject should be warn level, got %s", ErrLv(err.ErrLv))
	}
	if !strings.Contains(err.Error(), "kind=not_found") || !strings.Contains(err.Error(), "op=rename") {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestWrapKeepsKindAndLevel(t *testing.T) {
	inner := Reject(InsufficientCoins, "pull", "balance 5")
	outer := fmt.Errorf("batch: %w", Wrap(inner, "mint 3"))
	if !errors.Is(outer, ErrInsufficientCoins) {
		t.Fatalf("wrapped kind lost")
	}
	if KindOf(outer) != InsufficientCoins {
		t.Fatalf("KindOf mismatch: %s", KindOf(outer))
	}
	e, ok := AsErr(outer)
	if !ok || e.ErrLv != Warn {
		t.Fatalf("wrap should keep warn level")
	}
}

func TestWrapForeignIsFatal(t *testing.T) {
	e := Wrap(io.ErrUnexpectedEOF, "decode")
	if e.ErrLv != Fatal {
		t.Fatalf("foreign cause should be fatal")
	}
	if e.Kind != KindNone || KindOf(e) != KindNone {
		t.Fatalf("foreign cause should have no kind")
	}
	if !errors.Is(e, io.ErrUnexpectedEOF) {
		t.Fatalf("cause not reachable")
	}
}

func TestPlainErrorsDoNotMatchKinds(t *testing.T) {
	e := NewWarn("plain")
	if errors.Is(e, ErrNotFound) {
		t.Fatalf("kindless error should not match")
	}
	if errors.Is(ErrNotFound, e) {
		t.Fatalf("kindless target should not match")
	}
}
