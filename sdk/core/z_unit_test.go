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

package core

import "testing"

func TestCoreDeterminism(t *testing.T) {
	c1 := New(Default().New(7))
	c2 := New(Default().New(7))
	for i := 0; i < 5; i++ {
		if c1.Uint64() != c2.Uint64() {
			t.Fatalf("Uint64 mismatch at %d", i)
		}
	}
	if c1.IntN(10) != c2.IntN(10) {
		t.Fatalf("IntN mismatch")
	}
	if c1.Float64() != c2.Float64() {
		t.Fatalf("Float64 mismatch")
	}
}

func TestFloat64Range(t *testing.T) {
	c := New(Default().New(3))
	for i := 0; i < 10000; i++ {
		f := c.Float64()
		if f < 0 || f >= 1 {
			t.Fatalf("Float64 out of range: %v", f)
		}
	}
}

func TestChanceBounds(t *testing.T) {
	c := New(Default().New(5))
	for i := 0; i < 100; i++ {
		if c.Chance(0) {
			t.Fatalf("Chance(0) returned true")
		}
		if !c.Chance(1) {
			t.Fatalf("Chance(1) returned false")
		}
	}
}

func TestPick(t *testing.T) {
	c := New(Default().New(9))
	if _, ok := Pick[int](c, nil); ok {
		t.Fatalf("expected empty pick to fail")
	}
	src := []string{"a", "b", "c"}
	for i := 0; i < 50; i++ {
		v, ok := Pick(c, src)
		if !ok || (v != "a" && v != "b" && v != "c") {
			t.Fatalf("unexpected pick %q", v)
		}
	}
	if c.IntN(0) != -1 {
		t.Fatalf("IntN(0) should be -1")
	}
}

func TestSeedMakerDeterministic(t *testing.T) {
	a, b := NewSeedMaker(42), NewSeedMaker(42)
	seen := map[int64]bool{}
	for i := 0; i < 100; i++ {
		x, y := a.Next(), b.Next()
		if x != y {
			t.Fatalf("seed maker mismatch at %d", i)
		}
		if x < 0 {
			t.Fatalf("negative seed %d", x)
		}
		seen[x] = true
	}
	if len(seen) < 100 {
		t.Fatalf("seed maker repeated seeds")
	}
}
