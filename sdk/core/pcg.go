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

import (
	"crypto/rand"
	"encoding/binary"
	"math/bits"
	r2 "math/rand/v2"
)

// pcgSource 以 math/rand/v2 的 PCG 為底，seed 經 splitmix64 擴散成 128-bit 狀態。
type pcgSource struct {
	rng *r2.PCG
}

// RandomSeed 由 crypto/rand 取一個非負 seed，用於未指定 seed 的正式環境。
func RandomSeed() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0x5eed
	}
	return int64(binary.LittleEndian.Uint64(b[:]) >> 1)
}

func newPCG(seed int64) *pcgSource {
	x := uint64(seed) ^ 0x9e3779b97f4a7c15
	hi := splitmix64(x)
	lo := splitmix64(x ^ 0xDA942042E4DD58B5)
	return &pcgSource{rng: r2.NewPCG(hi, lo)}
}

func (r *pcgSource) Uint64() uint64 {
	return r.rng.Uint64()
}

// Float64 回傳 [0,1)，取高 53 bits。
func (r *pcgSource) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

func (r *pcgSource) IntN(n int) int {
	if n <= 0 {
		return -1
	}
	return int(r.uint64n(uint64(n)))
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// uint64n : Lemire 無偏取樣
func (r *pcgSource) uint64n(n uint64) uint64 {
	if n&(n-1) == 0 {
		return r.Uint64() & (n - 1)
	}
	hi, lo := bits.Mul64(r.Uint64(), n)
	if lo < n {
		thresh := -n % n
		for lo < thresh {
			hi, lo = bits.Mul64(r.Uint64(), n)
		}
	}
	return hi
}
