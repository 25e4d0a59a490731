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

type PRNG interface {
	RAND
}

type RAND interface {
	// Uint64 回傳 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// IntN 回傳 [0,n) 的 int 亂數，若 n <= 0 回傳 -1。
	IntN(int) int
}

type PRNGFactory interface {
	// New 以指定 seed 建立新的 PRNG。
	//
	// 合約：同一個實作下，相同 seed 必須產生相同輸出序列。
	// 抽卡審計與性質測試都依賴這一點重播。
	New(int64) PRNG
}

type DefaultPRNG struct{}

func (d *DefaultPRNG) New(seed int64) PRNG {
	return newPCG(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// Core 在 PRNG 之上提供抽卡會用到的取樣原語。
type Core struct {
	PRNG
}

func New(rng PRNG) *Core {
	return &Core{rng}
}

// Chance 以機率 p 回傳 true；p <= 0 恆為 false，p >= 1 恆為 true。
func (c *Core) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return c.Float64() < p
}

// Pick 均勻取出一個元素，空切片回傳零值與 false。
func Pick[T any](c *Core, src []T) (T, bool) {
	var zero T
	if len(src) == 0 {
		return zero, false
	}
	return src[c.IntN(len(src))], true
}

// SeedMaker 由 base seed 派生子 seed（LCG + mix），供平行模擬使用。
type SeedMaker struct {
	state uint64
}

func NewSeedMaker(base int64) *SeedMaker {
	return &SeedMaker{state: uint64(base)}
}

func (s *SeedMaker) Next() int64 {
	s.state = s.state*6364136223846793005 + 1442695040888963407
	return int64(splitmix64(s.state) >> 1)
}
