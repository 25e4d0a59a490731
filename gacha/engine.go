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

package gacha

import (
	"sync"

	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/sdk/core"
)

// Config 抽卡引擎參數。Rates 以 Tier 為索引，R 的欄位不使用（R 取餘量）。
type Config struct {
	Rates       [4]float64
	TenPullSize int
	GuaranteeUR float64 // 保底格出 UR 的機率，否則 SSR
	ShinyProb   float64
	Worth       [4]uint64
	ShinyMult   uint64
	MaxCount    int
	Species     []Species
}

// Engine 依設定抽出 Outcome。Engine 可被多個 goroutine 共用。
type Engine struct {
	cfg   Config
	pools [4][]Species
	dex   map[uint8]Species

	mu  sync.Mutex
	rng *core.Core
}

func NewEngine(cfg Config, seed int64) (*Engine, error) {
	if err := cfg.Valid(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg: cfg,
		dex: make(map[uint8]Species, len(cfg.Species)),
		rng: core.New(core.Default().New(seed)),
	}
	for _, s := range cfg.Species {
		e.pools[s.Tier] = append(e.pools[s.Tier], s)
		e.dex[s.ID] = s
	}
	return e, nil
}

// Valid 檢查機率與物種池。
func (c Config) Valid() error {
	sum := 0.0
	for _, t := range []Tier{SR, SSR, UR} {
		p := c.Rates[t]
		if p < 0 || p > 1 {
			return errs.Reject(errs.Invalid, "config", "rate of %s out of range: %v", t, p)
		}
		sum += p
	}
	if sum > 1 {
		return errs.Reject(errs.Invalid, "config", "rates sum %v exceeds 1", sum)
	}
	if c.GuaranteeUR < 0 || c.GuaranteeUR > 1 || c.ShinyProb < 0 || c.ShinyProb > 1 {
		return errs.Reject(errs.Invalid, "config", "probability out of range")
	}
	if c.TenPullSize < 1 {
		return errs.Reject(errs.Invalid, "config", "ten_pull_size must be positive")
	}
	if c.MaxCount < 1 {
		return errs.Reject(errs.Invalid, "config", "max_count must be positive")
	}
	if c.ShinyMult < 1 {
		return errs.Reject(errs.Invalid, "config", "shiny_mult must be positive")
	}
	var have [4]int
	seen := map[uint8]bool{}
	for _, s := range c.Species {
		if !s.Tier.Valid() {
			return errs.Reject(errs.Invalid, "config", "species %d has invalid tier", s.ID)
		}
		if seen[s.ID] {
			return errs.Reject(errs.Invalid, "config", "duplicate species id %d", s.ID)
		}
		seen[s.ID] = true
		have[s.Tier]++
	}
	rTail := 1 - sum
	for _, t := range Tiers {
		need := c.Rates[t] > 0
		if t == R {
			need = rTail > 0
		}
		if need && have[t] == 0 {
			return errs.Reject(errs.Invalid, "config", "tier %s has positive rate but empty pool", t)
		}
	}
	// 保底格只會出 SSR / UR
	if c.TenPullSize <= c.MaxCount {
		if have[SSR] == 0 && c.GuaranteeUR < 1 {
			return errs.Reject(errs.Invalid, "config", "guarantee needs SSR pool")
		}
		if have[UR] == 0 && c.GuaranteeUR > 0 {
			return errs.Reject(errs.Invalid, "config", "guarantee needs UR pool")
		}
	}
	return nil
}

func (e *Engine) Config() Config { return e.cfg }

// Species 依 id 查詢物種。
func (e *Engine) Species(id uint8) (Species, bool) {
	s, ok := e.dex[id]
	return s, ok
}

// WorthOf 回傳 tier 的價值，shiny 時乘上倍率。
func (e *Engine) WorthOf(t Tier, shiny bool) uint64 {
	w := e.cfg.Worth[t]
	if shiny {
		w *= e.cfg.ShinyMult
	}
	return w
}

// Pull 一次算出整批結果；不碰帳本。
func (e *Engine) Pull(count int) ([]Outcome, error) {
	if count < 1 || count > e.cfg.MaxCount {
		return nil, errs.Reject(errs.Invalid, "pull", "count %d out of range [1,%d]", count, e.cfg.MaxCount)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Outcome, count)
	for i := range out {
		out[i] = e.draw(count == e.cfg.TenPullSize && i == count-1)
	}
	return out, nil
}

func (e *Engine) draw(guaranteed bool) Outcome {
	var tier Tier
	if guaranteed {
		tier = SSR
		if e.rng.Float64() < e.cfg.GuaranteeUR {
			tier = UR
		}
	} else {
		tier = e.rollTier()
	}
	sp, _ := core.Pick(e.rng, e.pools[tier])
	shiny := e.rng.Chance(e.cfg.ShinyProb)
	g := Male
	if e.rng.Float64() >= 0.5 {
		g = Female
	}
	return Outcome{
		SpeciesID: sp.ID,
		Name:      sp.Name,
		Tier:      tier,
		IsShiny:   shiny,
		Gender:    g,
		Worth:     e.WorthOf(tier, shiny),
	}
}

// rollTier : 累積區間 UR -> SSR -> SR，其餘為 R
func (e *Engine) rollTier() Tier {
	u := e.rng.Float64()
	acc := 0.0
	for _, t := range []Tier{UR, SSR, SR} {
		acc += e.cfg.Rates[t]
		if u < acc {
			return t
		}
	}
	return R
}

// Check 驗證外部傳入的 Outcome：封閉列舉、已知物種、tier 相符、價值不超過上限。
func (e *Engine) Check(o Outcome) error {
	if !o.Tier.Valid() {
		return errs.Reject(errs.Invalid, "mint", "invalid tier %d", uint8(o.Tier))
	}
	if !o.Gender.Valid() {
		return errs.Reject(errs.Invalid, "mint", "invalid gender %d", uint8(o.Gender))
	}
	sp, ok := e.dex[o.SpeciesID]
	if !ok {
		return errs.Reject(errs.Invalid, "mint", "unknown species %d", o.SpeciesID)
	}
	if sp.Tier != o.Tier {
		return errs.Reject(errs.Invalid, "mint", "species %d is %s, not %s", o.SpeciesID, sp.Tier, o.Tier)
	}
	if o.Worth > e.WorthOf(o.Tier, o.IsShiny) {
		return errs.Reject(errs.Invalid, "mint", "worth %d exceeds ceiling for %s", o.Worth, o.Tier)
	}
	return nil
}
