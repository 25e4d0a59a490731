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

package gachalab

import (
	"io"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/gacha"
	"github.com/zintix-labs/gachalab/sdk/core"
	"github.com/zintix-labs/gachalab/spec"
	"github.com/zintix-labs/gachalab/stats"
)

// Confidence 審計報告的信賴水準
const Confidence = 0.95

// Simulator 不碰帳本，只以抽卡引擎大量抽取並統計，用於審計機率表與保底。
type Simulator struct {
	gs        *spec.GachaSetting
	initSeed  int64
	seedmaker *core.SeedMaker
}

// NewSimulator 以 seed 建立模擬器；seed 為 0 時隨機。
func NewSimulator(gs *spec.GachaSetting, seed int64) *Simulator {
	if seed == 0 {
		seed = core.RandomSeed()
	}
	return &Simulator{gs: gs, initSeed: seed, seedmaker: core.NewSeedMaker(seed)}
}

// NewSimulator 以與帳本相同的設定建立模擬器
func (g *Gachalab) NewSimulator(seed int64) *Simulator {
	return NewSimulator(g.gs, seed)
}

func (s *Simulator) Seed() int64 { return s.initSeed }

// Sim 以 workers 個引擎平行執行，每個引擎跑 batches 次 Pull(count)，合併後回傳報告與用時。
func (s *Simulator) Sim(count int, batches int, workers int, showpb bool) (*stats.PullReport, time.Duration, error) {
	if workers < 1 {
		return nil, 0, errs.Reject(errs.Invalid, "sim", "workers must > 0")
	}
	if batches < 1 {
		return nil, 0, errs.Reject(errs.Invalid, "sim", "batches must > 0")
	}
	plan := make([]int, workers)
	for i := range plan {
		plan[i] = batches
	}
	return s.run(count, plan, showpb)
}

// SimTotal 總共跑 total 批，平均分給 workers 個引擎，餘數由前面的引擎多跑一批。
// workers 多於 total 時只開 total 個引擎。
func (s *Simulator) SimTotal(count int, total int, workers int, showpb bool) (*stats.PullReport, time.Duration, error) {
	if workers < 1 {
		return nil, 0, errs.Reject(errs.Invalid, "sim", "workers must > 0")
	}
	if total < 1 {
		return nil, 0, errs.Reject(errs.Invalid, "sim", "batches must > 0")
	}
	workers = min(workers, total)
	plan := make([]int, workers)
	for i := range plan {
		plan[i] = total / workers
		if i < total%workers {
			plan[i]++
		}
	}
	return s.run(count, plan, showpb)
}

// run plan[i] 為第 i 個引擎要跑的批數
func (s *Simulator) run(count int, plan []int, showpb bool) (*stats.PullReport, time.Duration, error) {
	cfg := s.gs.EngineConfig()
	if count < 1 || count > cfg.MaxCount {
		return nil, 0, errs.Reject(errs.Invalid, "sim", "count %d out of range [1,%d]", count, cfg.MaxCount)
	}
	workers := len(plan)
	engines := make([]*gacha.Engine, workers)
	recs := make([]*stats.Recorder, workers)
	total := 0
	for i := range engines {
		e, err := gacha.NewEngine(cfg, s.seedmaker.Next())
		if err != nil {
			return nil, 0, err
		}
		engines[i] = e
		recs[i] = stats.NewRecorder(cfg)
		total += plan[i]
	}

	bar := pb.StartNew(total)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	wg := new(sync.WaitGroup)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(e *gacha.Engine, r *stats.Recorder, batches int) {
			defer wg.Done()
			for b := 0; b < batches; b++ {
				outs, err := e.Pull(count)
				if err != nil {
					return
				}
				r.Record(outs)
				bar.Increment()
			}
		}(engines[i], recs[i], plan[i])
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	merged := recs[0]
	for _, r := range recs[1:] {
		merged.Merge(r)
	}
	return merged.Report(s.gs.Name, s.initSeed, s.gs.Economy.CostPerPull, Confidence), used, nil
}
