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

package stats

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/zintix-labs/gachalab/gacha"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat/distuv"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// PullReport 抽卡審計報告
type PullReport struct {
	Summary   SummaryReport `json:"Summary"`
	Tiers     []TierStat    `json:"Tiers"`
	Shiny     TierStat      `json:"Shiny"`
	Guarantee GuaranteeStat `json:"Guarantee"`
	Worth     WorthStat     `json:"Worth"`
}

type SummaryReport struct {
	Name       string  `json:"Name"`
	Seed       int64   `json:"Seed"`
	Batches    int     `json:"Batches"`
	BatchSize  int     `json:"BatchSize"`
	Draws      int     `json:"Draws"`
	CoinsSpent uint64  `json:"CoinsSpent"`
	Confidence float64 `json:"Confidence"`
}

// TierStat 一般格（不含保底格）中某事件的觀測比例與 Clopper–Pearson 信賴區間。
type TierStat struct {
	Label    string  `json:"Label"`
	Count    int     `json:"Count"`
	Expected float64 `json:"Expected"`
	Hat      float64 `json:"Hat"`
	CI       CI      `json:"CI"`
	// Within 期望值是否落在信賴區間內
	Within bool `json:"Within"`
}

// GuaranteeStat 保底格統計；Violations 必須為 0。
type GuaranteeStat struct {
	Slots      int      `json:"Slots"`
	UR         int      `json:"UR"`
	Violations int      `json:"Violations"`
	URRate     TierStat `json:"URRate"`
}

type WorthStat struct {
	Total uint64  `json:"Total"`
	Mean  float64 `json:"Mean"`
	Std   float64 `json:"Std"`
}

// Recorder 累積抽卡結果。非併發安全：平行模擬時每個 worker 一個，最後 Merge。
type Recorder struct {
	cfg     gacha.Config
	batches int
	size    int
	normal  int
	tierCnt [4]int
	shiny   int
	gSlots  int
	gUR     int
	gBad    int
	worth   uint64
	worthSq float64
}

func NewRecorder(cfg gacha.Config) *Recorder {
	return &Recorder{cfg: cfg}
}

// Record 記錄一批（一次 Pull）的結果。
func (r *Recorder) Record(batch []gacha.Outcome) {
	r.batches++
	r.size = len(batch)
	guarantee := len(batch) == r.cfg.TenPullSize
	for i, o := range batch {
		r.worth += o.Worth
		r.worthSq += float64(o.Worth) * float64(o.Worth)
		if o.IsShiny {
			r.shiny++
		}
		if guarantee && i == len(batch)-1 {
			r.gSlots++
			switch o.Tier {
			case gacha.UR:
				r.gUR++
			case gacha.SSR:
			default:
				r.gBad++
			}
			continue
		}
		r.normal++
		if o.Tier.Valid() {
			r.tierCnt[o.Tier]++
		}
	}
}

func (r *Recorder) Merge(o *Recorder) {
	r.batches += o.batches
	if o.size > 0 {
		r.size = o.size
	}
	r.normal += o.normal
	for i := range r.tierCnt {
		r.tierCnt[i] += o.tierCnt[i]
	}
	r.shiny += o.shiny
	r.gSlots += o.gSlots
	r.gUR += o.gUR
	r.gBad += o.gBad
	r.worth += o.worth
	r.worthSq += o.worthSq
}

// Draws 總抽數
func (r *Recorder) Draws() int { return r.normal + r.gSlots }

// Report 產生報告；confidence 例如 0.95。
func (r *Recorder) Report(name string, seed int64, costPerPull uint64, confidence float64) *PullReport {
	draws := r.Draws()
	rep := &PullReport{
		Summary: SummaryReport{
			Name:       name,
			Seed:       seed,
			Batches:    r.batches,
			BatchSize:  r.size,
			Draws:      draws,
			CoinsSpent: uint64(draws) * costPerPull,
			Confidence: confidence,
		},
	}
	rest := 1.0
	for _, t := range []gacha.Tier{gacha.SR, gacha.SSR, gacha.UR} {
		rest -= r.cfg.Rates[t]
	}
	for _, t := range gacha.Tiers {
		exp := r.cfg.Rates[t]
		if t == gacha.R {
			exp = rest
		}
		rep.Tiers = append(rep.Tiers, proportion(t.String(), r.tierCnt[t], r.normal, exp, confidence))
	}
	rep.Shiny = proportion("shiny", r.shiny, draws, r.cfg.ShinyProb, confidence)
	rep.Guarantee = GuaranteeStat{
		Slots:      r.gSlots,
		UR:         r.gUR,
		Violations: r.gBad,
		URRate:     proportion("guarantee UR", r.gUR, r.gSlots, r.cfg.GuaranteeUR, confidence),
	}
	rep.Worth.Total = r.worth
	if draws > 0 {
		n := float64(draws)
		mean := float64(r.worth) / n
		rep.Worth.Mean = mean
		rep.Worth.Std = math.Sqrt(max(r.worthSq/n-mean*mean, 0))
	}
	return rep
}

func proportion(label string, k, n int, expected, confidence float64) TierStat {
	hat, ci := proportionCICP(k, n, confidence)
	return TierStat{
		Label:    label,
		Count:    k,
		Expected: expected,
		Hat:      hat,
		CI:       ci,
		Within:   n > 0 && expected >= ci.Lo && expected <= ci.Hi,
	}
}

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

func (s *PullReport) WriteWith(w io.Writer, rep PullReportRender) error {
	return rep.Write(w, s)
}

// StdOut 以表格輸出到 w
func (s *PullReport) StdOut(w io.Writer, ut time.Duration) {
	fmt.Fprint(w, formatDuration(ut, s.Summary.Draws))
	sk, sm := s.fmtBasic()
	fmt.Fprintln(w, fmtTable(s.Summary.Name, sk, sm))
	tk, tm := s.fmtTiers()
	fmt.Fprintln(w, fmtTable("Tier frequency", tk, tm))
}

func formatDuration(d time.Duration, draws int) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	dps := int(float64(draws) / sec)
	if sec < 60.0 {
		return p.Sprintf("used: %.2f seconds\ndps : %d draws/sec\n", sec, dps)
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("used: %dm %ds\ndps : %d draws/sec\n", m, s, dps)
	}
	return p.Sprintf("used: %dh:%dm:%ds\ndps : %d draws/sec\n", h, m, s, dps)
}
