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

package v1

import (
	"net/http"
	"runtime"

	"github.com/zintix-labs/gachalab"
	"github.com/zintix-labs/gachalab/dto"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/server/httperr"
	"github.com/zintix-labs/gachalab/server/svrcfg"
	"github.com/zintix-labs/gachalab/stats"
)

// SimHandler 以帳本相同的抽卡設定做審計模擬，不寫入帳本。
type SimHandler struct {
	g        *gachalab.Gachalab
	maxDraws int
}

func NewSimHandler(sCfg *svrcfg.SvrCfg) (*SimHandler, error) {
	if sCfg == nil || sCfg.Gachalab == nil {
		return nil, errs.NewFatal("gachalab is required")
	}
	return &SimHandler{g: sCfg.Gachalab, maxDraws: sCfg.SimMaxDraws}, nil
}

func (sh *SimHandler) Sim(w http.ResponseWriter, r *http.Request) {
	// 內部結構 不影響外部 也不被外部使用
	type SimResponse struct {
		Report   *stats.PullReport `json:"report"`
		UsedTime int64             `json:"used_ms"`
	}
	req, err := dto.DecodeSimRequest(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if req.Batches < 1 || req.Count < 1 || req.Count > sh.maxDraws || req.Batches > sh.maxDraws/req.Count {
		httperr.Errs(w, errs.Reject(errs.Invalid, "sim", "count*batches must be between 1 to %d", sh.maxDraws))
		return
	}
	// batches 為總批數，由各 worker 分攤
	req.Workers = min(max(req.Workers, 1), runtime.GOMAXPROCS(0))

	var seed int64
	if req.Seed != nil {
		seed = *req.Seed
	}
	sim := sh.g.NewSimulator(seed)
	rep, used, err := sim.SimTotal(req.Count, req.Batches, req.Workers, false)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "simulate err"))
		return
	}
	writeJSON(w, http.StatusOK, SimResponse{Report: rep, UsedTime: used.Milliseconds()})
}
