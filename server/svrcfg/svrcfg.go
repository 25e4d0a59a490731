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

package svrcfg

import (
	"log/slog"
	"time"

	"github.com/zintix-labs/gachalab"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/server/logger"
)

const (
	DefaultAddr        = ":5808"
	DefaultOpTimeout   = 5 * time.Second
	DefaultSimMaxDraws = 1_000_000
	DefaultPingEvery   = 30 * time.Second
)

type SvrCfg struct {
	Log      *slog.Logger
	Gachalab *gachalab.Gachalab

	// Addr 監聽位址，例如 ":5808"
	Addr string
	// OpTimeout 每筆帳本操作的 context 逾時
	OpTimeout time.Duration
	// SimMaxDraws /v1/sim 單次請求的抽數上限（count * batches）
	SimMaxDraws int
	// PingEvery /v1/stream 的 websocket ping 週期
	PingEvery time.Duration
}

// Valid 補上預設值；Gachalab 為必要依賴。
func (sc *SvrCfg) Valid() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log = logger.NewDefaultLogger(logger.ModeSilence)
	}
	if sc.Gachalab == nil {
		return errs.NewFatal("gachalab is required")
	}
	if sc.Addr == "" {
		sc.Addr = DefaultAddr
	}
	if sc.OpTimeout <= 0 {
		sc.OpTimeout = DefaultOpTimeout
	}
	if sc.SimMaxDraws <= 0 {
		sc.SimMaxDraws = DefaultSimMaxDraws
	}
	if sc.PingEvery <= 0 {
		sc.PingEvery = DefaultPingEvery
	}
	return nil
}
