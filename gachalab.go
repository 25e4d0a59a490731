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

// Package gachalab 提供抽卡帳本的「組裝入口」與「操作派發」。
//
// Gachalab 把四個地基組裝在一起：
//  1. GachaSetting：經濟參數、機率表與物種圖鑑（來自 YAML/JSON）。
//  2. Deriver：由命名空間與 key 材料推導紀錄位址。
//  3. Engine：抽卡引擎，依機率抽出 Outcome。
//  4. Store：交易式帳本儲存（記憶體或 SQLite）。
//
// 每個操作（initialize / create-account / top-up / pull / rename / release / withdraw）
// 都在單一 Store.Update 內完成：前置條件全部通過才寫入，任何一步失敗則沒有任何效果。
// 已提交的操作會以 journal.Event 寫入 journal 並推送給 Feed 訂閱者。
package gachalab

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/zintix-labs/gachalab/addr"
	"github.com/zintix-labs/gachalab/configs"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/gacha"
	"github.com/zintix-labs/gachalab/journal"
	"github.com/zintix-labs/gachalab/ledger"
	"github.com/zintix-labs/gachalab/sdk/core"
	"github.com/zintix-labs/gachalab/spec"
)

// Options 組裝選項，零值可用。
type Options struct {
	// Seed 抽卡引擎的亂數種子；0 代表由 crypto/rand 產生
	Seed int64
	// Logger nil 時不輸出
	Logger *slog.Logger
	// Journal nil 時不保存事件
	Journal journal.Sink
	// FeedBuffer 每個訂閱者的緩衝大小
	FeedBuffer int
}

// Gachalab 帳本的組裝器與操作入口，可被多個 goroutine 共用。
type Gachalab struct {
	gs      *spec.GachaSetting
	deriver *addr.Deriver
	engine  *gacha.Engine
	store   ledger.Store
	log     *slog.Logger
	journal journal.Sink
	feed    *Feed
	seed    int64

	cfgAddr addr.Address
	seq     atomic.Uint64
	now     func() time.Time
}

// New 以設定與儲存建立 Gachalab。
func New(gs *spec.GachaSetting, store ledger.Store, opts Options) (*Gachalab, error) {
	if gs == nil {
		return nil, errs.NewFatal("gacha setting required")
	}
	if store == nil {
		return nil, errs.NewFatal("ledger store required")
	}
	d, err := gs.Deriver()
	if err != nil {
		return nil, err
	}
	seed := opts.Seed
	if seed == 0 {
		seed = core.RandomSeed()
	}
	eng, err := gacha.NewEngine(gs.EngineConfig(), seed)
	if err != nil {
		return nil, errs.Wrap(err, "build gacha engine")
	}
	cfgAddr, err := d.ConfigAddr()
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	jn := opts.Journal
	if jn == nil {
		jn = journal.Discard{}
	}
	return &Gachalab{
		gs:      gs,
		deriver: d,
		engine:  eng,
		store:   store,
		log:     log,
		journal: jn,
		feed:    NewFeed(opts.FeedBuffer),
		seed:    seed,
		cfgAddr: cfgAddr,
		now:     time.Now,
	}, nil
}

// NewDefault 使用內嵌的預設設定。
func NewDefault(store ledger.Store, opts Options) (*Gachalab, error) {
	gs, err := LoadSetting("")
	if err != nil {
		return nil, err
	}
	return New(gs, store, opts)
}

// LoadSetting 讀取抽卡設定檔（.yaml/.yml/.json）；path 為空時使用內嵌的預設設定。
func LoadSetting(path string) (*spec.GachaSetting, error) {
	if path == "" {
		return spec.Load(configs.FS, configs.DefaultName)
	}
	return spec.Load(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

func (g *Gachalab) Setting() *spec.GachaSetting { return g.gs }
func (g *Gachalab) Deriver() *addr.Deriver      { return g.deriver }
func (g *Gachalab) Engine() *gacha.Engine       { return g.engine }
func (g *Gachalab) Feed() *Feed                 { return g.feed }
func (g *Gachalab) Seed() int64                 { return g.seed }

// ConfigAddr 全域 Authority 的位址
func (g *Gachalab) ConfigAddr() addr.Address { return g.cfgAddr }

// Close 關閉 journal 與 feed；Store 由呼叫端自行關閉。
func (g *Gachalab) Close() error {
	g.feed.Close()
	return g.journal.Close()
}

// emit 在操作提交後呼叫；journal 寫入失敗只記錄，不影響已提交的結果。
func (g *Gachalab) emit(ev journal.Event) {
	ev.ID = journal.NewID()
	ev.Seq = g.seq.Add(1)
	ev.At = g.now().UTC()
	if err := g.journal.Append(ev); err != nil {
		g.log.Error("journal append failed", "op", ev.Op, "seq", ev.Seq, "err", err)
	}
	g.feed.Publish(ev)
	g.log.Debug("op committed", "op", ev.Op, "seq", ev.Seq, "identity", ev.Identity, "address", ev.Address)
}

// fail 為錯誤標上操作名並依等級記錄。
func (g *Gachalab) fail(op string, identity addr.Address, err error) error {
	e := errs.Wrap(err, op+" rejected")
	e.Op = op
	if e.ErrLv == errs.Fatal {
		g.log.Error("op failed", "op", op, "identity", identity.String(), "err", err)
	} else {
		g.log.Warn("op rejected", "op", op, "kind", e.Kind.String(), "identity", identity.String(), "err", err)
	}
	return e
}
