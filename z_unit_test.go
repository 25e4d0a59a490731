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
	"context"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zintix-labs/gachalab/addr"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/gacha"
	"github.com/zintix-labs/gachalab/journal"
	"github.com/zintix-labs/gachalab/ledger"
)

func newLab(t *testing.T, store ledger.Store, opts Options) *Gachalab {
	t.Helper()
	if opts.Seed == 0 {
		opts.Seed = 20251016
	}
	g, err := NewDefault(store, opts)
	if err != nil {
		t.Fatalf("new gachalab: %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })
	return g
}

// fund 建立 Authority、帳戶並注資錢包
func fund(t *testing.T, g *Gachalab, admin, id addr.Address, name string, lamports uint64) {
	t.Helper()
	ctx := context.Background()
	if _, err := g.Authority(ctx); ledger.IsNotFound(err) {
		if _, err := g.Initialize(ctx, admin); err != nil {
			t.Fatalf("initialize: %v", err)
		}
	}
	if _, err := g.CreateAccount(ctx, id, name); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if lamports > 0 {
		if _, err := g.Airdrop(ctx, id, lamports); err != nil {
			t.Fatalf("airdrop: %v", err)
		}
	}
}

func ivysaur(worth uint64) gacha.Outcome {
	return gacha.Outcome{SpeciesID: 2, Tier: gacha.SR, Gender: gacha.Female, Worth: worth}
}

func TestCreateAccount(t *testing.T) {
	g := newLab(t, ledger.NewMemStore(), Options{})
	ctx := context.Background()
	ash := addr.NewIdentity()

	u, err := g.CreateAccount(ctx, ash, "Ash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Balance != 100 || u.ItemCount != 0 || u.Bio != "This user has not write anything yet" {
		t.Fatalf("user: %+v", u)
	}
	reg, err := g.Registry(ctx, ash)
	if err != nil || reg.Len() != 0 {
		t.Fatalf("registry: %+v %v", reg, err)
	}
	if _, err := g.CreateAccount(ctx, ash, "Ash"); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("duplicate: %v", err)
	}
	if _, err := g.CreateAccount(ctx, addr.NewIdentity(), strings.Repeat("a", 21)); !errors.Is(err, errs.ErrNameTooLong) {
		t.Fatalf("long username: %v", err)
	}
	// 20 bytes 剛好合法
	if _, err := g.CreateAccount(ctx, addr.NewIdentity(), strings.Repeat("a", 20)); err != nil {
		t.Fatalf("20 byte username: %v", err)
	}
}

func TestInitializeOnce(t *testing.T) {
	g := newLab(t, ledger.NewMemStore(), Options{})
	ctx := context.Background()
	admin := addr.NewIdentity()
	if _, err := g.Initialize(ctx, admin); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, err := g.Initialize(ctx, addr.NewIdentity()); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("second initialize: %v", err)
	}
	auth, err := g.Authority(ctx)
	if err != nil || !auth.Owner.Equals(admin) || auth.Balance != 0 {
		t.Fatalf("authority: %+v %v", auth, err)
	}
}

func TestTopUp(t *testing.T) {
	g := newLab(t, ledger.NewMemStore(), Options{})
	ctx := context.Background()
	admin, ash := addr.NewIdentity(), addr.NewIdentity()

	// 尚未 initialize
	if _, err := g.CreateAccount(ctx, ash, "Ash"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := g.TopUp(ctx, ash, 1); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("top-up without authority: %v", err)
	}
	if _, err := g.Initialize(ctx, admin); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, err := g.TopUp(ctx, ash, 50); !errors.Is(err, errs.ErrInsufficientFunds) {
		t.Fatalf("top-up with empty wallet: %v", err)
	}
	if _, err := g.Airdrop(ctx, ash, 6_000_000); err != nil {
		t.Fatalf("airdrop: %v", err)
	}
	u, err := g.TopUp(ctx, ash, 50)
	if err != nil {
		t.Fatalf("top-up: %v", err)
	}
	if u.Balance != 150 {
		t.Fatalf("balance %d", u.Balance)
	}
	if w, _ := g.Wallet(ctx, ash); w != 1_000_000 {
		t.Fatalf("wallet %d", w)
	}
	if auth, _ := g.Authority(ctx); auth.Balance != 5_000_000 {
		t.Fatalf("authority balance %d", auth.Balance)
	}
	// 零額儲值照常提交
	if u, err = g.TopUp(ctx, ash, 0); err != nil || u.Balance != 150 {
		t.Fatalf("zero top-up: %+v %v", u, err)
	}
	if _, err := g.TopUp(ctx, addr.NewIdentity(), 1); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("top-up unknown user: %v", err)
	}
	// coins * lamports_per_coin 溢位
	if _, err := g.TopUp(ctx, ash, 1<<62); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("overflow top-up: %v", err)
	}
}

func TestMintReleaseScenario(t *testing.T) {
	g := newLab(t, ledger.NewMemStore(), Options{})
	ctx := context.Background()
	admin, ash := addr.NewIdentity(), addr.NewIdentity()
	fund(t, g, admin, ash, "Ash", 5_000_000)
	if _, err := g.TopUp(ctx, ash, 50); err != nil {
		t.Fatalf("top-up: %v", err)
	}

	m, err := g.Mint(ctx, ash, ivysaur(5))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	userAddr, _ := g.Deriver().UserAddr(ash)
	want, bump, _ := g.Deriver().ItemAddr(userAddr, 0)
	if !m.Address.Equals(want) || m.Item.Bump != bump {
		t.Fatalf("item address %s, want %s", m.Address, want)
	}
	if m.Balance != 140 || m.Item.Name != "Ivysaur" || !m.Item.Owner.Equals(ash) {
		t.Fatalf("minted: %+v", m)
	}
	u, _ := g.User(ctx, ash)
	if u.ItemCount != 1 {
		t.Fatalf("item count %d", u.ItemCount)
	}
	reg, _ := g.Registry(ctx, ash)
	if !reg.Has(2) || reg.Len() != 1 {
		t.Fatalf("registry: %+v", reg)
	}

	u, err = g.Release(ctx, ash, m.Address)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if u.Balance != 145 {
		t.Fatalf("balance after release %d", u.Balance)
	}
	if _, err := g.Item(ctx, m.Address); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("released item: %v", err)
	}
	if _, err := g.Release(ctx, ash, m.Address); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("double release: %v", err)
	}
	if _, err := g.Rename(ctx, ash, m.Address, "x"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("rename released: %v", err)
	}
	// 圖鑑不會因放生而縮小
	if reg, _ = g.Registry(ctx, ash); reg.Len() != 1 {
		t.Fatalf("registry shrank: %+v", reg)
	}

	// 同一物種再抽：新位址、圖鑑不重複
	m2, err := g.Mint(ctx, ash, ivysaur(6))
	if err != nil {
		t.Fatalf("second mint: %v", err)
	}
	if m2.Address.Equals(m.Address) {
		t.Fatalf("address reused: %s", m2.Address)
	}
	if reg, _ = g.Registry(ctx, ash); reg.Len() != 1 {
		t.Fatalf("registry duplicated: %+v", reg)
	}
}

func TestRenameAndOwnership(t *testing.T) {
	g := newLab(t, ledger.NewMemStore(), Options{})
	ctx := context.Background()
	admin, ash, gary := addr.NewIdentity(), addr.NewIdentity(), addr.NewIdentity()
	fund(t, g, admin, ash, "Ash", 0)
	fund(t, g, admin, gary, "Gary", 0)

	m, err := g.Mint(ctx, ash, ivysaur(6))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := g.Rename(ctx, ash, m.Address, strings.Repeat("z", 21)); !errors.Is(err, errs.ErrNameTooLong) {
		t.Fatalf("long rename: %v", err)
	}
	if _, err := g.Rename(ctx, gary, m.Address, "Stolen"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("foreign rename: %v", err)
	}
	if _, err := g.Release(ctx, gary, m.Address); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("foreign release: %v", err)
	}
	it, _ := g.Item(ctx, m.Address)
	if it.Name != "Ivysaur" {
		t.Fatalf("name changed by rejected op: %q", it.Name)
	}
	if gu, _ := g.User(ctx, gary); gu.Balance != 100 {
		t.Fatalf("gary balance changed: %d", gu.Balance)
	}

	// 非擁有者檢查先於長度檢查
	if _, err := g.Rename(ctx, gary, m.Address, strings.Repeat("z", 21)); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("check order: %v", err)
	}
	if it, err = g.Rename(ctx, ash, m.Address, "Leafy"); err != nil || it.Name != "Leafy" {
		t.Fatalf("rename: %+v %v", it, err)
	}
}

func TestMintRejects(t *testing.T) {
	g := newLab(t, ledger.NewMemStore(), Options{})
	ctx := context.Background()
	ash := addr.NewIdentity()
	if _, err := g.Mint(ctx, ash, ivysaur(6)); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("mint without account: %v", err)
	}
	fund(t, g, addr.NewIdentity(), ash, "Ash", 0)

	bad := []gacha.Outcome{
		{SpeciesID: 2, Tier: gacha.UR, Worth: 1},           // tier 不符
		{SpeciesID: 0, Tier: gacha.R, Worth: 1},            // 未知物種
		ivysaur(7),                                         // 超過上限
		{SpeciesID: 2, Tier: gacha.SR, Gender: 9, Worth: 1}, // 未知性別
	}
	for i, o := range bad {
		if _, err := g.Mint(ctx, ash, o); !errors.Is(err, errs.ErrInvalid) {
			t.Fatalf("case %d: %v", i, err)
		}
	}
	// 異色上限加倍
	shiny := ivysaur(12)
	shiny.IsShiny = true
	if _, err := g.Mint(ctx, ash, shiny); err != nil {
		t.Fatalf("shiny mint: %v", err)
	}

	for i := 0; i < 9; i++ {
		if _, err := g.Mint(ctx, ash, ivysaur(1)); err != nil {
			t.Fatalf("mint %d: %v", i, err)
		}
	}
	before, _ := g.User(ctx, ash)
	if _, err := g.Mint(ctx, ash, ivysaur(1)); !errors.Is(err, errs.ErrInsufficientCoins) {
		t.Fatalf("mint without coins: %v", err)
	}
	after, _ := g.User(ctx, ash)
	if *before != *after {
		t.Fatalf("rejected mint mutated user: %+v -> %+v", before, after)
	}
}

func TestTenPullGuarantee(t *testing.T) {
	g := newLab(t, ledger.NewMemStore(), Options{})
	ctx := context.Background()
	admin := addr.NewIdentity()
	for i := 0; i < 50; i++ {
		id := addr.NewIdentity()
		fund(t, g, admin, id, "trainer", 0)
		res, err := g.Pull(ctx, id, 10)
		if err != nil {
			t.Fatalf("pull: %v", err)
		}
		if len(res.Items) != 10 || res.Balance != 0 {
			t.Fatalf("pull result: %d items, balance %d", len(res.Items), res.Balance)
		}
		if last := res.Items[9].Tier; last != gacha.SSR && last != gacha.UR {
			t.Fatalf("final slot %s", last)
		}
		u, _ := g.User(ctx, id)
		if u.ItemCount != 10 {
			t.Fatalf("item count %d", u.ItemCount)
		}
		items, _ := g.Items(ctx, id)
		if len(items) != 10 {
			t.Fatalf("items by owner %d", len(items))
		}
		distinct := map[uint8]bool{}
		for _, m := range res.Items {
			distinct[m.Item.SpeciesID] = true
		}
		reg, _ := g.Registry(ctx, id)
		if reg.Len() != len(distinct) {
			t.Fatalf("registry %d, distinct species %d", reg.Len(), len(distinct))
		}
	}
}

func TestPartialPull(t *testing.T) {
	g := newLab(t, ledger.NewMemStore(), Options{})
	ctx := context.Background()
	id := addr.NewIdentity()
	fund(t, g, addr.NewIdentity(), id, "Misty", 0)

	res, err := g.Pull(ctx, id, 13)
	if !errors.Is(err, errs.ErrInsufficientCoins) {
		t.Fatalf("expected insufficient coins, got %v", err)
	}
	e, _ := errs.AsErr(err)
	if e.Op != OpPull {
		t.Fatalf("op %q", e.Op)
	}
	if len(res.Items) != 10 {
		t.Fatalf("committed %d items", len(res.Items))
	}
	if _, err := g.Pull(ctx, id, 0); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("zero count: %v", err)
	}
}

func TestPullFirstMintFailsReportsBalance(t *testing.T) {
	g := newLab(t, ledger.NewMemStore(), Options{})
	ctx := context.Background()
	id := addr.NewIdentity()
	fund(t, g, addr.NewIdentity(), id, "Brock", 0)

	// 100 -> 10 -> 放生 +5 = 15 -> 5，不夠再抽一次
	var last *Minted
	for i := 0; i < 9; i++ {
		m, err := g.Mint(ctx, id, ivysaur(5))
		if err != nil {
			t.Fatalf("mint %d: %v", i, err)
		}
		last = m
	}
	if _, err := g.Release(ctx, id, last.Address); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := g.Mint(ctx, id, ivysaur(5)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	res, err := g.Pull(ctx, id, 1)
	if !errors.Is(err, errs.ErrInsufficientCoins) {
		t.Fatalf("expected insufficient coins, got %v", err)
	}
	if len(res.Items) != 0 || res.Balance != 5 {
		t.Fatalf("result: %d items, balance %d", len(res.Items), res.Balance)
	}
}

func TestWithdraw(t *testing.T) {
	g := newLab(t, ledger.NewMemStore(), Options{})
	ctx := context.Background()
	admin, ash := addr.NewIdentity(), addr.NewIdentity()
	if _, err := g.Withdraw(ctx, admin, 0); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("withdraw before initialize: %v", err)
	}
	fund(t, g, admin, ash, "Ash", 1_000_000)
	if _, err := g.TopUp(ctx, ash, 10); err != nil {
		t.Fatalf("top-up: %v", err)
	}
	if _, err := g.Withdraw(ctx, ash, 1); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("foreign withdraw: %v", err)
	}
	if _, err := g.Withdraw(ctx, admin, 1_000_001); !errors.Is(err, errs.ErrInsufficientFunds) {
		t.Fatalf("over withdraw: %v", err)
	}
	auth, err := g.Withdraw(ctx, admin, 400_000)
	if err != nil || auth.Balance != 600_000 {
		t.Fatalf("withdraw: %+v %v", auth, err)
	}
	if w, _ := g.Wallet(ctx, admin); w != 400_000 {
		t.Fatalf("admin wallet %d", w)
	}
}

// 隨機操作序列下：金幣與錢包不為負、物品數與 ItemCount 一致、圖鑑只增不減。
func TestRandomOpsKeepLedgerConsistent(t *testing.T) {
	g := newLab(t, ledger.NewMemStore(), Options{Seed: 99})
	ctx := context.Background()
	admin := addr.NewIdentity()
	users := make([]addr.Address, 4)
	for i := range users {
		users[i] = addr.NewIdentity()
		fund(t, g, admin, users[i], "u", 3_000_000)
	}
	rng := rand.New(rand.NewPCG(1, 2))
	regLen := map[addr.Address]int{}
	released := map[addr.Address]int{}

	for step := 0; step < 400; step++ {
		id := users[rng.IntN(len(users))]
		switch rng.IntN(5) {
		case 0:
			_, _ = g.TopUp(ctx, id, uint64(rng.IntN(5)))
		case 1:
			_, _ = g.Pull(ctx, id, 1+rng.IntN(10))
		case 2, 3:
			items, _ := g.Items(ctx, id)
			if len(items) > 0 {
				target := items[rng.IntN(len(items))].Address
				// 隨機挑一個身分，可能不是擁有者
				caller := users[rng.IntN(len(users))]
				if _, err := g.Release(ctx, caller, target); err == nil {
					released[caller]++
				} else if !caller.Equals(id) && !errors.Is(err, errs.ErrUnauthorized) {
					t.Fatalf("step %d: release by non-owner: %v", step, err)
				}
			}
		case 4:
			_, _ = g.Withdraw(ctx, admin, uint64(rng.IntN(200_000)))
		}

		for _, u := range users {
			acc, err := g.User(ctx, u)
			if err != nil {
				t.Fatalf("user: %v", err)
			}
			items, _ := g.Items(ctx, u)
			if uint64(len(items)+released[u]) != acc.ItemCount {
				t.Fatalf("step %d: items %d + released %d != count %d", step, len(items), released[u], acc.ItemCount)
			}
			reg, _ := g.Registry(ctx, u)
			if reg.Len() < regLen[u] {
				t.Fatalf("step %d: registry shrank", step)
			}
			regLen[u] = reg.Len()
		}
	}
}

func TestJournalAndFeed(t *testing.T) {
	dir := t.TempDir()
	w := journal.NewWriter(dir, "test")
	g := newLab(t, ledger.NewMemStore(), Options{Journal: w, FeedBuffer: 16})
	ctx := context.Background()

	events, cancel := g.Feed().Subscribe()
	defer cancel()

	admin, ash := addr.NewIdentity(), addr.NewIdentity()
	fund(t, g, admin, ash, "Ash", 0)
	if _, err := g.Mint(ctx, ash, ivysaur(4)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	// 被拒絕的操作不產生事件
	_, _ = g.Initialize(ctx, admin)

	wantOps := []string{OpInitialize, OpCreateAccount, OpMint}
	for i, op := range wantOps {
		select {
		case ev := <-events:
			if ev.Op != op || ev.Seq != uint64(i+1) || ev.ID == "" {
				t.Fatalf("event %d: %+v", i, ev)
			}
			if op == OpMint && (ev.Outcome == nil || ev.Outcome.Name != "Ivysaur" || ev.Balance != 90) {
				t.Fatalf("mint event: %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing event %s", op)
		}
	}
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}

	if err := g.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	files, _ := filepath.Glob(filepath.Join(dir, "test-*.jsonl.zst"))
	if len(files) != 1 {
		t.Fatalf("journal files %v", files)
	}
	got, err := journal.ReadFile(files[0])
	if err != nil || len(got) != 3 {
		t.Fatalf("journal: %d events %v", len(got), err)
	}
	if got[2].Address == "" || got[2].Amount != 10 {
		t.Fatalf("journal mint: %+v", got[2])
	}
}

func TestSQLiteBackedFlow(t *testing.T) {
	store, err := ledger.OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	g := newLab(t, store, Options{})
	ctx := context.Background()
	admin, ash := addr.NewIdentity(), addr.NewIdentity()
	fund(t, g, admin, ash, "Ash", 5_000_000)
	if _, err := g.TopUp(ctx, ash, 50); err != nil {
		t.Fatalf("top-up: %v", err)
	}
	res, err := g.Pull(ctx, ash, 10)
	if err != nil || res.Balance != 50 {
		t.Fatalf("pull: %+v %v", res, err)
	}
	u, err := g.Release(ctx, ash, res.Items[0].Address)
	if err != nil || u.Balance != 50+res.Items[0].Item.Worth {
		t.Fatalf("release: %+v %v", u, err)
	}
	items, _ := g.Items(ctx, ash)
	if len(items) != 9 {
		t.Fatalf("items %d", len(items))
	}
}

func TestSimulatorNoViolations(t *testing.T) {
	g := newLab(t, ledger.NewMemStore(), Options{})
	rep, _, err := g.NewSimulator(5).Sim(10, 500, 2, false)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	if rep.Summary.Draws != 10_000 || rep.Guarantee.Slots != 1000 || rep.Guarantee.Violations != 0 {
		t.Fatalf("report: %+v %+v", rep.Summary, rep.Guarantee)
	}
	if _, _, err := g.NewSimulator(5).Sim(0, 1, 1, false); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("bad count: %v", err)
	}
}

func TestSimulatorSplitsTotalBatches(t *testing.T) {
	g := newLab(t, ledger.NewMemStore(), Options{})
	cases := []struct{ count, total, workers int }{
		{10, 5, 4}, // 餘數 1 給第一個 worker
		{1, 7, 3},
		{10, 2, 8}, // worker 多於批數
	}
	for _, c := range cases {
		rep, _, err := g.NewSimulator(9).SimTotal(c.count, c.total, c.workers, false)
		if err != nil {
			t.Fatalf("%+v: %v", c, err)
		}
		if rep.Summary.Draws != c.count*c.total {
			t.Fatalf("%+v: draws %d want %d", c, rep.Summary.Draws, c.count*c.total)
		}
		if c.count == 10 && rep.Guarantee.Slots != c.total {
			t.Fatalf("%+v: guarantee slots %d", c, rep.Guarantee.Slots)
		}
	}
	if _, _, err := g.NewSimulator(9).SimTotal(10, 0, 1, false); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("zero total: %v", err)
	}
}

func TestNewRejectsBadProgramID(t *testing.T) {
	gs, err := LoadSetting("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	bad := *gs
	bad.ProgramID = "not-base58-0OIl"
	if _, err := New(&bad, ledger.NewMemStore(), Options{}); err == nil {
		t.Fatalf("expected bad program id rejection")
	}
}

func TestCanceledContext(t *testing.T) {
	g := newLab(t, ledger.NewMemStore(), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.CreateAccount(ctx, addr.NewIdentity(), "late"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}
