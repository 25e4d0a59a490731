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
	"fmt"

	"github.com/zintix-labs/gachalab/addr"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/gacha"
	"github.com/zintix-labs/gachalab/journal"
	"github.com/zintix-labs/gachalab/ledger"
)

// 操作名稱，同時用於錯誤的 Op 與 journal 事件
const (
	OpInitialize    = "initialize"
	OpCreateAccount = "create-account"
	OpTopUp         = "top-up"
	OpAirdrop       = "airdrop"
	OpMint          = "mint"
	OpPull          = "pull"
	OpRename        = "rename"
	OpRelease       = "release"
	OpWithdraw      = "withdraw"
)

// Minted 一次鑄造的結果
type Minted struct {
	Address addr.Address
	Item    ledger.ItemInstance
	Tier    gacha.Tier
	// Balance 鑄造後的使用者金幣
	Balance uint64
}

// PullResult 多抽結果。Pull 回傳錯誤時 Items 為失敗前已提交的部分，
// Balance 為當下的使用者金幣（讀不到帳戶時為 0）。
type PullResult struct {
	Items   []Minted
	Balance uint64
}

// Initialize 建立唯一的 Authority，admin 成為唯一可提領者。
func (g *Gachalab) Initialize(ctx context.Context, admin addr.Address) (*ledger.Authority, error) {
	var auth *ledger.Authority
	err := g.store.Update(ctx, func(tx ledger.Tx) error {
		ok, err := ledger.Exists(tx, g.cfgAddr)
		if err != nil {
			return err
		}
		if ok {
			return errs.Reject(errs.AlreadyExists, OpInitialize, "authority already initialized")
		}
		auth = &ledger.Authority{Owner: admin}
		return ledger.Put(tx, g.cfgAddr, auth)
	})
	if err != nil {
		return nil, g.fail(OpInitialize, admin, err)
	}
	g.emit(journal.Event{Op: OpInitialize, Identity: admin.String(), Address: g.cfgAddr.String()})
	return auth, nil
}

// CreateAccount 建立使用者帳戶與空的物種圖鑑。
func (g *Gachalab) CreateAccount(ctx context.Context, identity addr.Address, username string) (*ledger.UserAccount, error) {
	eco := g.gs.Economy
	if len(username) > eco.NameLimit {
		return nil, g.fail(OpCreateAccount, identity,
			errs.Reject(errs.NameTooLong, OpCreateAccount, "username is %d bytes, limit %d", len(username), eco.NameLimit))
	}
	userAddr, err := g.deriver.UserAddr(identity)
	if err != nil {
		return nil, g.fail(OpCreateAccount, identity, err)
	}
	regAddr, err := g.deriver.RegistryAddr(identity)
	if err != nil {
		return nil, g.fail(OpCreateAccount, identity, err)
	}

	var user *ledger.UserAccount
	err = g.store.Update(ctx, func(tx ledger.Tx) error {
		for _, a := range []addr.Address{userAddr, regAddr} {
			ok, err := ledger.Exists(tx, a)
			if err != nil {
				return err
			}
			if ok {
				return errs.Reject(errs.AlreadyExists, OpCreateAccount, "account %s already exists", a)
			}
		}
		user = &ledger.UserAccount{
			Address:  identity,
			Username: username,
			Bio:      eco.DefaultNote,
			Balance:  eco.StartingBalance,
		}
		if err := ledger.Put(tx, userAddr, user); err != nil {
			return err
		}
		return ledger.Put(tx, regAddr, &ledger.SpeciesRegistry{Owner: identity, IDs: []uint8{}})
	})
	if err != nil {
		return nil, g.fail(OpCreateAccount, identity, err)
	}
	g.emit(journal.Event{Op: OpCreateAccount, Identity: identity.String(), Address: userAddr.String(), Name: username, Balance: user.Balance})
	return user, nil
}

// TopUp 以錢包原生貨幣購買金幣：錢包扣 coins*lamports_per_coin 轉入 Authority，使用者加 coins。
// coins 為 0 時視為零額轉帳，照常提交。
func (g *Gachalab) TopUp(ctx context.Context, identity addr.Address, coins uint64) (*ledger.UserAccount, error) {
	userAddr, err := g.deriver.UserAddr(identity)
	if err != nil {
		return nil, g.fail(OpTopUp, identity, err)
	}
	var user *ledger.UserAccount
	var cost uint64
	err = g.store.Update(ctx, func(tx ledger.Tx) error {
		var err error
		if user, err = ledger.Get[ledger.UserAccount](tx, userAddr); err != nil {
			return err
		}
		auth, err := ledger.Get[ledger.Authority](tx, g.cfgAddr)
		if err != nil {
			return err
		}
		if cost, err = ledger.CheckedMul(OpTopUp, coins, g.gs.Economy.LamportsPerCoin); err != nil {
			return err
		}
		wallet, err := tx.Lamports(identity)
		if err != nil {
			return err
		}
		if wallet < cost {
			return errs.Reject(errs.InsufficientFunds, OpTopUp, "wallet has %d lamports, need %d", wallet, cost)
		}
		authBal, err := ledger.CheckedAdd(OpTopUp, auth.Balance, cost)
		if err != nil {
			return err
		}
		userBal, err := ledger.CheckedAdd(OpTopUp, user.Balance, coins)
		if err != nil {
			return err
		}
		auth.Balance, user.Balance = authBal, userBal
		if err := tx.SetLamports(identity, wallet-cost); err != nil {
			return err
		}
		if err := ledger.Put(tx, g.cfgAddr, auth); err != nil {
			return err
		}
		return ledger.Put(tx, userAddr, user)
	})
	if err != nil {
		return nil, g.fail(OpTopUp, identity, err)
	}
	g.emit(journal.Event{Op: OpTopUp, Identity: identity.String(), Address: userAddr.String(), Amount: coins, Balance: user.Balance})
	return user, nil
}

// Airdrop 直接增加身分的錢包餘額（開發用水龍頭）。
func (g *Gachalab) Airdrop(ctx context.Context, identity addr.Address, lamports uint64) (uint64, error) {
	var bal uint64
	err := g.store.Update(ctx, func(tx ledger.Tx) error {
		cur, err := tx.Lamports(identity)
		if err != nil {
			return err
		}
		if bal, err = ledger.CheckedAdd(OpAirdrop, cur, lamports); err != nil {
			return err
		}
		return tx.SetLamports(identity, bal)
	})
	if err != nil {
		return 0, g.fail(OpAirdrop, identity, err)
	}
	g.emit(journal.Event{Op: OpAirdrop, Identity: identity.String(), Amount: lamports, Balance: bal})
	return bal, nil
}

// Mint 以單一 Outcome 鑄造一隻物品，扣 cost_per_pull 金幣。整個過程為一個原子單位。
// 物品位址由使用者位址與鑄造前的 ItemCount 推導，因此同一位址永不重複。
func (g *Gachalab) Mint(ctx context.Context, identity addr.Address, o gacha.Outcome) (*Minted, error) {
	if err := g.engine.Check(o); err != nil {
		return nil, g.fail(OpMint, identity, err)
	}
	sp, _ := g.engine.Species(o.SpeciesID)
	userAddr, err := g.deriver.UserAddr(identity)
	if err != nil {
		return nil, g.fail(OpMint, identity, err)
	}
	regAddr, err := g.deriver.RegistryAddr(identity)
	if err != nil {
		return nil, g.fail(OpMint, identity, err)
	}
	cost := g.gs.Economy.CostPerPull

	var m *Minted
	err = g.store.Update(ctx, func(tx ledger.Tx) error {
		user, err := ledger.Get[ledger.UserAccount](tx, userAddr)
		if err != nil {
			return err
		}
		if user.Address != identity {
			return errs.Reject(errs.Unauthorized, OpMint, "account %s is not owned by caller", userAddr)
		}
		if user.Balance < cost {
			return errs.Reject(errs.InsufficientCoins, OpMint, "balance %d, need %d", user.Balance, cost)
		}
		itemAddr, bump, err := g.deriver.ItemAddr(userAddr, user.ItemCount)
		if err != nil {
			return err
		}
		taken, err := ledger.Exists(tx, itemAddr)
		if err != nil {
			return err
		}
		if taken {
			return errs.Reject(errs.AlreadyExists, OpMint, "item address %s already in use", itemAddr)
		}
		reg, err := ledger.Get[ledger.SpeciesRegistry](tx, regAddr)
		if err != nil {
			return err
		}
		added, err := reg.Add(o.SpeciesID)
		if err != nil {
			return err
		}
		if added {
			if err := ledger.Put(tx, regAddr, reg); err != nil {
				return err
			}
		}
		item := ledger.ItemInstance{
			SpeciesID: o.SpeciesID,
			Name:      sp.Name,
			Owner:     identity,
			Gender:    o.Gender,
			IsShiny:   o.IsShiny,
			Worth:     o.Worth,
			Bump:      bump,
		}
		user.Balance -= cost
		user.ItemCount++
		if err := ledger.Put(tx, itemAddr, &item); err != nil {
			return err
		}
		if err := ledger.Put(tx, userAddr, user); err != nil {
			return err
		}
		m = &Minted{Address: itemAddr, Item: item, Tier: o.Tier, Balance: user.Balance}
		return nil
	})
	if err != nil {
		return nil, g.fail(OpMint, identity, err)
	}
	oc := o
	oc.Name = sp.Name
	g.emit(journal.Event{Op: OpMint, Identity: identity.String(), Address: m.Address.String(), Amount: cost, Balance: m.Balance, Outcome: &oc})
	return m, nil
}

// Pull 由引擎一次算出 count 個結果，再逐一 Mint。
// 每次 Mint 各自原子；第 k 次失敗時回傳前 k 個已提交的結果與錯誤。
func (g *Gachalab) Pull(ctx context.Context, identity addr.Address, count int) (*PullResult, error) {
	outs, err := g.engine.Pull(count)
	if err != nil {
		return nil, g.fail(OpPull, identity, err)
	}
	res := &PullResult{Items: make([]Minted, 0, count)}
	for i, o := range outs {
		m, err := g.Mint(ctx, identity, o)
		if err != nil {
			if i == 0 {
				if u, uerr := g.User(ctx, identity); uerr == nil {
					res.Balance = u.Balance
				}
			}
			e := errs.WrapWithExtra(err, OpPull+" interrupted", fmt.Sprintf("%d of %d minted", i, count))
			e.Op = OpPull
			return res, e
		}
		res.Items = append(res.Items, *m)
		res.Balance = m.Balance
	}
	return res, nil
}

// Rename 修改物品顯示名稱。檢查順序：存在、擁有者、長度。
func (g *Gachalab) Rename(ctx context.Context, identity addr.Address, itemAddr addr.Address, name string) (*ledger.ItemInstance, error) {
	limit := g.gs.Economy.NameLimit
	var item *ledger.ItemInstance
	err := g.store.Update(ctx, func(tx ledger.Tx) error {
		var err error
		if item, err = ledger.Get[ledger.ItemInstance](tx, itemAddr); err != nil {
			return err
		}
		if item.Owner != identity {
			return errs.Reject(errs.Unauthorized, OpRename, "item %s is not owned by caller", itemAddr)
		}
		if len(name) > limit {
			return errs.Reject(errs.NameTooLong, OpRename, "name is %d bytes, limit %d", len(name), limit)
		}
		item.Name = name
		return ledger.Put(tx, itemAddr, item)
	})
	if err != nil {
		return nil, g.fail(OpRename, identity, err)
	}
	g.emit(journal.Event{Op: OpRename, Identity: identity.String(), Address: itemAddr.String(), Name: name})
	return item, nil
}

// Release 放生物品：其價值轉入擁有者金幣，紀錄刪除，位址不再使用。
func (g *Gachalab) Release(ctx context.Context, identity addr.Address, itemAddr addr.Address) (*ledger.UserAccount, error) {
	userAddr, err := g.deriver.UserAddr(identity)
	if err != nil {
		return nil, g.fail(OpRelease, identity, err)
	}
	var user *ledger.UserAccount
	var worth uint64
	err = g.store.Update(ctx, func(tx ledger.Tx) error {
		item, err := ledger.Get[ledger.ItemInstance](tx, itemAddr)
		if err != nil {
			return err
		}
		if item.Owner != identity {
			return errs.Reject(errs.Unauthorized, OpRelease, "item %s is not owned by caller", itemAddr)
		}
		if user, err = ledger.Get[ledger.UserAccount](tx, userAddr); err != nil {
			return err
		}
		bal, err := ledger.CheckedAdd(OpRelease, user.Balance, item.Worth)
		if err != nil {
			return err
		}
		user.Balance = bal
		worth = item.Worth
		if err := ledger.Put(tx, userAddr, user); err != nil {
			return err
		}
		return tx.Delete(itemAddr)
	})
	if err != nil {
		return nil, g.fail(OpRelease, identity, err)
	}
	g.emit(journal.Event{Op: OpRelease, Identity: identity.String(), Address: itemAddr.String(), Amount: worth, Balance: user.Balance})
	return user, nil
}

// Withdraw 由 Authority 擁有者提領累積的原生貨幣到自己的錢包。
func (g *Gachalab) Withdraw(ctx context.Context, admin addr.Address, amount uint64) (*ledger.Authority, error) {
	var auth *ledger.Authority
	err := g.store.Update(ctx, func(tx ledger.Tx) error {
		var err error
		if auth, err = ledger.Get[ledger.Authority](tx, g.cfgAddr); err != nil {
			return err
		}
		if auth.Owner != admin {
			return errs.Reject(errs.Unauthorized, OpWithdraw, "caller is not the authority owner")
		}
		if amount > auth.Balance {
			return errs.Reject(errs.InsufficientFunds, OpWithdraw, "authority holds %d, requested %d", auth.Balance, amount)
		}
		wallet, err := tx.Lamports(admin)
		if err != nil {
			return err
		}
		wallet, err = ledger.CheckedAdd(OpWithdraw, wallet, amount)
		if err != nil {
			return err
		}
		auth.Balance -= amount
		if err := tx.SetLamports(admin, wallet); err != nil {
			return err
		}
		return ledger.Put(tx, g.cfgAddr, auth)
	})
	if err != nil {
		return nil, g.fail(OpWithdraw, admin, err)
	}
	g.emit(journal.Event{Op: OpWithdraw, Identity: admin.String(), Address: g.cfgAddr.String(), Amount: amount, Balance: auth.Balance})
	return auth, nil
}
