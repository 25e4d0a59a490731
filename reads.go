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

	"github.com/zintix-labs/gachalab/addr"
	"github.com/zintix-labs/gachalab/ledger"
)

func (g *Gachalab) Authority(ctx context.Context) (*ledger.Authority, error) {
	var out *ledger.Authority
	err := g.store.View(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = ledger.Get[ledger.Authority](tx, g.cfgAddr)
		return err
	})
	return out, err
}

// User 依身分讀取使用者帳戶
func (g *Gachalab) User(ctx context.Context, identity addr.Address) (*ledger.UserAccount, error) {
	a, err := g.deriver.UserAddr(identity)
	if err != nil {
		return nil, err
	}
	var out *ledger.UserAccount
	err = g.store.View(ctx, func(tx ledger.Tx) error {
		out, err = ledger.Get[ledger.UserAccount](tx, a)
		return err
	})
	return out, err
}

func (g *Gachalab) Registry(ctx context.Context, identity addr.Address) (*ledger.SpeciesRegistry, error) {
	a, err := g.deriver.RegistryAddr(identity)
	if err != nil {
		return nil, err
	}
	var out *ledger.SpeciesRegistry
	err = g.store.View(ctx, func(tx ledger.Tx) error {
		out, err = ledger.Get[ledger.SpeciesRegistry](tx, a)
		return err
	})
	return out, err
}

// Item 依位址讀取物品；已放生或不存在回傳 NotFound。
func (g *Gachalab) Item(ctx context.Context, itemAddr addr.Address) (*ledger.ItemInstance, error) {
	var out *ledger.ItemInstance
	err := g.store.View(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = ledger.Get[ledger.ItemInstance](tx, itemAddr)
		return err
	})
	return out, err
}

// Account 讀取任意位址上的紀錄，不限種類；探索用。
func (g *Gachalab) Account(ctx context.Context, a addr.Address) (ledger.Record, error) {
	var out ledger.Record
	err := g.store.View(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = ledger.Load(tx, a)
		return err
	})
	return out, err
}

// Items 列出身分名下的所有物品
func (g *Gachalab) Items(ctx context.Context, identity addr.Address) ([]ledger.Item, error) {
	var out []ledger.Item
	err := g.store.View(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = ledger.Items(tx, identity)
		return err
	})
	return out, err
}

// Wallet 身分的原生錢包餘額
func (g *Gachalab) Wallet(ctx context.Context, identity addr.Address) (uint64, error) {
	var out uint64
	err := g.store.View(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = tx.Lamports(identity)
		return err
	})
	return out, err
}
