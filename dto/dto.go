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

package dto

import (
	"encoding/hex"

	"github.com/zintix-labs/gachalab/addr"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/gacha"
	"github.com/zintix-labs/gachalab/ledger"
)

type AuthorityView struct {
	Address string `json:"address"`
	Owner   string `json:"owner"`
	Balance uint64 `json:"balance"` // lamports
}

type UserView struct {
	Address   string `json:"address"` // 身分
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	ItemCount uint64 `json:"item_count"`
	Balance   uint64 `json:"balance"` // 金幣
}

type RegistryView struct {
	Owner    string  `json:"owner"`
	Count    int     `json:"count"`
	IDs      []uint8 `json:"ids"`
	Bitfield string  `json:"bitfield"` // 32 bytes hex
}

type ItemView struct {
	Address   string       `json:"address"`
	SpeciesID uint8        `json:"species_id"`
	Name      string       `json:"name"`
	Owner     string       `json:"owner"`
	Tier      gacha.Tier   `json:"tier"`
	Gender    gacha.Gender `json:"gender"`
	IsShiny   bool         `json:"is_shiny"`
	Worth     uint64       `json:"worth"`
	Bump      uint8        `json:"bump"`
}

// AccountView 任意位址的原始紀錄；Record 依 Kind 為對應的 view。
type AccountView struct {
	Address string `json:"address"`
	Kind    string `json:"kind"`
	Owner   string `json:"owner"`
	Record  any    `json:"record"`
}

type MintView struct {
	Item    ItemView `json:"item"`
	Balance uint64   `json:"balance"`
}

type PullView struct {
	Items   []ItemView `json:"items"`
	Balance uint64     `json:"balance"`
	// Error 多抽中途失敗時帶出原因；Items 仍為已提交的部分
	Error *ErrorView `json:"error,omitempty"`
}

type WalletView struct {
	Identity string `json:"identity"`
	Lamports uint64 `json:"lamports"`
}

type ErrorView struct {
	Kind    string `json:"kind"`
	Op      string `json:"op,omitempty"`
	Message string `json:"message"`
}

func NewAuthorityView(a addr.Address, au *ledger.Authority) AuthorityView {
	return AuthorityView{Address: a.String(), Owner: au.Owner.String(), Balance: au.Balance}
}

func NewUserView(u *ledger.UserAccount) UserView {
	return UserView{
		Address:   u.Address.String(),
		Username:  u.Username,
		Bio:       u.Bio,
		ItemCount: u.ItemCount,
		Balance:   u.Balance,
	}
}

func NewRegistryView(r *ledger.SpeciesRegistry) RegistryView {
	bits := r.Bitfield()
	ids := r.IDs
	if ids == nil {
		ids = []uint8{}
	}
	return RegistryView{
		Owner:    r.Owner.String(),
		Count:    r.Len(),
		IDs:      ids,
		Bitfield: hex.EncodeToString(bits[:]),
	}
}

// NewItemView tier 由圖鑑查得，帳本上不保存稀有度。
func NewItemView(a addr.Address, it ledger.ItemInstance, tier gacha.Tier) ItemView {
	return ItemView{
		Address:   a.String(),
		SpeciesID: it.SpeciesID,
		Name:      it.Name,
		Owner:     it.Owner.String(),
		Tier:      tier,
		Gender:    it.Gender,
		IsShiny:   it.IsShiny,
		Worth:     it.Worth,
		Bump:      it.Bump,
	}
}

// NewAccountView tierOf 用來補上物品的稀有度。
func NewAccountView(a addr.Address, r ledger.Record, tierOf func(uint8) gacha.Tier) AccountView {
	v := AccountView{Address: a.String(), Kind: r.Kind().String(), Owner: r.Holder().String()}
	switch rec := r.(type) {
	case *ledger.Authority:
		v.Record = NewAuthorityView(a, rec)
	case *ledger.UserAccount:
		v.Record = NewUserView(rec)
	case *ledger.SpeciesRegistry:
		v.Record = NewRegistryView(rec)
	case *ledger.ItemInstance:
		v.Record = NewItemView(a, *rec, tierOf(rec.SpeciesID))
	}
	return v
}

func NewWalletView(identity addr.Address, lamports uint64) WalletView {
	return WalletView{Identity: identity.String(), Lamports: lamports}
}

// NewErrorView 非 *errs.E 的錯誤不外洩細節
func NewErrorView(err error) *ErrorView {
	if err == nil {
		return nil
	}
	e, ok := errs.AsErr(err)
	if !ok {
		return &ErrorView{Kind: "internal", Message: "internal error"}
	}
	v := &ErrorView{Kind: errs.KindOf(err).String(), Op: e.Op, Message: innermost(e).Message}
	if v.Kind == "" {
		v.Kind = "internal"
		if e.ErrLv != errs.Fatal {
			v.Kind = "bad_request"
		}
	}
	if e.ErrLv == errs.Fatal {
		v.Message = "internal error"
	}
	return v
}

// innermost 錯誤鏈最內層的 *errs.E，訊息最具體。
func innermost(e *errs.E) *errs.E {
	for e.Cause != nil {
		next, ok := errs.AsErr(e.Cause)
		if !ok {
			break
		}
		e = next
	}
	return e
}
