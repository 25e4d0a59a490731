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

// Package ledger 定義四種帳本紀錄、其二進位編碼與交易式儲存。
package ledger

import (
	"slices"

	"github.com/zintix-labs/gachalab/addr"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/gacha"
)

// Kind 紀錄種類
type Kind uint8

const (
	KindAuthority Kind = iota + 1
	KindUser
	KindRegistry
	KindItem
)

func (k Kind) String() string {
	switch k {
	case KindAuthority:
		return "authority"
	case KindUser:
		return "user"
	case KindRegistry:
		return "registry"
	case KindItem:
		return "item"
	}
	return "unknown"
}

// Record 所有可儲存紀錄的共同介面
type Record interface {
	Kind() Kind
	// Holder 回傳紀錄的擁有者身分
	Holder() addr.Address
}

// Authority 全域金庫，唯一。Balance 為累積的原生貨幣（lamports）。
type Authority struct {
	Owner   addr.Address
	Balance uint64
}

func (*Authority) Kind() Kind              { return KindAuthority }
func (a *Authority) Holder() addr.Address { return a.Owner }

// UserAccount 使用者帳戶。Address 即擁有者身分。
type UserAccount struct {
	Address   addr.Address
	Username  string
	Bio       string
	ItemCount uint64
	Balance   uint64
}

func (*UserAccount) Kind() Kind              { return KindUser }
func (u *UserAccount) Holder() addr.Address { return u.Address }

// SpeciesRegistry 使用者已取得過的物種集合（圖鑑）。
// IDs 依首次取得順序排列，不重複。
type SpeciesRegistry struct {
	Owner addr.Address
	IDs   []uint8
}

func (*SpeciesRegistry) Kind() Kind              { return KindRegistry }
func (r *SpeciesRegistry) Holder() addr.Address { return r.Owner }

func (r *SpeciesRegistry) Has(id uint8) bool {
	return slices.Contains(r.IDs, id)
}

// RegistryCap 圖鑑最多容納的物種數，對應鏈上 Pokedex 帳戶的固定長度。
const RegistryCap = 200

// Add 冪等插入；回傳是否為新物種。圖鑑已滿時拒絕新物種。
func (r *SpeciesRegistry) Add(id uint8) (bool, error) {
	if r.Has(id) {
		return false, nil
	}
	if len(r.IDs) >= RegistryCap {
		return false, errs.Reject(errs.Invalid, "register", "registry full: %d species", RegistryCap)
	}
	r.IDs = append(r.IDs, id)
	return true, nil
}

func (r *SpeciesRegistry) Len() int { return len(r.IDs) }

// Bitfield 256-bit 成員位元表，bit i 代表 id i。
func (r *SpeciesRegistry) Bitfield() [32]byte {
	var b [32]byte
	for _, id := range r.IDs {
		b[id/8] |= 1 << (id % 8)
	}
	return b
}

// ItemInstance 一隻被抽出的個體。
type ItemInstance struct {
	SpeciesID uint8
	Name      string
	Owner     addr.Address
	Gender    gacha.Gender
	IsShiny   bool
	Worth     uint64
	Bump      uint8
}

func (*ItemInstance) Kind() Kind              { return KindItem }
func (i *ItemInstance) Holder() addr.Address { return i.Owner }
