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

package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/bits"

	"github.com/zintix-labs/gachalab/addr"
	"github.com/zintix-labs/gachalab/errs"
)

// Account 儲存層看到的原始帳戶：位址、種類、擁有者與編碼後資料。
type Account struct {
	Address addr.Address
	Kind    Kind
	Owner   addr.Address
	Data    []byte
}

// ErrReadOnly 在唯讀交易中寫入時回傳。
var ErrReadOnly = errs.NewFatal("ledger: write in read-only transaction")

// Tx 一次交易內可見的帳本狀態。交易內的寫入對後續讀取立即可見，
// 但只有 Update 的 fn 回傳 nil 時才會提交。
type Tx interface {
	Load(a addr.Address) (Account, bool, error)
	Save(acc Account) error
	Delete(a addr.Address) error
	// ByOwner 依位址排序回傳 owner 名下某種類的所有帳戶
	ByOwner(kind Kind, owner addr.Address) ([]Account, error)
	// Lamports 為身分的原生錢包餘額，不存在視為 0
	Lamports(id addr.Address) (uint64, error)
	SetLamports(id addr.Address, v uint64) error
}

// Store 交易式帳本儲存。寫入交易彼此序列化。
type Store interface {
	View(ctx context.Context, fn func(Tx) error) error
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}

// Get 讀取並解碼位址上的紀錄，不存在或種類不符時回傳 NotFound。
func Get[T any, P interface {
	*T
	Record
}](tx Tx, a addr.Address) (P, error) {
	acc, ok, err := tx.Load(a)
	if err != nil {
		return nil, err
	}
	p := P(new(T))
	if !ok || acc.Kind != p.Kind() {
		return nil, errs.Reject(errs.NotFound, "load", "%s %s not found", p.Kind(), a)
	}
	if err := Decode(acc.Data, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Load 讀取位址上任一種類的紀錄，種類由資料標頭決定。
func Load(tx Tx, a addr.Address) (Record, error) {
	acc, ok, err := tx.Load(a)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.Reject(errs.NotFound, "load", "account %s not found", a)
	}
	r, err := DecodeAny(acc.Data)
	if err != nil {
		return nil, err
	}
	if r.Kind() != acc.Kind {
		return nil, errs.NewFatal(fmt.Sprintf("ledger: account %s stored as %s but encodes %s", a, acc.Kind, r.Kind()))
	}
	return r, nil
}

// Exists 判斷位址是否已被占用（任何種類）。
func Exists(tx Tx, a addr.Address) (bool, error) {
	_, ok, err := tx.Load(a)
	return ok, err
}

// Put 編碼並寫入紀錄。
func Put(tx Tx, a addr.Address, r Record) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}
	return tx.Save(Account{Address: a, Kind: r.Kind(), Owner: r.Holder(), Data: data})
}

// Items 列出 owner 名下的所有物品。
func Items(tx Tx, owner addr.Address) ([]Item, error) {
	accs, err := tx.ByOwner(KindItem, owner)
	if err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(accs))
	for _, acc := range accs {
		it := &ItemInstance{}
		if err := Decode(acc.Data, it); err != nil {
			return nil, err
		}
		out = append(out, Item{Address: acc.Address, ItemInstance: *it})
	}
	return out, nil
}

// Item 帶位址的物品
type Item struct {
	Address addr.Address
	ItemInstance
}

// CheckedAdd 溢位時回傳 Invalid。
func CheckedAdd(op string, a, b uint64) (uint64, error) {
	s, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, errs.Reject(errs.Invalid, op, "arithmetic overflow: %d + %d", a, b)
	}
	return s, nil
}

// CheckedMul 溢位時回傳 Invalid。
func CheckedMul(op string, a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, errs.Reject(errs.Invalid, op, "arithmetic overflow: %d * %d", a, b)
	}
	return lo, nil
}

// IsNotFound 方便呼叫端判斷
func IsNotFound(err error) bool {
	return errors.Is(err, errs.ErrNotFound)
}
