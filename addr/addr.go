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

// Package addr 由命名空間與 key 材料推導帳本紀錄位址。
//
// 位址為 program-derived address：同一組輸入永遠得到同一個位址，
// 不同命名空間或不同 key 材料（實務上）不會碰撞。
package addr

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/zintix-labs/gachalab/errs"
)

// Address 是 32 bytes 的帳本位址，也用作使用者身分（公鑰）。
type Address = solana.PublicKey

// DefaultProgramID 為原合約部署的 program id。
const DefaultProgramID = "3ekPFgdBXUEFQwY1kDqfMpebP68jxba65erehQwcd8zw"

// Namespace 為位址推導的命名空間。
type Namespace uint8

const (
	Config Namespace = iota
	User
	SpeciesRegistry
	Item
)

var nsSeed = map[Namespace]string{
	Config:          "CONFIG_SEED",
	User:            "USER_SEED",
	SpeciesRegistry: "POKEDEX_SEED",
	Item:            "POKEMON_SEED",
}

func (ns Namespace) String() string {
	switch ns {
	case Config:
		return "config"
	case User:
		return "user"
	case SpeciesRegistry:
		return "species-registry"
	case Item:
		return "item"
	}
	return "unknown"
}

// Seed 回傳命名空間的種子標籤。
func (ns Namespace) Seed() (string, bool) {
	s, ok := nsSeed[ns]
	return s, ok
}

// Deriver 綁定一個 program id，提供純函數式的位址推導。
type Deriver struct {
	program solana.PublicKey
}

func NewDeriver(programID string) (*Deriver, error) {
	if programID == "" {
		programID = DefaultProgramID
	}
	pk, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, errs.Reject(errs.Invalid, "derive", "invalid program id %q: %v", programID, err)
	}
	return &Deriver{program: pk}, nil
}

// MustDeriver 供測試與內嵌預設值使用。
func MustDeriver(programID string) *Deriver {
	d, err := NewDeriver(programID)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Deriver) ProgramID() solana.PublicKey { return d.program }

// Derive 推導位址並回傳 canonical bump。
// 唯一的失敗來源是輸入編碼：未知命名空間、單一 key 超過 32 bytes 或找不到可用 bump。
func (d *Deriver) Derive(ns Namespace, keyParts ...[]byte) (Address, uint8, error) {
	tag, ok := ns.Seed()
	if !ok {
		return Address{}, 0, errs.Reject(errs.Invalid, "derive", "unknown namespace %d", ns)
	}
	seeds := make([][]byte, 0, len(keyParts)+1)
	seeds = append(seeds, []byte(tag))
	for _, p := range keyParts {
		if len(p) > solana.MaxSeedLength {
			return Address{}, 0, errs.Reject(errs.Invalid, "derive", "%s key part exceeds %d bytes", ns, solana.MaxSeedLength)
		}
		seeds = append(seeds, p)
	}
	a, bump, err := solana.FindProgramAddress(seeds, d.program)
	if err != nil {
		return Address{}, 0, errs.WrapWithExtra(err, "derive failed", ns.String())
	}
	return a, bump, nil
}

// ConfigAddr 為全域 Authority 的位址。
func (d *Deriver) ConfigAddr() (Address, error) {
	a, _, err := d.Derive(Config)
	return a, err
}

func (d *Deriver) UserAddr(identity Address) (Address, error) {
	a, _, err := d.Derive(User, identity.Bytes())
	return a, err
}

func (d *Deriver) RegistryAddr(identity Address) (Address, error) {
	a, _, err := d.Derive(SpeciesRegistry, identity.Bytes())
	return a, err
}

// ItemAddr 以 UserAccount 位址與鑄造當下的序號推導物品位址。
func (d *Deriver) ItemAddr(userAddr Address, seq uint64) (Address, uint8, error) {
	return d.Derive(Item, userAddr.Bytes(), SeqBytes(seq))
}

// SeqBytes 為序號的 little-endian u64 編碼。
func SeqBytes(seq uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], seq)
	return b[:]
}

// Parse 解析 base58 位址。
func Parse(s string) (Address, error) {
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return Address{}, errs.Reject(errs.Invalid, "parse", "invalid address %q", s)
	}
	return pk, nil
}

// NewIdentity 產生新的隨機身分（僅公鑰），供模擬與測試。
func NewIdentity() Address {
	return solana.NewWallet().PublicKey()
}

func Short(a Address) string {
	s := a.String()
	if len(s) <= 10 {
		return s
	}
	return fmt.Sprintf("%s..%s", s[:4], s[len(s)-4:])
}
