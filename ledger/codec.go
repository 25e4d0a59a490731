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
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/zintix-labs/gachalab/errs"
)

// 帳戶資料格式：8 bytes discriminator + borsh body。
// discriminator = sha256("account:<Name>")[:8]，名稱沿用鏈上帳戶型別名。
var accountName = map[Kind]string{
	KindAuthority: "GameAuthority",
	KindUser:      "UserData",
	KindRegistry:  "Pokedex",
	KindItem:      "Pokemon",
}

var discriminators = func() map[Kind][8]byte {
	m := make(map[Kind][8]byte, len(accountName))
	for k, name := range accountName {
		m[k] = discriminator(name)
	}
	return m
}()

func discriminator(name string) [8]byte {
	var d [8]byte
	h := sha256.Sum256([]byte("account:" + name))
	copy(d[:], h[:8])
	return d
}

// Encode 把紀錄序列化成帳戶資料。
func Encode(r Record) ([]byte, error) {
	d, ok := discriminators[r.Kind()]
	if !ok {
		return nil, errs.NewFatal(fmt.Sprintf("ledger: no discriminator for %s", r.Kind()))
	}
	buf := bytes.NewBuffer(make([]byte, 0, 128))
	buf.Write(d[:])
	if err := bin.NewBorshEncoder(buf).Encode(r); err != nil {
		return nil, errs.Wrap(err, "ledger: borsh encode "+r.Kind().String())
	}
	return buf.Bytes(), nil
}

// Decode 把帳戶資料還原到 r；標頭必須與 r 的 kind 相符。
func Decode(data []byte, r Record) error {
	d := discriminators[r.Kind()]
	if len(data) < len(d) || !bytes.Equal(data[:len(d)], d[:]) {
		return errs.NewFatal(fmt.Sprintf("ledger: discriminator mismatch for %s", r.Kind()))
	}
	if err := bin.NewBorshDecoder(data[len(d):]).Decode(r); err != nil {
		return errs.Wrap(err, "ledger: borsh decode "+r.Kind().String())
	}
	return nil
}

// KindOf 由資料標頭判斷紀錄種類。
func KindOf(data []byte) (Kind, bool) {
	if len(data) < 8 {
		return 0, false
	}
	for k, d := range discriminators {
		if bytes.Equal(data[:8], d[:]) {
			return k, true
		}
	}
	return 0, false
}

func newRecord(k Kind) Record {
	switch k {
	case KindAuthority:
		return &Authority{}
	case KindUser:
		return &UserAccount{}
	case KindRegistry:
		return &SpeciesRegistry{}
	case KindItem:
		return &ItemInstance{}
	}
	return nil
}

// DecodeAny 依標頭解出任一種紀錄。
func DecodeAny(data []byte) (Record, error) {
	k, ok := KindOf(data)
	if !ok {
		return nil, errs.NewFatal("ledger: unknown account discriminator")
	}
	r := newRecord(k)
	if err := Decode(data, r); err != nil {
		return nil, err
	}
	return r, nil
}
