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
	"context"
	"slices"
	"sync"

	"github.com/zintix-labs/gachalab/addr"
)

// MemStore 記憶體帳本。寫入交易以 staging overlay 暫存，fn 成功才整批套用。
type MemStore struct {
	mu       sync.RWMutex
	writer   chan struct{} // 容量 1，寫入交易的互斥，可被 ctx 中斷
	accounts map[addr.Address]Account
	wallets  map[addr.Address]uint64
}

func NewMemStore() *MemStore {
	return &MemStore{
		writer:   make(chan struct{}, 1),
		accounts: map[addr.Address]Account{},
		wallets:  map[addr.Address]uint64{},
	}
}

func (m *MemStore) View(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&memTx{m: m, readOnly: true})
}

func (m *MemStore) Update(ctx context.Context, fn func(Tx) error) error {
	select {
	case m.writer <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-m.writer }()

	tx := &memTx{
		m:        m,
		accounts: map[addr.Address]*Account{},
		wallets:  map[addr.Address]uint64{},
	}
	if err := m.stage(tx, fn); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for a, acc := range tx.accounts {
		if acc == nil {
			delete(m.accounts, a)
			continue
		}
		m.accounts[a] = *acc
	}
	for id, v := range tx.wallets {
		m.wallets[id] = v
	}
	return nil
}

// stage 在讀鎖下執行 fn；只有寫入者會修改 base state，所以這裡不會與其他寫入交錯。
func (m *MemStore) stage(tx *memTx, fn func(Tx) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(tx)
}

func (m *MemStore) Close() error { return nil }

type memTx struct {
	m        *MemStore
	readOnly bool
	accounts map[addr.Address]*Account // nil value = 已刪除
	wallets  map[addr.Address]uint64
}

func cloneAccount(acc Account) Account {
	acc.Data = slices.Clone(acc.Data)
	return acc
}

func (t *memTx) Load(a addr.Address) (Account, bool, error) {
	if staged, ok := t.accounts[a]; ok {
		if staged == nil {
			return Account{}, false, nil
		}
		return cloneAccount(*staged), true, nil
	}
	acc, ok := t.m.accounts[a]
	if !ok {
		return Account{}, false, nil
	}
	return cloneAccount(acc), true, nil
}

func (t *memTx) Save(acc Account) error {
	if t.readOnly {
		return ErrReadOnly
	}
	c := cloneAccount(acc)
	t.accounts[acc.Address] = &c
	return nil
}

func (t *memTx) Delete(a addr.Address) error {
	if t.readOnly {
		return ErrReadOnly
	}
	t.accounts[a] = nil
	return nil
}

func (t *memTx) ByOwner(kind Kind, owner addr.Address) ([]Account, error) {
	var out []Account
	for a, acc := range t.m.accounts {
		if _, staged := t.accounts[a]; staged {
			continue
		}
		if acc.Kind == kind && acc.Owner == owner {
			out = append(out, cloneAccount(acc))
		}
	}
	for _, acc := range t.accounts {
		if acc != nil && acc.Kind == kind && acc.Owner == owner {
			out = append(out, cloneAccount(*acc))
		}
	}
	slices.SortFunc(out, func(x, y Account) int { return bytes.Compare(x.Address[:], y.Address[:]) })
	return out, nil
}

func (t *memTx) Lamports(id addr.Address) (uint64, error) {
	if v, ok := t.wallets[id]; ok {
		return v, nil
	}
	return t.m.wallets[id], nil
}

func (t *memTx) SetLamports(id addr.Address, v uint64) error {
	if t.readOnly {
		return ErrReadOnly
	}
	t.wallets[id] = v
	return nil
}
