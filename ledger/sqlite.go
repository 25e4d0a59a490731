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
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/zintix-labs/gachalab/addr"
	"github.com/zintix-labs/gachalab/errs"
	_ "modernc.org/sqlite"
)

// SQLiteStore 以單一連線的 SQLite 保存帳本；每個 Update 為一個 SQL 交易。
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite 開啟（或建立）資料庫檔案。path 為 ":memory:" 時使用記憶體資料庫。
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errs.NewFatal("ledger: empty sqlite path")
	}
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errs.Wrap(err, "ledger: create db dir")
		}
		dsn = fmt.Sprintf("file:%s", filepath.Clean(path))
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errs.Wrap(err, "ledger: open sqlite")
	}
	// 單一連線：寫入天然序列化，:memory: 也不會因多連線而分裂
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := initPragmas(db, path != ":memory:"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initPragmas(db *sql.DB, onDisk bool) error {
	pragmas := []string{
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	if onDisk {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL;", "PRAGMA synchronous=NORMAL;")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return errs.Wrap(err, "ledger: pragma")
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			address BLOB PRIMARY KEY,
			kind    INTEGER NOT NULL,
			owner   BLOB NOT NULL,
			data    BLOB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_owner ON accounts (owner, kind, address);`,
		`CREATE TABLE IF NOT EXISTS wallets (
			identity BLOB PRIMARY KEY,
			lamports INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return errs.Wrap(err, "ledger: init schema")
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) View(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(err, "ledger: begin view")
	}
	defer func() { _ = tx.Rollback() }()
	return fn(&sqlTx{ctx: ctx, tx: tx, readOnly: true})
}

func (s *SQLiteStore) Update(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(err, "ledger: begin update")
	}
	// Commit 之後 Rollback 為 no-op；fn panic 時交易仍會被釋放
	defer func() { _ = tx.Rollback() }()
	if err := fn(&sqlTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(err, "ledger: commit")
	}
	return nil
}

type sqlTx struct {
	ctx      context.Context
	tx       *sql.Tx
	readOnly bool
}

func (t *sqlTx) Load(a addr.Address) (Account, bool, error) {
	acc := Account{Address: a}
	var owner []byte
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT kind, owner, data FROM accounts WHERE address = ?`, a[:]).
		Scan(&acc.Kind, &owner, &acc.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, false, nil
	}
	if err != nil {
		return Account{}, false, errs.Wrap(err, "ledger: load account")
	}
	copy(acc.Owner[:], owner)
	return acc, true, nil
}

func (t *sqlTx) Save(acc Account) error {
	if t.readOnly {
		return ErrReadOnly
	}
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO accounts (address, kind, owner, data) VALUES (?,?,?,?)
		ON CONFLICT(address) DO UPDATE SET kind = excluded.kind, owner = excluded.owner, data = excluded.data`,
		acc.Address[:], int(acc.Kind), acc.Owner[:], acc.Data)
	if err != nil {
		return errs.Wrap(err, "ledger: save account")
	}
	return nil
}

func (t *sqlTx) Delete(a addr.Address) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if _, err := t.tx.ExecContext(t.ctx, `DELETE FROM accounts WHERE address = ?`, a[:]); err != nil {
		return errs.Wrap(err, "ledger: delete account")
	}
	return nil
}

func (t *sqlTx) ByOwner(kind Kind, owner addr.Address) ([]Account, error) {
	rows, err := t.tx.QueryContext(t.ctx,
		`SELECT address, data FROM accounts WHERE owner = ? AND kind = ? ORDER BY address`,
		owner[:], int(kind))
	if err != nil {
		return nil, errs.Wrap(err, "ledger: query by owner")
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		acc := Account{Kind: kind, Owner: owner}
		var a []byte
		if err := rows.Scan(&a, &acc.Data); err != nil {
			return nil, errs.Wrap(err, "ledger: scan account")
		}
		copy(acc.Address[:], a)
		out = append(out, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, "ledger: iterate accounts")
	}
	return out, nil
}

func (t *sqlTx) Lamports(id addr.Address) (uint64, error) {
	var v int64
	err := t.tx.QueryRowContext(t.ctx, `SELECT lamports FROM wallets WHERE identity = ?`, id[:]).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errs.Wrap(err, "ledger: load wallet")
	}
	return uint64(v), nil
}

func (t *sqlTx) SetLamports(id addr.Address, v uint64) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if v > math.MaxInt64 {
		return errs.Reject(errs.Invalid, "wallet", "lamports %d exceeds storage range", v)
	}
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO wallets (identity, lamports) VALUES (?,?)
		ON CONFLICT(identity) DO UPDATE SET lamports = excluded.lamports`,
		id[:], int64(v))
	if err != nil {
		return errs.Wrap(err, "ledger: save wallet")
	}
	return nil
}
