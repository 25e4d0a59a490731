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

// svr 啟動帳本 HTTP 服務。旗標預設值來自環境變數（可由 .env 載入）。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/zintix-labs/gachalab"
	"github.com/zintix-labs/gachalab/journal"
	"github.com/zintix-labs/gachalab/ledger"
	"github.com/zintix-labs/gachalab/server"
	"github.com/zintix-labs/gachalab/server/logger"
	"github.com/zintix-labs/gachalab/server/svrcfg"
)

type config struct {
	Addr       string
	DB         string
	LogMode    string
	Setting    string
	JournalDir string
	Seed       int64
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mode, err := logger.ParseMode(cfg.LogMode)
	if err != nil {
		return err
	}
	log, ah := logger.NewAsync(4096, mode)

	store, err := openStore(cfg.DB)
	if err != nil {
		ah.Close()
		return err
	}
	var sink journal.Sink = journal.Discard{}
	if cfg.JournalDir != "" {
		sink = journal.NewWriter(cfg.JournalDir, "ledger")
	}
	gs, err := gachalab.LoadSetting(cfg.Setting)
	if err != nil {
		_ = store.Close()
		ah.Close()
		return err
	}
	g, err := gachalab.New(gs, store, gachalab.Options{Seed: cfg.Seed, Logger: log, Journal: sink})
	if err != nil {
		_ = store.Close()
		ah.Close()
		return err
	}
	log.Info("gachalab ready", "setting", gs.Name, "db", cfg.DB, "seed", g.Seed(), "config_addr", g.ConfigAddr().String())

	sCfg := &svrcfg.SvrCfg{Log: log, Gachalab: g, Addr: cfg.Addr}
	// 關閉順序與註冊相反：先關 Gachalab（feed、journal），再關帳本，最後 drain logger
	return server.Run(context.Background(), sCfg,
		func() error { ah.Close(); return nil },
		store.Close,
		g.Close,
	)
}

// loadConfig .env 不存在時忽略；環境變數作為旗標預設值。
func loadConfig() (*config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	seed, err := envInt64("GACHALAB_SEED", 0)
	if err != nil {
		return nil, err
	}
	cfg := new(config)
	flag.StringVar(&cfg.Addr, "addr", envOr("GACHALAB_ADDR", svrcfg.DefaultAddr), "listen address")
	flag.StringVar(&cfg.DB, "db", envOr("GACHALAB_DB", "mem"), "ledger store: mem or a sqlite file path")
	flag.StringVar(&cfg.LogMode, "log-mode", envOr("GACHALAB_LOG_MODE", "dev"), "log mode: dev|prod|silence")
	flag.StringVar(&cfg.Setting, "config", os.Getenv("GACHALAB_CONFIG"), "gacha setting file; empty uses the embedded default")
	flag.StringVar(&cfg.JournalDir, "journal", os.Getenv("GACHALAB_JOURNAL_DIR"), "directory for zstd event journal; empty disables it")
	flag.Int64Var(&cfg.Seed, "seed", seed, "engine seed; 0 picks a random one")
	flag.Parse()
	return cfg, nil
}

func openStore(db string) (ledger.Store, error) {
	if db == "" || db == "mem" {
		return ledger.NewMemStore(), nil
	}
	return ledger.OpenSQLite(db)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt64(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be int64: %w", key, err)
	}
	return n, nil
}
