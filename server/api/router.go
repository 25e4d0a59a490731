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

package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	v1 "github.com/zintix-labs/gachalab/server/api/v1"
	"github.com/zintix-labs/gachalab/server/netsvr"
	"github.com/zintix-labs/gachalab/server/netsvr/middleware"
	"github.com/zintix-labs/gachalab/server/svrcfg"
)

// RegisterRoutes 註冊 middleware 與所有路由；sCfg 需先經過 Valid。
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) error {
	registerMiddleware(svr, sCfg.Log)
	registerIndex(svr, sCfg)
	return registerV1API(svr, sCfg)
}

func registerMiddleware(svr netsvr.NetRouter, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Recover(log))
	svr.Use(middleware.Compression)
}

// 健康檢查與基本資訊
func registerIndex(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) {
	g := sCfg.Gachalab
	svr.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":      "ok",
			"setting":     g.Setting().Name,
			"program_id":  g.Deriver().ProgramID().String(),
			"config":      g.ConfigAddr().String(),
			"subscribers": g.Feed().Subscribers(),
		})
	})
}

func registerV1API(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) error {
	l, err := v1.NewLedgerHandler(sCfg)
	if err != nil {
		return err
	}
	s, err := v1.NewSimHandler(sCfg)
	if err != nil {
		return err
	}
	st, err := v1.NewStreamHandler(sCfg)
	if err != nil {
		return err
	}
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Post("/initialize", l.Initialize)
		vOne.Post("/accounts", l.CreateAccount)
		vOne.Post("/topup", l.TopUp)
		vOne.Post("/airdrop", l.Airdrop)
		vOne.Post("/mint", l.Mint)
		vOne.Post("/pull", l.Pull)
		vOne.Post("/items/{address}/rename", l.Rename)
		vOne.Post("/items/{address}/release", l.Release)
		vOne.Post("/withdraw", l.Withdraw)

		vOne.Get("/authority", l.GetAuthority)
		vOne.Get("/users/{identity}", l.GetUser)
		vOne.Get("/users/{identity}/registry", l.GetRegistry)
		vOne.Get("/users/{identity}/items", l.GetUserItems)
		vOne.Get("/items/{address}", l.GetItem)
		vOne.Get("/wallets/{identity}", l.GetWallet)
		vOne.Get("/accounts/{address}", l.GetAccount)

		vOne.Get("/sim", s.Sim)
		vOne.Post("/sim", s.Sim)

		vOne.Get("/stream", st.Stream)
	})
	return nil
}
