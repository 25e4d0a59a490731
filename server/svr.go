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

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/server/api"
	"github.com/zintix-labs/gachalab/server/app"
	"github.com/zintix-labs/gachalab/server/netsvr"
	"github.com/zintix-labs/gachalab/server/svrcfg"
)

// Handler 組好 middleware 與路由的 http.Handler，不啟動監聽；測試與嵌入用。
func Handler(sCfg *svrcfg.SvrCfg) (http.Handler, error) {
	if err := sCfg.Valid(); err != nil {
		return nil, err
	}
	svr := netsvr.NewChiServer(sCfg.Addr, netsvr.DefaultTimeouts)
	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		return nil, err
	}
	return svr.Handler(), nil
}

// Run 是 server 的組裝器與啟動入口：驗證 SvrCfg、建立 chi server、註冊路由後阻塞運行。
// closers 會在 server 關閉後依反序執行（例如帳本、事件日誌、非同步 logger）。
func Run(ctx context.Context, sCfg *svrcfg.SvrCfg, closers ...app.Closer) error {
	if err := sCfg.Valid(); err != nil {
		// 組裝失敗時 logger 可能不可用
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return RunWithSvr(ctx, sCfg, netsvr.NewChiServer(sCfg.Addr, netsvr.DefaultTimeouts), closers...)
}

// RunWithSvr 與 Run 相同，但使用呼叫端注入的 NetSvr。
func RunWithSvr(ctx context.Context, sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr, closers ...app.Closer) error {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if svr == nil {
		return errs.NewFatal("svr is required")
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		return errs.NewFatal("default server is not ready")
	}
	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		return err
	}

	a := app.NewWith(sCfg.Log, svr)
	for _, c := range closers {
		a.OnStop(c)
	}
	sCfg.Log.Info("[gachalab] listening on http://localhost" + svr.Address())
	err := a.RunContext(ctx)
	if err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
	}
	return err
}
