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

package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/zintix-labs/gachalab"
	"github.com/zintix-labs/gachalab/addr"
	"github.com/zintix-labs/gachalab/dto"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/ledger"
	"github.com/zintix-labs/gachalab/server/httperr"
	"github.com/zintix-labs/gachalab/server/netsvr"
	"github.com/zintix-labs/gachalab/server/svrcfg"
)

// LedgerHandler 帳本寫入操作
type LedgerHandler struct {
	g       *gachalab.Gachalab
	timeout time.Duration
}

func NewLedgerHandler(sCfg *svrcfg.SvrCfg) (*LedgerHandler, error) {
	if sCfg == nil || sCfg.Gachalab == nil {
		return nil, errs.NewFatal("gachalab is required")
	}
	return &LedgerHandler{g: sCfg.Gachalab, timeout: sCfg.OpTimeout}, nil
}

func (h *LedgerHandler) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *LedgerHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeJSON[dto.IdentityRequest](r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	admin, err := dto.ParseIdentity("identity", req.Identity)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	auth, err := h.g.Initialize(ctx, admin)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewAuthorityView(h.g.ConfigAddr(), auth))
}

func (h *LedgerHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeJSON[dto.CreateAccountRequest](r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	id, err := dto.ParseIdentity("identity", req.Identity)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	user, err := h.g.CreateAccount(ctx, id, req.Username)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewUserView(user))
}

func (h *LedgerHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeJSON[dto.TopUpRequest](r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	id, err := dto.ParseIdentity("identity", req.Identity)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	user, err := h.g.TopUp(ctx, id, req.Coins)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewUserView(user))
}

// Airdrop 本地帳本的錢包注資
func (h *LedgerHandler) Airdrop(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeJSON[dto.AirdropRequest](r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	id, err := dto.ParseIdentity("identity", req.Identity)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	bal, err := h.g.Airdrop(ctx, id, req.Lamports)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewWalletView(id, bal))
}

func (h *LedgerHandler) Mint(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeJSON[dto.MintRequest](r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	id, err := dto.ParseIdentity("identity", req.Identity)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	m, err := h.g.Mint(ctx, id, req.Outcome)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.MintView{
		Item:    dto.NewItemView(m.Address, m.Item, m.Tier),
		Balance: m.Balance,
	})
}

// Pull 多抽。中途失敗時以錯誤對應的狀態碼回傳已提交的部分與錯誤。
func (h *LedgerHandler) Pull(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeJSON[dto.PullRequest](r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	id, err := dto.ParseIdentity("identity", req.Identity)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	res, err := h.g.Pull(ctx, id, req.Count)
	if res == nil || (err != nil && len(res.Items) == 0) {
		httperr.Errs(w, err)
		return
	}
	view := dto.PullView{Items: make([]dto.ItemView, 0, len(res.Items)), Balance: res.Balance}
	for _, m := range res.Items {
		view.Items = append(view.Items, dto.NewItemView(m.Address, m.Item, m.Tier))
	}
	status := http.StatusCreated
	if err != nil {
		view.Error = dto.NewErrorView(err)
		status = httperr.StatusCode(err)
	}
	writeJSON(w, status, view)
}

func (h *LedgerHandler) Rename(w http.ResponseWriter, r *http.Request) {
	itemAddr, err := dto.ParseIdentity("address", netsvr.URLParam(r, "address"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	req, err := dto.DecodeJSON[dto.RenameRequest](r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	id, err := dto.ParseIdentity("identity", req.Identity)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	item, err := h.g.Rename(ctx, id, itemAddr, req.Name)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemView(h.g, itemAddr, *item))
}

func (h *LedgerHandler) Release(w http.ResponseWriter, r *http.Request) {
	itemAddr, err := dto.ParseIdentity("address", netsvr.URLParam(r, "address"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	req, err := dto.DecodeJSON[dto.ReleaseRequest](r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	id, err := dto.ParseIdentity("identity", req.Identity)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	user, err := h.g.Release(ctx, id, itemAddr)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewUserView(user))
}

func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeJSON[dto.WithdrawRequest](r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	admin, err := dto.ParseIdentity("identity", req.Identity)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	auth, err := h.g.Withdraw(ctx, admin, req.Amount)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewAuthorityView(h.g.ConfigAddr(), auth))
}

// itemView 稀有度由設定中的物種表查得
func itemView(g *gachalab.Gachalab, a addr.Address, it ledger.ItemInstance) dto.ItemView {
	sp, _ := g.Engine().Species(it.SpeciesID)
	return dto.NewItemView(a, it, sp.Tier)
}

// writeJSON 先寫入記憶體再送出，避免 encode 失敗時回應已寫到一半。
func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}
