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
	"net/http"

	"github.com/zintix-labs/gachalab/dto"
	"github.com/zintix-labs/gachalab/gacha"
	"github.com/zintix-labs/gachalab/server/httperr"
	"github.com/zintix-labs/gachalab/server/netsvr"
)

func (h *LedgerHandler) GetAuthority(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()
	auth, err := h.g.Authority(ctx)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewAuthorityView(h.g.ConfigAddr(), auth))
}

func (h *LedgerHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := dto.ParseIdentity("identity", netsvr.URLParam(r, "identity"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	user, err := h.g.User(ctx, id)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewUserView(user))
}

func (h *LedgerHandler) GetRegistry(w http.ResponseWriter, r *http.Request) {
	id, err := dto.ParseIdentity("identity", netsvr.URLParam(r, "identity"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	reg, err := h.g.Registry(ctx, id)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewRegistryView(reg))
}

// GetUserItems 依擁有者列出物品
func (h *LedgerHandler) GetUserItems(w http.ResponseWriter, r *http.Request) {
	id, err := dto.ParseIdentity("identity", netsvr.URLParam(r, "identity"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	items, err := h.g.Items(ctx, id)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	out := make([]dto.ItemView, 0, len(items))
	for _, it := range items {
		out = append(out, itemView(h.g, it.Address, it.ItemInstance))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *LedgerHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	a, err := dto.ParseIdentity("address", netsvr.URLParam(r, "address"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	it, err := h.g.Item(ctx, a)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemView(h.g, a, *it))
}

func (h *LedgerHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	id, err := dto.ParseIdentity("identity", netsvr.URLParam(r, "identity"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	bal, err := h.g.Wallet(ctx, id)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewWalletView(id, bal))
}

// GetAccount 依位址讀取任一種紀錄
func (h *LedgerHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := dto.ParseIdentity("address", netsvr.URLParam(r, "address"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()
	rec, err := h.g.Account(ctx, a)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewAccountView(a, rec, func(id uint8) gacha.Tier {
		sp, _ := h.g.Engine().Species(id)
		return sp.Tier
	}))
}
