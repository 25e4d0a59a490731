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

package dto

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/zintix-labs/gachalab/addr"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/gacha"
)

// 防止 body 過大（預設 1MiB）
const maxBody = 1 << 20

// IdentityRequest 只帶呼叫者身分的請求（initialize）
type IdentityRequest struct {
	Identity string `json:"identity"`
}

type CreateAccountRequest struct {
	Identity string `json:"identity"`
	Username string `json:"username"`
}

type TopUpRequest struct {
	Identity string `json:"identity"`
	Coins    uint64 `json:"coins"`
}

type AirdropRequest struct {
	Identity string `json:"identity"`
	Lamports uint64 `json:"lamports"`
}

type PullRequest struct {
	Identity string `json:"identity"`
	Count    int    `json:"count"`
}

// SimRequest 審計模擬，支援 GET query 與 POST json
type SimRequest struct {
	Count   int    `json:"count"`
	Batches int    `json:"batches"`
	Workers int    `json:"workers"`
	Seed    *int64 `json:"seed,omitempty"`
}

type MintRequest struct {
	Identity string        `json:"identity"`
	Outcome  gacha.Outcome `json:"outcome"`
}

type RenameRequest struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
}

type ReleaseRequest struct {
	Identity string `json:"identity"`
}

type WithdrawRequest struct {
	Identity string `json:"identity"`
	Amount   uint64 `json:"amount"`
}

// DecodeJSON 解析 POST json body；未知欄位與超長 body 都視為 Invalid。
func DecodeJSON[T any](r *http.Request) (*T, error) {
	if r.Method != http.MethodPost {
		return nil, errs.Reject(errs.Invalid, "", "method not allowed")
	}
	req := new(T)
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return nil, errs.Reject(errs.Invalid, "", "invalid json: %v", err)
	}
	return req, nil
}

// DecodeSimRequest GET 走 query（count, batches, workers, seed），POST 走 json。
// 缺省值：count 10、batches 1000、workers 1。
func DecodeSimRequest(r *http.Request) (*SimRequest, error) {
	var req *SimRequest
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req = new(SimRequest)
		for _, f := range []struct {
			key string
			dst *int
		}{{"count", &req.Count}, {"batches", &req.Batches}, {"workers", &req.Workers}} {
			s := q.Get(f.key)
			if s == "" {
				continue
			}
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.Reject(errs.Invalid, "", "invalid %s: %v", f.key, err)
			}
			*f.dst = v
		}
		if s := q.Get("seed"); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, errs.Reject(errs.Invalid, "", "seed must be int64")
			}
			req.Seed = &v
		}
	case http.MethodPost:
		var err error
		if req, err = DecodeJSON[SimRequest](r); err != nil {
			return nil, err
		}
	default:
		return nil, errs.Reject(errs.Invalid, "", "method not allowed")
	}
	if req.Count == 0 {
		req.Count = 10
	}
	if req.Batches == 0 {
		req.Batches = 1000
	}
	if req.Workers == 0 {
		req.Workers = 1
	}
	return req, nil
}

// ParseIdentity 把 base58 字串轉為身分；空字串或格式錯誤為 Invalid。
func ParseIdentity(field, s string) (addr.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return addr.Address{}, errs.Reject(errs.Invalid, "", "%s is required", field)
	}
	a, err := addr.Parse(s)
	if err != nil {
		return addr.Address{}, errs.Reject(errs.Invalid, "", "invalid %s: %v", field, err)
	}
	return a, nil
}

// ParseUint 解析路徑或 query 中的非負整數
func ParseUint(field, s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errs.Reject(errs.Invalid, "", "invalid %s: %v", field, err)
	}
	return v, nil
}
