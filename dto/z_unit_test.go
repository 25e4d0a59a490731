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
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zintix-labs/gachalab/addr"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/gacha"
	"github.com/zintix-labs/gachalab/ledger"
)

func TestDecodeSimRequestGET(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/sim?count=10&batches=500&workers=4&seed=42", nil)
	req, err := DecodeSimRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Count != 10 || req.Batches != 500 || req.Workers != 4 || req.Seed == nil || *req.Seed != 42 {
		t.Fatalf("unexpected request: %+v", req)
	}

	r = httptest.NewRequest(http.MethodGet, "/v1/sim", nil)
	req, err = DecodeSimRequest(r)
	if err != nil || req.Count != 10 || req.Batches != 1000 || req.Workers != 1 || req.Seed != nil {
		t.Fatalf("defaults: %+v %v", req, err)
	}

	r = httptest.NewRequest(http.MethodGet, "/v1/sim?count=x", nil)
	if _, err := DecodeSimRequest(r); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected invalid count, got %v", err)
	}
}

func TestDecodeSimRequestPOST(t *testing.T) {
	data, _ := json.Marshal(map[string]any{"count": 1, "batches": 3})
	r := httptest.NewRequest(http.MethodPost, "/v1/sim", bytes.NewReader(data))
	req, err := DecodeSimRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Count != 1 || req.Batches != 3 || req.Workers != 1 {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDecodePullRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/v1/pull", strings.NewReader(`{"identity":"abc","count":10}`))
	req, err := DecodeJSON[PullRequest](r)
	if err != nil || req.Identity != "abc" || req.Count != 10 {
		t.Fatalf("pull request: %+v %v", req, err)
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/v1/topup", strings.NewReader(`{"identity":"a","coins":1,"bonus":9}`))
	if _, err := DecodeJSON[TopUpRequest](r); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
	r = httptest.NewRequest(http.MethodGet, "/v1/topup", nil)
	if _, err := DecodeJSON[TopUpRequest](r); err == nil {
		t.Fatalf("expected method error")
	}
}

func TestDecodeMintOutcome(t *testing.T) {
	body := `{"identity":"a","outcome":{"species_id":25,"name":"Pikachu","tier":"SR","is_shiny":true,"gender":"female","worth":12}}`
	r := httptest.NewRequest(http.MethodPost, "/v1/mint", strings.NewReader(body))
	req, err := DecodeJSON[MintRequest](r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o := req.Outcome
	if o.SpeciesID != 25 || o.Tier != gacha.SR || !o.IsShiny || o.Gender != gacha.Female || o.Worth != 12 {
		t.Fatalf("unexpected outcome: %+v", o)
	}

	bad := strings.Replace(body, `"SR"`, `"LR"`, 1)
	r = httptest.NewRequest(http.MethodPost, "/v1/mint", strings.NewReader(bad))
	if _, err := DecodeJSON[MintRequest](r); err == nil {
		t.Fatalf("expected unknown tier error")
	}
}

func TestParseIdentity(t *testing.T) {
	id := addr.NewIdentity()
	got, err := ParseIdentity("identity", " "+id.String()+" ")
	if err != nil || !got.Equals(id) {
		t.Fatalf("parse: %v %v", got, err)
	}
	if _, err := ParseIdentity("identity", ""); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("empty identity: %v", err)
	}
	if _, err := ParseIdentity("identity", "0OIl"); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("bad base58: %v", err)
	}
}

func TestRegistryView(t *testing.T) {
	r := &ledger.SpeciesRegistry{Owner: addr.NewIdentity()}
	v := NewRegistryView(r)
	if v.IDs == nil || v.Count != 0 || len(v.Bitfield) != 64 {
		t.Fatalf("empty registry view: %+v", v)
	}
	_, _ = r.Add(0)
	_, _ = r.Add(9)
	v = NewRegistryView(r)
	if v.Count != 2 || !strings.HasPrefix(v.Bitfield, "0102") {
		t.Fatalf("registry view: %+v", v)
	}
}

func TestErrorView(t *testing.T) {
	inner := errs.Reject(errs.NameTooLong, "rename", "name is 21 bytes")
	outer := errs.Wrap(inner, "rename rejected")
	v := NewErrorView(outer)
	if v.Kind != "name_too_long" || v.Op != "rename" || v.Message != "name is 21 bytes" {
		t.Fatalf("error view: %+v", v)
	}

	v = NewErrorView(errs.Wrap(errors.New("disk full"), "sqlite"))
	if v.Kind != "internal" || v.Message != "internal error" {
		t.Fatalf("fatal should be masked: %+v", v)
	}
	if NewErrorView(nil) != nil {
		t.Fatalf("nil error should give nil view")
	}
}
