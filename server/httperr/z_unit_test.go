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

package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zintix-labs/gachalab/errs"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errs.Reject(errs.AlreadyExists, "initialize", "dup"), http.StatusConflict},
		{errs.Wrap(errs.Reject(errs.NotFound, "rename", "no item"), "rename rejected"), http.StatusNotFound},
		{errs.Reject(errs.Unauthorized, "withdraw", "x"), http.StatusForbidden},
		{errs.Reject(errs.NameTooLong, "rename", "x"), http.StatusBadRequest},
		{errs.Reject(errs.InsufficientCoins, "mint", "x"), http.StatusPaymentRequired},
		{errs.Reject(errs.InsufficientFunds, "top-up", "x"), http.StatusPaymentRequired},
		{errs.NewWarn("bad"), http.StatusBadRequest},
		{errs.NewFatal("boom"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrap: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{context.Canceled, http.StatusRequestTimeout},
	}
	for i, c := range cases {
		if got := StatusCode(c.err); got != c.want {
			t.Fatalf("case %d: got %d want %d (%v)", i, got, c.want, c.err)
		}
	}
}

func TestErrsWritesJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	Errs(rec, errs.Reject(errs.Unauthorized, "release", "not the owner"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["kind"] != "unauthorized" || body["op"] != "release" {
		t.Fatalf("body: %v", body)
	}
}
