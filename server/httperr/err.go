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
	"log/slog"
	"net/http"

	"github.com/zintix-labs/gachalab/dto"
	"github.com/zintix-labs/gachalab/errs"
)

var kindStatus = map[errs.Kind]int{
	errs.AlreadyExists:     http.StatusConflict,
	errs.NotFound:          http.StatusNotFound,
	errs.Unauthorized:      http.StatusForbidden,
	errs.NameTooLong:       http.StatusBadRequest,
	errs.Invalid:           http.StatusBadRequest,
	errs.InsufficientFunds: http.StatusPaymentRequired,
	errs.InsufficientCoins: http.StatusPaymentRequired,
}

// StatusCode 將錯誤映射成 HTTP status code。
//
// 規則：
//   - ctx timeout/cancel → 504/408
//   - 帳本拒絕（Kind）   → kindStatus
//   - 其餘 errs.Warn     → 400
//   - errs.Fatal / 非 *errs.E → 500
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	if s, ok := kindStatus[errs.KindOf(err)]; ok {
		return s
	}
	if e, ok := errs.AsErr(err); ok && e.ErrLv == errs.Warn {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Errs 以 JSON 錯誤體回應
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(StatusCode(err))
	_ = json.NewEncoder(w).Encode(dto.NewErrorView(err))
}

func Log(log *slog.Logger, msg string, err error) {
	if err == nil {
		return
	}
	status := StatusCode(err)
	if status == http.StatusRequestTimeout || status == http.StatusConflict {
		log.Warn(msg, slog.Any("err", err))
	} else if status >= 500 && status < 600 {
		log.Error(msg, slog.Any("err", err))
	}
}
