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

package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// Kind : 帳本操作的拒絕類別。呼叫端依 Kind 判斷，而不是比對字串。
type Kind uint8

const (
	KindNone Kind = iota
	AlreadyExists
	NotFound
	Unauthorized
	NameTooLong
	InsufficientFunds
	InsufficientCoins
	Invalid
)

var kindMap = map[Kind]string{
	KindNone:          "",
	AlreadyExists:     "already_exists",
	NotFound:          "not_found",
	Unauthorized:      "unauthorized",
	NameTooLong:       "name_too_long",
	InsufficientFunds: "insufficient_funds",
	InsufficientCoins: "insufficient_coins",
	Invalid:           "invalid",
}

func (k Kind) String() string {
	if str, ok := kindMap[k]; ok {
		return str
	}
	return "unknown"
}

// 哨兵錯誤：只用於 errors.Is 比對 Kind。
var (
	ErrAlreadyExists     = &E{Kind: AlreadyExists, ErrLv: Warn, Message: "already exists"}
	ErrNotFound          = &E{Kind: NotFound, ErrLv: Warn, Message: "not found"}
	ErrUnauthorized      = &E{Kind: Unauthorized, ErrLv: Warn, Message: "unauthorized"}
	ErrNameTooLong       = &E{Kind: NameTooLong, ErrLv: Warn, Message: "name too long"}
	ErrInsufficientFunds = &E{Kind: InsufficientFunds, ErrLv: Warn, Message: "insufficient funds"}
	ErrInsufficientCoins = &E{Kind: InsufficientCoins, ErrLv: Warn, Message: "insufficient coins"}
	ErrInvalid           = &E{Kind: Invalid, ErrLv: Warn, Message: "invalid"}
)

// E 是統一的錯誤型別。
// Message 為主訊息；Extra 為呼叫端可追加的額外上下文；
// Cause 可串接下層錯誤（wrap）；Kind 為帳本拒絕類別；Op 為發生錯誤的操作名稱。
type E struct {
	Message string
	Extra   string
	Op      string
	Cause   error
	ErrLv   ErrLevel
	Kind    Kind
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s", ErrLv(e.ErrLv))
	if e.Kind != KindNone {
		base += " kind=" + e.Kind.String()
	}
	if e.Op != "" {
		base += " op=" + e.Op
	}
	base += " " + e.Message
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// Is 以 Kind 比對；target 為無 Kind 的 *E 時不相等。
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok || t.Kind == KindNone {
		return false
	}
	return e.Kind == t.Kind
}

// New 依錯誤等級與訊息建立錯誤
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

func Logf(format string, a ...any) *E {
	return NewLog(fmt.Sprintf(format, a...))
}

// Reject 建立帳本拒絕錯誤，一律為 Warn 等級。
func Reject(kind Kind, op string, format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), Op: op, Kind: kind, ErrLv: Warn}
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 使用給定的訊息包裝底層錯誤，建立一個 *E。
//
// ErrLevel 規則：
//   - 若 cause 已經是 *E，則沿用其 ErrLv 與 Kind。
//   - 若 cause 不是本包定義的 *E（多半是標準庫或三方依賴錯誤），則 ErrLv 一律視為 Fatal。
func Wrap(cause error, msg string) *E {
	var e *E
	r := New(Fatal, msg)
	if errors.As(cause, &e) {
		r.ErrLv = e.ErrLv
		r.Kind = e.Kind
		r.Op = e.Op
	}
	r.Cause = cause
	return r
}

// WrapWithExtra 同 Wrap，另附加上下文。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf 回傳錯誤鏈上第一個非空 Kind。
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*E); ok && e.Kind != KindNone {
			return e.Kind
		}
		err = errors.Unwrap(err)
	}
	return KindNone
}
