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

// Package journal 記錄已提交的帳本操作：每筆一行 JSON，以 zstd 壓縮、每小時輪替。
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/gacha"
)

// Event 一筆已提交的操作。
type Event struct {
	ID       string         `json:"id"`
	Seq      uint64         `json:"seq"`
	At       time.Time      `json:"at"`
	Op       string         `json:"op"`
	Identity string         `json:"identity"`
	Address  string         `json:"address,omitempty"`
	Amount   uint64         `json:"amount,omitempty"`
	Balance  uint64         `json:"balance"`
	Name     string         `json:"name,omitempty"`
	Outcome  *gacha.Outcome `json:"outcome,omitempty"`
}

// NewID 產生事件 id
func NewID() string {
	return uuid.NewString()
}

// Sink 事件的去處
type Sink interface {
	Append(ev Event) error
	Close() error
}

// Discard 不保存任何事件
type Discard struct{}

func (Discard) Append(Event) error { return nil }
func (Discard) Close() error       { return nil }

// Writer 以小時為單位輪替的 JSONL + zstd 檔案。
type Writer struct {
	baseDir string
	prefix  string
	now     func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewWriter(baseDir, prefix string) *Writer {
	if prefix == "" {
		prefix = "ledger"
	}
	return &Writer{baseDir: baseDir, prefix: prefix, now: time.Now}
}

func (w *Writer) Append(ev Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return errs.Wrap(err, "journal: marshal event")
	}
	if _, err := w.w.Write(b); err != nil {
		return errs.Wrap(err, "journal: write")
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return errs.Wrap(err, "journal: write")
	}
	return w.w.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

// Path 回傳某小時的檔案路徑
func (w *Writer) Path(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return errs.Wrap(err, "journal: mkdir")
	}
	f, err := os.OpenFile(w.Path(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errs.Wrap(err, "journal: open")
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return errs.Wrap(err, "journal: zstd writer")
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

func (w *Writer) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err1
}

// Read 解出一個已關閉的 journal 檔案中的所有事件。
func Read(r io.Reader) ([]Event, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, errs.Wrap(err, "journal: zstd reader")
	}
	defer dec.Close()
	var out []Event
	jd := json.NewDecoder(dec)
	for {
		var ev Event
		if err := jd.Decode(&ev); err == io.EOF {
			break
		} else if err != nil {
			return out, errs.Wrap(err, "journal: decode event")
		}
		out = append(out, ev)
	}
	return out, nil
}

// ReadFile 同 Read，從檔案讀取。
func ReadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(err, "journal: open")
	}
	defer f.Close()
	return Read(f)
}
