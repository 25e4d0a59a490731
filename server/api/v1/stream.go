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
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zintix-labs/gachalab"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/journal"
	"github.com/zintix-labs/gachalab/server/svrcfg"
)

const writeWait = 5 * time.Second

// StreamHandler 以 websocket 推送已提交的帳本事件。
// 可用 query 過濾：op=pull,release 與 identity=<base58>。
type StreamHandler struct {
	feed     *gachalab.Feed
	log      *slog.Logger
	ping     time.Duration
	upgrader websocket.Upgrader
}

func NewStreamHandler(sCfg *svrcfg.SvrCfg) (*StreamHandler, error) {
	if sCfg == nil || sCfg.Gachalab == nil {
		return nil, errs.NewFatal("gachalab is required")
	}
	return &StreamHandler{
		feed: sCfg.Gachalab.Feed(),
		log:  sCfg.Log,
		ping: sCfg.PingEvery,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}, nil
}

type eventFilter struct {
	ops      map[string]bool
	identity string
}

func newEventFilter(r *http.Request) eventFilter {
	q := r.URL.Query()
	f := eventFilter{identity: q.Get("identity")}
	if s := q.Get("op"); s != "" {
		f.ops = map[string]bool{}
		for _, op := range strings.Split(s, ",") {
			f.ops[strings.TrimSpace(op)] = true
		}
	}
	return f
}

func (f eventFilter) match(ev journal.Event) bool {
	if f.ops != nil && !f.ops[ev.Op] {
		return false
	}
	return f.identity == "" || f.identity == ev.Identity
}

func (sh *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	filter := newEventFilter(r)
	conn, err := sh.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已回寫錯誤
		return
	}
	defer conn.Close()

	events, cancel := sh.feed.Subscribe()
	defer cancel()

	// 讀端只用來偵測斷線與回應 pong
	done := make(chan struct{})
	_ = conn.SetReadDeadline(time.Now().Add(2 * sh.ping))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * sh.ping))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(sh.ping)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"), time.Now().Add(time.Second))
				return
			}
			if !filter.match(ev) {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				sh.log.Debug("stream write failed", slog.Any("err", err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
