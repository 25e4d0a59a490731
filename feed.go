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

package gachalab

import (
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/gachalab/journal"
)

// Feed 把已提交的事件扇出給訂閱者。
// Publish 永不阻塞：訂閱者緩衝滿時丟棄該筆並累計 Dropped。
type Feed struct {
	mu     sync.RWMutex
	subs   map[uint64]chan journal.Event
	nextID uint64
	buf    int
	closed bool

	dropped atomic.Uint64
}

func NewFeed(buf int) *Feed {
	if buf <= 0 {
		buf = 64
	}
	return &Feed{subs: map[uint64]chan journal.Event{}, buf: buf}
}

// Subscribe 回傳事件 channel 與取消函式；Feed 關閉後 channel 會被關閉。
func (f *Feed) Subscribe() (<-chan journal.Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan journal.Event, f.buf)
	if f.closed {
		close(ch)
		return ch, func() {}
	}
	id := f.nextID
	f.nextID++
	f.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if c, ok := f.subs[id]; ok {
				delete(f.subs, id)
				close(c)
			}
		})
	}
}

func (f *Feed) Publish(ev journal.Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, ch := range f.subs {
		select {
		case ch <- ev:
		default:
			f.dropped.Add(1)
		}
	}
}

func (f *Feed) Dropped() uint64 { return f.dropped.Load() }

func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for id, ch := range f.subs {
		close(ch)
		delete(f.subs, id)
	}
}
