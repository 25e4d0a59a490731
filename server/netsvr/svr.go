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

package netsvr

import (
	"net/http"

	"github.com/zintix-labs/gachalab/server/app"
)

// NetSvr 可被 app.App 管理的 HTTP server。
// 換框架時只需提供新的實作，路由註冊端只看得到 NetRouter。
type NetSvr interface {
	NetRouter
	app.Component
	Address() string
	// Handler 根 handler，測試時可直接交給 httptest
	Handler() http.Handler
}

// NetRouter 純路由行為，沒有 Run/Shutdown。
type NetRouter interface {
	Use(middleware func(http.Handler) http.Handler)

	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)

	Group(path string, fn func(NetRouter))
}
