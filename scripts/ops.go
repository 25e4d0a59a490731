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

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
)

// task 一個可由 go run ./scripts <task> 執行的工作
type task struct {
	desc string
	run  func(args []string) error
}

var tasks = map[string]task{
	"test":        {"go test ./... -cover，只顯示 ok/FAIL", runTest},
	"test-detail": {"go test ./... -v，略過沒有測試的套件", runTestDetail},
	"audit":       {"以預設設定跑十連抽稽核，保底違規時失敗", runAudit},
	"svr":         {"以記憶體帳本啟動開發用 HTTP 伺服器", runSvr},
}

var (
	printGreen  = color.New(color.FgGreen).PrintlnFunc()
	printRed    = color.New(color.FgRed).PrintlnFunc()
	printYellow = color.New(color.FgYellow).PrintlnFunc()
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	name := os.Args[1]
	t, ok := tasks[name]
	if !ok {
		printYellow(fmt.Sprintf("Unknown task: %s", name))
		usage()
		os.Exit(1)
	}
	if err := t.run(os.Args[2:]); err != nil {
		printRed(fmt.Sprintf("%s failed: %v", name, err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: go run ./scripts [task] [args...]")
	names := make([]string, 0, len(tasks))
	for n := range tasks {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Printf("  %-12s %s\n", n, tasks[n].desc)
	}
}
