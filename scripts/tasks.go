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
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

func cleanTestCache() {
	if err := exec.Command("go", "clean", "-testcache").Run(); err != nil {
		printYellow("go clean -testcache: " + err.Error())
	}
}

// streamGo 執行 go 子指令，stdout/stderr 合併後逐行交給 filter。
func streamGo(filter func(line string), args ...string) error {
	cmd := exec.Command("go", args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return err
	}
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		filter(sc.Text())
	}
	if err := sc.Err(); err != nil {
		printRed("scanner error: " + err.Error())
	}
	return cmd.Wait()
}

func colorResult(line string) bool {
	switch {
	case strings.HasPrefix(line, "ok"):
		printGreen(line)
	case strings.HasPrefix(line, "FAIL"), strings.Contains(line, "build failed"), strings.Contains(line, "setup failed"):
		printRed(line)
	default:
		return false
	}
	return true
}

func runTest(args []string) error {
	printGreen("running tests")
	cleanTestCache()
	return streamGo(func(line string) { colorResult(line) },
		append([]string{"test", "./...", "-cover", "-count=1"}, args...)...)
}

func runTestDetail(args []string) error {
	printGreen("running tests (detail)")
	cleanTestCache()
	return streamGo(func(line string) {
		if strings.Contains(line, "[no test files]") {
			return
		}
		if !colorResult(line) {
			fmt.Println(line)
		}
	}, append([]string{"test", "./...", "-v", "-count=1"}, args...)...)
}

// runAudit 其餘參數原樣轉給 cmd/sim，例如 -batches 1000000 -worker 8。
func runAudit(args []string) error {
	printGreen("running ten-pull audit")
	cmd := exec.Command("go", append([]string{"run", "./cmd/sim", "-count", "10"}, args...)...)
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	return cmd.Run()
}

func runSvr(args []string) error {
	printGreen("starting dev server (mem ledger)")
	cmd := exec.Command("go", append([]string{"run", "./cmd/svr", "-db", "mem", "-log-mode", "dev"}, args...)...)
	cmd.Stdout, cmd.Stderr, cmd.Stdin = os.Stdout, os.Stderr, os.Stdin
	return cmd.Run()
}
