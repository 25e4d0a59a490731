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

// sim 以抽卡設定做離線審計：大量抽取後輸出各稀有度的觀測比例、信賴區間與保底違規數。
//
//	go run ./cmd/sim -count 10 -batches 1000000 -worker 8
//	go run ./cmd/sim -config ./my.yaml -format yaml -o report.yaml
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/zintix-labs/gachalab"
	"github.com/zintix-labs/gachalab/sdk/perf"
	"github.com/zintix-labs/gachalab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type config struct {
	setting   string
	count     int
	batches   int
	worker    int
	seed      int64
	format    string
	out       string
	pprofmode string
}

func main() {
	cfg := bindVar()
	if err := perf.Run(perf.DefaultDir, cfg.pprofmode, cfg.execute); err != nil {
		log.Fatal(err)
	}
}

func bindVar() *config {
	cfg := new(config)
	flag.StringVar(&cfg.setting, "config", os.Getenv("GACHALAB_CONFIG"), "gacha setting file (yaml/json); empty uses the embedded default")
	flag.IntVar(&cfg.count, "count", 10, "pulls per batch (10 enables the guarantee slot)")
	flag.IntVar(&cfg.batches, "batches", 100000, "batches per worker")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.Int64Var(&cfg.seed, "seed", 0, "int64 seed; 0 picks a random one")
	flag.StringVar(&cfg.format, "format", "table", "report format: table|json|yaml")
	flag.StringVar(&cfg.out, "o", "", "write the report to a file instead of stdout")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")
	flag.Parse()
	return cfg
}

func (cfg *config) execute() error {
	gs, err := gachalab.LoadSetting(cfg.setting)
	if err != nil {
		return err
	}
	render, err := stats.RenderByName(cfg.format)
	if err != nil {
		return err
	}
	sim := gachalab.NewSimulator(gs, cfg.seed)

	green, reset := "\033[1;32m", "\033[0m"
	p := message.NewPrinter(language.English)
	p.Fprintf(os.Stderr, "%s[SETTING:%s] [WORKERS:%d] [COUNT:%d] [DRAWS:%d] [SEED:%d]%s\n",
		green, gs.Name, cfg.worker, cfg.count, cfg.worker*cfg.batches*cfg.count, sim.Seed(), reset)

	rep, used, err := sim.Sim(cfg.count, cfg.batches, cfg.worker, true)
	if err != nil {
		return err
	}

	w := os.Stdout
	if cfg.out != "" {
		f, err := os.Create(cfg.out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if cfg.format == "table" {
		rep.StdOut(w, used)
	} else if err := rep.WriteWith(w, render); err != nil {
		return err
	}
	if rep.Guarantee.Violations != 0 {
		return fmt.Errorf("guarantee violated %d times", rep.Guarantee.Violations)
	}
	return nil
}
