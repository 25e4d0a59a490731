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

package spec

import (
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/gachalab/configs"
	"github.com/zintix-labs/gachalab/gacha"
	"github.com/zintix-labs/gachalab/ledger"
)

const miniYAML = `
name: mini
economy:
  starting_balance: 100
  cost_per_pull: 10
  lamports_per_coin: 100000
  default_note: "hello"
rates: {UR: 0.01, SSR: 0.04, SR: 0.20}
guarantee: {ten_pull_size: 10, ur_prob: 0.01}
shiny_prob: 0.1
worth: {R: 2, SR: 6, SSR: 25, UR: 80}
species:
  - {id: 1, name: Bulbasaur, tier: R}
  - {id: 25, name: Pikachu, tier: SR}
  - {id: 6, name: Charizard, tier: SSR}
  - {id: 150, name: Mewtwo, tier: UR}
`

func TestDefaultSettingLoads(t *testing.T) {
	gs, err := Load(configs.FS, configs.DefaultName)
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	if len(gs.Species) != 151 {
		t.Fatalf("expected 151 species, got %d", len(gs.Species))
	}
	if gs.Economy.StartingBalance != 100 || gs.Economy.CostPerPull != 10 || gs.Economy.LamportsPerCoin != 100000 {
		t.Fatalf("unexpected economy: %+v", gs.Economy)
	}
	cfg := gs.EngineConfig()
	if cfg.Rates[gacha.UR] != 0.01 || cfg.Worth[gacha.UR] != 80 {
		t.Fatalf("engine config mismatch: %+v", cfg)
	}
	if _, err := gacha.NewEngine(cfg, 1); err != nil {
		t.Fatalf("engine from default: %v", err)
	}
}

func TestMiniDefaults(t *testing.T) {
	gs, err := GetGachaSettingByYAML([]byte(miniYAML))
	if err != nil {
		t.Fatalf("load mini: %v", err)
	}
	if gs.Economy.NameLimit != 20 || gs.Economy.NoteLimit != 200 || gs.ShinyMult != 2 || gs.MaxCount != 100 {
		t.Fatalf("defaults not applied: %+v", gs)
	}
	if gs.ProgramID == "" {
		t.Fatalf("program id default missing")
	}
}

func TestSchemaRejectsUnknownField(t *testing.T) {
	bad := miniYAML + "bogus: 1\n"
	if _, err := GetGachaSettingByYAML([]byte(bad)); err == nil {
		t.Fatalf("expected unknown field rejection")
	}
}

func TestSchemaRejectsBadTier(t *testing.T) {
	bad := strings.Replace(miniYAML, "tier: UR}", "tier: LR}", 1)
	if _, err := GetGachaSettingByYAML([]byte(bad)); err == nil {
		t.Fatalf("expected bad tier rejection")
	}
}

func TestSemanticRejects(t *testing.T) {
	cases := map[string]string{
		"rates sum":  strings.Replace(miniYAML, "SR: 0.20}", "SR: 0.99}", 1),
		"long name":  strings.Replace(miniYAML, "name: Pikachu", "name: PikachuPikachuPikachuX", 1),
		"empty pool": strings.Replace(miniYAML, "  - {id: 150, name: Mewtwo, tier: UR}\n", "", 1),
		"program id": strings.Replace(miniYAML, "name: mini\n", "name: mini\nprogram_id: nope0\n", 1),
	}
	for name, doc := range cases {
		if _, err := GetGachaSettingByYAML([]byte(doc)); err == nil {
			t.Fatalf("%s: expected rejection", name)
		}
	}
}

// manySpecies 產生 n 個 R 物種，外加各一個 SR/SSR/UR 讓物種池完整。
func manySpecies(n int) string {
	var b strings.Builder
	b.WriteString(strings.SplitAfter(miniYAML, "species:\n")[0])
	b.WriteString("  - {id: 252, name: Treecko, tier: SR}\n")
	b.WriteString("  - {id: 253, name: Grovyle, tier: SSR}\n")
	b.WriteString("  - {id: 254, name: Sceptile, tier: UR}\n")
	for i := 1; i <= n-3; i++ {
		fmt.Fprintf(&b, "  - {id: %d, name: mon%d, tier: R}\n", i, i)
	}
	return b.String()
}

func TestSpeciesCountCapped(t *testing.T) {
	if _, err := GetGachaSettingByYAML([]byte(manySpecies(ledger.RegistryCap))); err != nil {
		t.Fatalf("%d species should load: %v", ledger.RegistryCap, err)
	}
	if _, err := GetGachaSettingByYAML([]byte(manySpecies(ledger.RegistryCap + 1))); err == nil {
		t.Fatalf("expected rejection above registry cap")
	}

	// 語意檢查本身也擋，不只靠 schema
	gs, err := GetGachaSettingByYAML([]byte(miniYAML))
	if err != nil {
		t.Fatalf("mini: %v", err)
	}
	used := map[uint8]bool{}
	for _, sp := range gs.Species {
		used[sp.ID] = true
	}
	for id := 1; len(gs.Species) <= ledger.RegistryCap; id++ {
		if !used[uint8(id)] {
			gs.Species = append(gs.Species, gacha.Species{ID: uint8(id), Name: fmt.Sprintf("extra%d", id), Tier: gacha.R})
		}
	}
	if err := gs.init(); err == nil || !strings.Contains(err.Error(), "registry cap") {
		t.Fatalf("init with %d species: %v", len(gs.Species), err)
	}
}

func TestLoadByExtension(t *testing.T) {
	jsonDoc := `{"name":"j","economy":{"starting_balance":1,"cost_per_pull":1,"lamports_per_coin":1},
"rates":{"SR":0,"SSR":0,"UR":0},"guarantee":{"ten_pull_size":10,"ur_prob":0},"shiny_prob":0,
"worth":{"R":1,"SR":1,"SSR":1,"UR":1},"species":[{"id":1,"name":"A","tier":"R"},{"id":2,"name":"B","tier":"SSR"}]}`
	fsys := fstest.MapFS{
		"a.json": {Data: []byte(jsonDoc)},
		"b.yml":  {Data: []byte(miniYAML)},
		"c.toml": {Data: []byte("x")},
	}
	if _, err := Load(fsys, "a.json"); err != nil {
		t.Fatalf("json load: %v", err)
	}
	if _, err := Load(fsys, "b.yml"); err != nil {
		t.Fatalf("yml load: %v", err)
	}
	if _, err := Load(fsys, "c.toml"); err == nil {
		t.Fatalf("expected unsupported format")
	}
	if _, err := Load(fsys, "missing.yaml"); err == nil {
		t.Fatalf("expected missing file error")
	}
}
