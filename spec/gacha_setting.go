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

	"github.com/zintix-labs/gachalab/addr"
	"github.com/zintix-labs/gachalab/errs"
	"github.com/zintix-labs/gachalab/gacha"
	"github.com/zintix-labs/gachalab/ledger"
)

// GachaSetting 一份完整的遊戲設定：經濟參數、抽卡機率與物種圖鑑。
type GachaSetting struct {
	Name      string            `yaml:"name"       json:"name"`
	ProgramID string            `yaml:"program_id" json:"program_id"`
	Economy   EconomySetting    `yaml:"economy"    json:"economy"`
	Rates     RateTable         `yaml:"rates"      json:"rates"`
	Guarantee GuaranteeSetting  `yaml:"guarantee"  json:"guarantee"`
	ShinyProb float64           `yaml:"shiny_prob" json:"shiny_prob"`
	ShinyMult uint64            `yaml:"shiny_mult" json:"shiny_mult"`
	MaxCount  int               `yaml:"max_count"  json:"max_count"`
	Worth     WorthTable        `yaml:"worth"      json:"worth"`
	Species   []gacha.Species   `yaml:"species"    json:"species"`
	Extra     map[string]string `yaml:"extra,omitempty" json:"extra,omitempty"`
}

type EconomySetting struct {
	StartingBalance uint64 `yaml:"starting_balance"  json:"starting_balance"`
	CostPerPull     uint64 `yaml:"cost_per_pull"     json:"cost_per_pull"`
	LamportsPerCoin uint64 `yaml:"lamports_per_coin" json:"lamports_per_coin"`
	DefaultNote     string `yaml:"default_note"      json:"default_note"`
	NameLimit       int    `yaml:"name_limit"        json:"name_limit"`
	NoteLimit       int    `yaml:"note_limit"        json:"note_limit"`
}

type RateTable struct {
	SR  float64 `yaml:"SR"  json:"SR"`
	SSR float64 `yaml:"SSR" json:"SSR"`
	UR  float64 `yaml:"UR"  json:"UR"`
}

type GuaranteeSetting struct {
	TenPullSize int     `yaml:"ten_pull_size" json:"ten_pull_size"`
	URProb      float64 `yaml:"ur_prob"       json:"ur_prob"`
}

type WorthTable struct {
	R   uint64 `yaml:"R"   json:"R"`
	SR  uint64 `yaml:"SR"  json:"SR"`
	SSR uint64 `yaml:"SSR" json:"SSR"`
	UR  uint64 `yaml:"UR"  json:"UR"`
}

func (gs *GachaSetting) init() error {
	if gs.ProgramID == "" {
		gs.ProgramID = addr.DefaultProgramID
	}
	if gs.Economy.NameLimit == 0 {
		gs.Economy.NameLimit = 20
	}
	if gs.Economy.NoteLimit == 0 {
		gs.Economy.NoteLimit = 200
	}
	if gs.ShinyMult == 0 {
		gs.ShinyMult = 2
	}
	if gs.MaxCount == 0 {
		gs.MaxCount = 100
	}
	return gs.valid()
}

func (gs *GachaSetting) valid() error {
	if _, err := gs.Deriver(); err != nil {
		return err
	}
	eco := gs.Economy
	if eco.CostPerPull == 0 {
		return errs.NewFatal(fmt.Sprintf("setting %s: cost_per_pull must be positive", gs.Name))
	}
	if eco.LamportsPerCoin == 0 {
		return errs.NewFatal(fmt.Sprintf("setting %s: lamports_per_coin must be positive", gs.Name))
	}
	if len(eco.DefaultNote) > eco.NoteLimit {
		return errs.NewFatal(fmt.Sprintf("setting %s: default_note exceeds note_limit", gs.Name))
	}
	if len(gs.Species) == 0 {
		return errs.NewFatal(fmt.Sprintf("setting %s: empty species", gs.Name))
	}
	// 圖鑑帳戶長度固定，物種數不得超過其容量
	if len(gs.Species) > ledger.RegistryCap {
		return errs.NewFatal(fmt.Sprintf("setting %s: %d species exceeds registry cap %d", gs.Name, len(gs.Species), ledger.RegistryCap))
	}
	for _, s := range gs.Species {
		if s.ID == 0 {
			return errs.NewFatal(fmt.Sprintf("setting %s: species id 0 is reserved", gs.Name))
		}
		if s.Name == "" || len(s.Name) > eco.NameLimit {
			return errs.NewFatal(fmt.Sprintf("setting %s: species %d name %q invalid", gs.Name, s.ID, s.Name))
		}
	}
	// 機率與物種池交給引擎設定檢查
	if err := gs.EngineConfig().Valid(); err != nil {
		return errs.Wrap(err, fmt.Sprintf("setting %s: engine config", gs.Name))
	}
	return nil
}

// EngineConfig 轉成抽卡引擎參數。
func (gs *GachaSetting) EngineConfig() gacha.Config {
	return gacha.Config{
		Rates: [4]float64{
			gacha.SR:  gs.Rates.SR,
			gacha.SSR: gs.Rates.SSR,
			gacha.UR:  gs.Rates.UR,
		},
		TenPullSize: gs.Guarantee.TenPullSize,
		GuaranteeUR: gs.Guarantee.URProb,
		ShinyProb:   gs.ShinyProb,
		Worth: [4]uint64{
			gacha.R:   gs.Worth.R,
			gacha.SR:  gs.Worth.SR,
			gacha.SSR: gs.Worth.SSR,
			gacha.UR:  gs.Worth.UR,
		},
		ShinyMult: gs.ShinyMult,
		MaxCount:  gs.MaxCount,
		Species:   append([]gacha.Species(nil), gs.Species...),
	}
}

// Deriver 依 program_id 建立位址推導器。
func (gs *GachaSetting) Deriver() (*addr.Deriver, error) {
	d, err := addr.NewDeriver(gs.ProgramID)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Sprintf("setting %s: bad program_id", gs.Name))
	}
	return d, nil
}
