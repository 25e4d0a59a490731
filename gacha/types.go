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

package gacha

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zintix-labs/gachalab/errs"
)

// Tier 稀有度，封閉集合。
type Tier uint8

const (
	R Tier = iota
	SR
	SSR
	UR
)

// Tiers 依稀有度由低到高。
var Tiers = []Tier{R, SR, SSR, UR}

var tierName = [...]string{R: "R", SR: "SR", SSR: "SSR", UR: "UR"}

func (t Tier) Valid() bool { return t <= UR }

func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Tier(%d)", uint8(t))
	}
	return tierName[t]
}

// ParseTier 僅接受 R/SR/SSR/UR（不分大小寫）。
func ParseTier(s string) (Tier, error) {
	for i, n := range tierName {
		if strings.EqualFold(s, n) {
			return Tier(i), nil
		}
	}
	return 0, errs.Reject(errs.Invalid, "parse", "unknown tier %q", s)
}

func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, errs.Reject(errs.Invalid, "encode", "unknown tier %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Gender 封閉集合；編碼值 0 為 Male、1 為 Female。
type Gender uint8

const (
	Male Gender = iota
	Female
)

func (g Gender) Valid() bool { return g <= Female }

func (g Gender) String() string {
	switch g {
	case Male:
		return "Male"
	case Female:
		return "Female"
	}
	return fmt.Sprintf("Gender(%d)", uint8(g))
}

func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(s) {
	case "male":
		return Male, nil
	case "female":
		return Female, nil
	}
	return 0, errs.Reject(errs.Invalid, "parse", "unknown gender %q", s)
}

func (g Gender) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, errs.Reject(errs.Invalid, "encode", "unknown gender %d", uint8(g))
	}
	return []byte(g.String()), nil
}

func (g *Gender) UnmarshalText(b []byte) error {
	v, err := ParseGender(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// Species 一個可抽出的物種。
type Species struct {
	ID   uint8  `json:"id"   yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Tier Tier   `json:"tier" yaml:"tier"`
}

// Outcome 單一抽取結果。
type Outcome struct {
	SpeciesID uint8  `json:"species_id"`
	Name      string `json:"name"`
	Tier      Tier   `json:"tier"`
	IsShiny   bool   `json:"is_shiny"`
	Gender    Gender `json:"gender"`
	Worth     uint64 `json:"worth"`
}

func (o Outcome) String() string {
	b, _ := json.Marshal(o)
	return string(b)
}
