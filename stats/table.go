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

package stats

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/message"
)

func (s *PullReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	basic := map[string]string{
		"Setting":      p.Sprintf("%s", s.Summary.Name),
		"Seed":         fmt.Sprintf("%d", s.Summary.Seed),
		"Batches":      p.Sprintf("%d x %d", s.Summary.Batches, s.Summary.BatchSize),
		"Total Draws":  p.Sprintf("%d", s.Summary.Draws),
		"Coins Spent":  p.Sprintf("%d", s.Summary.CoinsSpent),
		"Shiny":        fmtHatCI(s.Shiny),
		"Guarantee":    p.Sprintf("%d slots, %d UR, %d violations", s.Guarantee.Slots, s.Guarantee.UR, s.Guarantee.Violations),
		"Worth (mean)": p.Sprintf("%.3f ± %.3f", s.Worth.Mean, s.Worth.Std),
	}
	keys := []string{"Setting", "Seed", "Batches", "Total Draws", "Coins Spent", "Shiny", "Guarantee", "Worth (mean)"}
	return keys, basic
}

func (s *PullReport) fmtTiers() ([]string, map[string]string) {
	keys := make([]string, 0, len(s.Tiers))
	msg := make(map[string]string, len(s.Tiers))
	for _, t := range s.Tiers {
		keys = append(keys, t.Label)
		msg[t.Label] = fmtHatCI(t)
	}
	return keys, msg
}

func fmtPct01(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func fmtHatCI(t TierStat) string {
	mark := "ok"
	if !t.Within {
		mark = "!!"
	}
	return fmt.Sprintf("%s [%s, %s] exp %s %s", fmtPct01(t.Hat), fmtPct01(t.CI.Lo), fmtPct01(t.CI.Hi), fmtPct01(t.Expected), mark)
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)
	left := max((totalInner-titleW)/2, 0)
	right := max(totalInner-titleW-left, 0)

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
