package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// PullReportRender 定義輸出行為
type PullReportRender interface {
	Write(w io.Writer, r *PullReport) error
}

// RenderByName 依名稱取得渲染器：json / yaml / table
func RenderByName(name string) (PullReportRender, error) {
	switch strings.ToLower(name) {
	case "", "table", "text":
		return &TableRender{}, nil
	case "json":
		return &JsonRender{}, nil
	case "yaml", "yml":
		return &YAMLRender{}, nil
	}
	return nil, fmt.Errorf("unknown render %q", name)
}

// 表格渲染
type TableRender struct{}

func (tr *TableRender) Write(w io.Writer, r *PullReport) error {
	sk, sm := r.fmtBasic()
	if _, err := io.WriteString(w, fmtTable(r.Summary.Name, sk, sm)); err != nil {
		return err
	}
	tk, tm := r.fmtTiers()
	_, err := io.WriteString(w, fmtTable("Tier frequency", tk, tm))
	return err
}

// Json渲染
type JsonRender struct{}

func (jr *JsonRender) Write(w io.Writer, r *PullReport) error {
	return json.NewEncoder(w).Encode(r)
}

// YAML渲染
type YAMLRender struct{}

func (yr *YAMLRender) Write(w io.Writer, r *PullReport) error {
	// 純量陣列用 flow style 輸出，其餘維持展開
	return forceReadableList(w, r)
}

// YAML 內層方法
func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

// styleReadableSequences : 只含純量的 sequence 改為 flow style
func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
	case yaml.SequenceNode:
		scalarOnly := true
		for _, c := range n.Content {
			if c != nil && c.Kind != yaml.ScalarNode {
				scalarOnly = false
			}
			styleReadableSequences(c)
		}
		if scalarOnly {
			n.Style = yaml.FlowStyle
		}
	}
}
