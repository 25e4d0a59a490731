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
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/zintix-labs/gachalab/errs"
	"gopkg.in/yaml.v3"
)

//go:embed gacha_setting.schema.json
var schemaRaw []byte

const schemaURL = "gacha_setting.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func settingSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaRaw)); err != nil {
			schemaErr = errs.Wrap(err, "spec: add schema resource")
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = errs.Wrap(schemaErr, "spec: compile schema")
		}
	})
	return schema, schemaErr
}

// validateDoc 以 JSON Schema 檢查原始文件；doc 必須是 JSON 相容的值。
func validateDoc(doc any) error {
	s, err := settingSchema()
	if err != nil {
		return err
	}
	if err := s.Validate(doc); err != nil {
		return errs.WrapWithExtra(err, "setting rejected by schema", err.Error())
	}
	return nil
}

// jsonCompatible : YAML 解出的 any 轉為 JSON 型別（map[string]any / float64）
func jsonCompatible(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func GetGachaSettingByYAML(data []byte) (*GachaSetting, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshal yaml")
	}
	doc, err := jsonCompatible(doc)
	if err != nil {
		return nil, errs.Wrap(err, "yaml document is not json compatible")
	}
	if err := validateDoc(doc); err != nil {
		return nil, err
	}

	gs := &GachaSetting{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 嚴格檢查：多寫/拼錯欄位就報錯
	if err := dec.Decode(gs); err != nil {
		return nil, errs.Wrap(err, "failed to decode gacha setting")
	}
	if err := gs.init(); err != nil {
		return nil, errs.Wrap(err, "gacha setting initialized err")
	}
	return gs, nil
}

func GetGachaSettingByJSON(data []byte) (*GachaSetting, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errs.Wrap(err, "can not unmarshal json byte")
	}
	if err := validateDoc(doc); err != nil {
		return nil, err
	}

	gs := &GachaSetting{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(gs); err != nil {
		return nil, errs.Wrap(err, "can not decode gacha setting")
	}
	if err := gs.init(); err != nil {
		return nil, errs.Wrap(err, "gacha setting initialized err")
	}
	return gs, nil
}

// Load 依副檔名從 fsys 讀取設定。
func Load(fsys fs.FS, name string) (*GachaSetting, error) {
	if name == "" || strings.HasPrefix(name, ".") {
		return nil, errs.NewFatal(fmt.Sprintf("invalid setting filename: %q", name))
	}
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errs.Wrap(err, "read setting file")
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return GetGachaSettingByYAML(raw)
	case ".json":
		return GetGachaSettingByJSON(raw)
	default:
		return nil, errs.NewFatal(fmt.Sprintf("unsupported setting format: %q", name))
	}
}
