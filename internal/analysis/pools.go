package analysis

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed pools/*.yaml
var poolFS embed.FS

// Pool is one locale's message set.
type Pool struct {
	Analyzing string                `yaml:"analyzing"`
	Genders   map[string]string     `yaml:"genders"`
	Scenarios map[Category][]string `yaml:"scenarios"`
}

// LoadPools reads every embedded pool, keyed by file name without
// extension (the locale).
func LoadPools() (map[string]Pool, error) {
	entries, err := poolFS.ReadDir("pools")
	if err != nil {
		return nil, err
	}
	out := map[string]Pool{}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		raw, err := poolFS.ReadFile(path.Join("pools", e.Name()))
		if err != nil {
			return nil, err
		}
		var p Pool
		if err := yaml.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("parse pool %s: %w", e.Name(), err)
		}
		out[strings.TrimSuffix(e.Name(), ".yaml")] = p
	}
	return out, nil
}
