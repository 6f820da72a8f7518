package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// HandlesFile is the YAML seed file for tracked handles:
//
//	handles:
//	  - tourist
//	  - jiangly
type HandlesFile struct {
	Handles []string `yaml:"handles"`
}

// LoadTrackedHandles reads a seed file and merges it with extra, dropping
// blanks and case-insensitive duplicates. An empty path only normalizes extra.
func LoadTrackedHandles(path string, extra []string) ([]string, error) {
	all := append([]string(nil), extra...)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read tracked handles file: %w", err)
		}
		var f HandlesFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse tracked handles file %s: %w", path, err)
		}
		all = append(all, f.Handles...)
	}

	seen := make(map[string]struct{}, len(all))
	out := make([]string, 0, len(all))
	for _, h := range all {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		key := strings.ToLower(h)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h)
	}
	return out, nil
}
