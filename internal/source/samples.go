// Package source loads article text from sample files and web pages.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Sample is a bundled example article
type Sample struct {
	Label string `json:"label"` // File name without extension
	Text  string `json:"text"`
}

// LoadSamples reads every *.txt file in dir, ordered by file name
func LoadSamples(dir string) ([]Sample, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	sort.Strings(paths)

	samples := make([]Sample, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read sample %s: %w", path, err)
		}
		samples = append(samples, Sample{
			Label: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Text:  string(data),
		})
	}
	return samples, nil
}

// IsURL reports whether input looks like an http(s) URL rather than a file path
func IsURL(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}
