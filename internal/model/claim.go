package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Claim represents a verbatim statement extracted from the source text
type Claim struct {
	ID        string `json:"id"`        // Synthetic identifier assigned at extraction time
	Index     int    `json:"index"`     // Position in extraction order (0-based)
	Statement string `json:"statement"` // Statement text, kept exactly as extracted
	Tags      []Tag  `json:"tags"`      // Fact-check suitability tags (never empty)
}

// HasTag reports whether the claim carries the given tag
func (c Claim) HasTag(tag Tag) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Tag classifies why a statement is worth fact-checking
type Tag string

const (
	TagVerifiable Tag = "Verifiable" // Rooted in a fact that can be verified
	TagMisleading Tag = "Misleading" // Seems misleading or sounds incorrect
	TagCuriosity  Tag = "Curiosity"  // A typical reader would wonder if it's true
)

// AllTags lists the valid tags in prompt order
var AllTags = []Tag{TagVerifiable, TagMisleading, TagCuriosity}

// ParseTag converts a model-supplied tag into a Tag (case-insensitive)
func ParseTag(s string) (Tag, error) {
	trimmed := strings.TrimSpace(s)
	for _, tag := range AllTags {
		if strings.EqualFold(trimmed, string(tag)) {
			return tag, nil
		}
	}
	return "", fmt.Errorf("unknown claim tag: %q", s)
}

// UnmarshalJSON accepts any casing of a known tag
func (t *Tag) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	tag, err := ParseTag(s)
	if err != nil {
		return err
	}
	*t = tag
	return nil
}

// Statements returns the claim statements in order
func Statements(claims []Claim) []string {
	statements := make([]string, len(claims))
	for i, c := range claims {
		statements[i] = c.Statement
	}
	return statements
}
