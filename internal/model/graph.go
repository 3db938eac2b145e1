package model

import (
	"encoding/json"
	"sort"
	"strings"
)

// Relation is a single grounded fact about an entity
type Relation struct {
	Value  string `json:"value"`  // The related value
	Source string `json:"source"` // Quote from the context that grounds the value
}

// UnmarshalJSON tolerates non-string values and bare-string relations
func (r *Relation) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		*r = Relation{Value: bare}
		return nil
	}

	var raw struct {
		Value  any    `json:"value"`
		Source string `json:"source"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Source = raw.Source
	switch v := raw.Value.(type) {
	case nil:
		r.Value = ""
	case string:
		r.Value = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return err
		}
		r.Value = string(encoded)
	}
	return nil
}

// KnowledgeGraph maps entity -> relation name -> relation
type KnowledgeGraph map[string]map[string]Relation

// Entities returns the entity names in sorted order
func (g KnowledgeGraph) Entities() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RelationCount counts relations across all entities
func (g KnowledgeGraph) RelationCount() int {
	count := 0
	for _, relations := range g {
		count += len(relations)
	}
	return count
}

// Sources returns every non-empty source quote in the graph
func (g KnowledgeGraph) Sources() []string {
	var sources []string
	for _, entity := range g.Entities() {
		relations := g[entity]
		names := make([]string, 0, len(relations))
		for name := range relations {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if src := relations[name].Source; src != "" {
				sources = append(sources, src)
			}
		}
	}
	return sources
}

// UngroundedSources returns source quotes that do not occur verbatim in the context
func (g KnowledgeGraph) UngroundedSources(context string) []string {
	var missing []string
	for _, src := range g.Sources() {
		if !strings.Contains(context, src) {
			missing = append(missing, src)
		}
	}
	return missing
}

// String renders the graph as indented JSON, the form embedded in prompts
func (g KnowledgeGraph) String() string {
	if g == nil {
		return "{}"
	}
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
