package annotate

import (
	"sort"
	"strings"

	"github.com/ppiankov/factcheck/internal/model"
)

// Mark is a claim to highlight in an article together with its verdict
type Mark struct {
	Claim      string `json:"claim"`
	FactRating string `json:"fact_rating"`
	Reference  string `json:"reference,omitempty"`
}

type span struct {
	start, end int
	label      string
}

// Highlight splits article into contiguous segments covering all of it.
// Each mark is located at the first occurrence of its claim text; marks that
// are empty, absent from the article or overlapping an earlier span are skipped.
func Highlight(article string, marks []Mark) []model.Segment {
	spans := make([]span, 0, len(marks))
	for _, m := range marks {
		if m.Claim == "" {
			continue
		}
		start := strings.Index(article, m.Claim)
		if start == -1 {
			continue
		}
		spans = append(spans, span{start: start, end: start + len(m.Claim), label: m.FactRating})
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	var segments []model.Segment
	pos := 0
	for _, s := range spans {
		if s.start < pos {
			continue
		}
		if pos < s.start {
			segments = append(segments, model.Segment{Text: article[pos:s.start]})
		}
		segments = append(segments, model.Segment{Text: article[s.start:s.end], Label: s.label})
		pos = s.end
	}
	if pos < len(article) {
		segments = append(segments, model.Segment{Text: article[pos:]})
	}

	return segments
}

// MarksFromFacts converts verified facts into marks, in key order
func MarksFromFacts(facts model.VerifiedFacts) []Mark {
	ordered := facts.Ordered()
	marks := make([]Mark, len(ordered))
	for i, f := range ordered {
		marks[i] = Mark{
			Claim:      f.Claimed,
			FactRating: string(f.Rating),
			Reference:  f.Explanation,
		}
	}
	return marks
}
