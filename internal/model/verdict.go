package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Rating is a Truth-O-Meter level
type Rating string

// Ratings ordered by escalating deviation from the truth
const (
	RatingTrue        Rating = "TRUE"          // Accurate, nothing significant omitted
	RatingMostlyTrue  Rating = "MOSTLY TRUE"   // Accurate but needs clarification
	RatingHalfTrue    Rating = "HALF TRUE"     // Partially accurate, omits vital context
	RatingMostlyFalse Rating = "MOSTLY FALSE"  // Some truth, ignores critical facts
	RatingFalse       Rating = "FALSE"         // Inaccurate
	RatingPantsOnFire Rating = "PANTS ON FIRE" // Inaccurate and ridiculous
)

// AllRatings lists every rating from TRUE to PANTS ON FIRE
var AllRatings = []Rating{
	RatingTrue,
	RatingMostlyTrue,
	RatingHalfTrue,
	RatingMostlyFalse,
	RatingFalse,
	RatingPantsOnFire,
}

// ParseRating normalizes a model-supplied rating.
// Case is ignored and "_" or "-" may stand in for spaces.
func ParseRating(s string) (Rating, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer("_", " ", "-", " ").Replace(normalized)
	normalized = strings.Join(strings.Fields(normalized), " ")

	for _, r := range AllRatings {
		if normalized == string(r) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown rating: %q", s)
}

// Severity returns 0 for TRUE up to 5 for PANTS ON FIRE, -1 when unknown
func (r Rating) Severity() int {
	for i, candidate := range AllRatings {
		if r == candidate {
			return i
		}
	}
	return -1
}

// IsValid reports whether r is one of the six levels
func (r Rating) IsValid() bool {
	return r.Severity() >= 0
}

// UnmarshalJSON rejects ratings outside the scale
func (r *Rating) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	rating, err := ParseRating(s)
	if err != nil {
		return err
	}
	*r = rating
	return nil
}

// Verification is the model's verdict for a single claim
type Verification struct {
	Rating      Rating  `json:"Rating"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// VerifiedFact is a verification merged with the claim it judges
type VerifiedFact struct {
	ClaimID     string  `json:"claim_id,omitempty"`
	Claimed     string  `json:"claimed"`
	Rating      Rating  `json:"Rating"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// VerifiedFacts maps the stringified claim index to its verdict
type VerifiedFacts map[string]VerifiedFact

// FactKey returns the map key for the claim at index i
func FactKey(i int) string {
	return strconv.Itoa(i)
}

// Keys returns the map keys in numeric order
func (f VerifiedFacts) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})
	return keys
}

// Ordered returns the facts in key order
func (f VerifiedFacts) Ordered() []VerifiedFact {
	keys := f.Keys()
	facts := make([]VerifiedFact, len(keys))
	for i, k := range keys {
		facts[i] = f[k]
	}
	return facts
}

// ByClaimID finds the fact produced for the given claim
func (f VerifiedFacts) ByClaimID(id string) (VerifiedFact, bool) {
	for _, fact := range f {
		if fact.ClaimID != "" && fact.ClaimID == id {
			return fact, true
		}
	}
	return VerifiedFact{}, false
}
