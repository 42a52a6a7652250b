// Package encoder provides the learned categorical encoders used by the
// encoder-based model variant. Encoders are fit once on the training split
// and loaded read-only by the server.
package encoder

import "sort"

// UnseenIndex is the sentinel returned for values never seen during
// training. It sits outside the dense 0..n-1 index range so the model can
// separate unknown carriers and airports from real classes.
const UnseenIndex = -1

// LabelEncoder maps category values to dense integer indexes.
type LabelEncoder struct {
	Classes map[string]int `json:"classes"`
}

// Fit builds an encoder from the observed values. Indexes are assigned in
// lexicographic order so fitting is deterministic across runs.
func Fit(values []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	ordered := make([]string, 0, len(seen))
	for v := range seen {
		ordered = append(ordered, v)
	}
	sort.Strings(ordered)

	classes := make(map[string]int, len(ordered))
	for i, v := range ordered {
		classes[v] = i
	}
	return &LabelEncoder{Classes: classes}
}

// Transform returns the index for a value, or UnseenIndex when the value
// was not part of the training data. Encoding never fails.
func (e *LabelEncoder) Transform(value string) int {
	if idx, ok := e.Classes[value]; ok {
		return idx
	}
	return UnseenIndex
}

// Len returns the number of known classes.
func (e *LabelEncoder) Len() int { return len(e.Classes) }
