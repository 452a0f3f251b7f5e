package citation

import "sort"

// Keys returns the distinct citation keys of spans in order of first appearance.
func Keys(spans []Span) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, s := range spans {
		if s.Kind != KindCitationKey {
			continue
		}
		if _, ok := seen[s.Key]; ok {
			continue
		}
		seen[s.Key] = struct{}{}
		keys = append(keys, s.Key)
	}
	return keys
}

// SpanAt returns the span containing offset. spans must be sorted and disjoint,
// as returned by Scan.
func SpanAt(spans []Span, offset int) (Span, bool) {
	i := sort.Search(len(spans), func(i int) bool { return spans[i].End > offset })
	if i < len(spans) && spans[i].Contains(offset) {
		return spans[i], true
	}
	return Span{}, false
}
