package util

import (
	"cmp"
	"sort"
)

// OrderedKeys returns the keys of m sorted in ascending order. It is used
// throughout fst/ops and rules to get deterministic iteration order over
// state and symbol maps, which matters for stable state-numbering after
// determinize/minimize and for reproducible AT&T/Prolog dumps.
func OrderedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
