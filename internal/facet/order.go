package facet

import (
	"regexp"
	"sort"
	"strconv"
)

var leadingNumber = regexp.MustCompile(`^\d+(?:\.\d+)?`)

// sortedLabels returns the set in natural order: labels that start with a
// number come first, ordered by that number, then the rest alphabetically.
func sortedLabels(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return naturalLess(out[i], out[j]) })
	return out
}

func naturalLess(a, b string) bool {
	na, aok := leadingMagnitude(a)
	nb, bok := leadingMagnitude(b)
	switch {
	case aok && bok && na != nb:
		return na < nb
	case aok != bok:
		return aok
	default:
		return a < b
	}
}

func leadingMagnitude(s string) (float64, bool) {
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	return v, err == nil
}
