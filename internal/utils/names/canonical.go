package names

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/llm-d-incubation/session-matcher/pkg/core"
)

// Canonical returns the name under which a session or choice is matched.
func Canonical(name string, mode Mode) string {
	if mode == ModeNumeric {
		if n, err := strconv.Atoi(strings.TrimSpace(name)); err == nil {
			return strconv.Itoa(n)
		}
	}
	return core.NormalizeName(name)
}

// CanonicalAll canonicalizes every name and drops the ones that end up empty.
func CanonicalAll(in []string, mode Mode) []string {
	out := make([]string, 0, len(in))
	for _, name := range in {
		if c := Canonical(name, mode); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Compare orders two canonical names. In numeric mode integer names sort by
// value and before any name that does not parse.
func Compare(a, b string, mode Mode) int {
	if mode == ModeNumeric {
		x, errA := strconv.Atoi(a)
		y, errB := strconv.Atoi(b)
		switch {
		case errA == nil && errB == nil:
			return cmp.Compare(x, y)
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		}
	}
	return strings.Compare(a, b)
}

// Sort orders names in place using Compare.
func Sort(in []string, mode Mode) {
	slices.SortFunc(in, func(a, b string) int { return Compare(a, b, mode) })
}
