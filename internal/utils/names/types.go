// Package names canonicalizes session names and student choices read from
// input files, orders session names for reports, and renders choice ranks.
// Named mode compares names case-insensitively after trimming; numeric mode
// treats class names as integers so "03" and "3" name the same session.
package names

// Mode selects how session names are canonicalized.
type Mode string

const (
	// ModeNamed compares names trimmed and lower-cased.
	ModeNamed Mode = "named"
	// ModeNumeric parses names as integers. Names that do not parse fall back
	// to named canonicalization.
	ModeNumeric Mode = "numeric"

	// Unassigned is the sentinel written in place of a session name for
	// students left without a seat.
	Unassigned = "UNASSIGNED"
)

// ModeFor returns ModeNumeric when numeric is set.
func ModeFor(numeric bool) Mode {
	if numeric {
		return ModeNumeric
	}
	return ModeNamed
}
