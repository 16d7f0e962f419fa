package names

import "strconv"

// ChoiceLabel renders a zero-based choice rank: 0 is "1st choice", 1 is
// "2nd choice" and so on. A negative rank means the student is unassigned.
func ChoiceLabel(rank int) string {
	if rank < 0 {
		return "unassigned"
	}
	return Ordinal(rank+1) + " choice"
}

// Ordinal renders n as "1st", "2nd", "3rd", "4th", ...
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
