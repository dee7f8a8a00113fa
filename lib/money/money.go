package money

import (
	"strconv"
	"strings"
)

// Sanitize turns a free-form monetary string like "4000,00 zł" into a
// canonical numeric string.
//
// Commas become dots, then everything that isn't an ASCII digit or a dot
// is dropped. Cents are kept ("2555,44" -> "2555.44"), use Truncate to cut
// them off. Only the first dot survives so the result always parses as a
// single decimal number and Sanitize(Sanitize(x)) == Sanitize(x).
//
// A string without any digits sanitizes to "", it is up to the caller to
// reject that.
func Sanitize(raw string) string {
	var out strings.Builder
	out.Grow(len(raw))

	seenDot := false
	for _, c := range raw {
		if c == ',' {
			c = '.'
		}
		switch {
		case c >= '0' && c <= '9':
			out.WriteRune(c)
		case c == '.' && !seenDot:
			seenDot = true
			out.WriteRune(c)
		}
	}
	return out.String()
}

// Truncate cuts a canonical amount at the first dot, dropping the cents.
func Truncate(canonical string) string {
	before, _, _ := strings.Cut(canonical, ".")
	return before
}

// Parse converts a canonical amount into a float, a trailing dot ("1900.")
// is accepted.
func Parse(canonical string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSuffix(canonical, "."), 64)
}
