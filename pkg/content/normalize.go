package content

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize converts text to NFC and collapses every whitespace run to one
// space, trimming both ends.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}
