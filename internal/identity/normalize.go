package identity

import (
	"strings"

	"golang.org/x/text/secure/precis"
)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeName applies the PRECIS nickname profile: width folding, NFKC and
// collapsed inner whitespace. Names the profile rejects are returned trimmed.
func NormalizeName(name string) string {
	out, err := precis.Nickname.String(name)
	if err != nil {
		return strings.TrimSpace(name)
	}
	return out
}
