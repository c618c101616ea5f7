package scoring

import (
	"strconv"
	"strings"
)

// Classify decides whether a transcribed response matches the expected
// answer. The fallback token is only consulted when the primary one does not
// match. A wrong answer reports the primary token so the observed response is
// kept for review.
func Classify(primary, fallback string, expected int, words WordMap) (Verdict, string) {
	if isUndetected(primary) && isUndetected(fallback) {
		return VerdictNA, NotAvailable
	}
	p := normalizeToken(primary)
	f := normalizeToken(fallback)
	if v, ok := tokenValue(p, words); ok && v == expected {
		return VerdictTrue, p
	}
	if v, ok := tokenValue(f, words); ok && v == expected {
		return VerdictTrue, f
	}
	return VerdictFalse, p
}

func normalizeToken(tok string) string {
	return strings.ToUpper(strings.TrimSpace(tok))
}

func tokenValue(tok string, words WordMap) (int, bool) {
	if tok == "" || isUndetected(tok) {
		return 0, false
	}
	if isDigits(tok) {
		n, err := strconv.Atoi(tok)
		return n, err == nil
	}
	n, ok := words[tok]
	return n, ok
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
