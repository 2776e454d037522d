// Package textmatch provides the small text utilities shared by the
// classifier and the red-flag gate: tokenisation, Levenshtein distance and
// negation-aware substring search.
package textmatch

import "strings"

// negationWindow is how many characters before a match are scanned for a
// negation word. Wide enough for "denies any", narrow enough not to reach
// into the previous clause.
const negationWindow = 15

var negationMarkers = []string{"no ", "not ", "denies", "without", "never "}

// Tokens splits text into lowercase alphanumeric tokens.
func Tokens(text string) []string {
	lowered := strings.ToLower(text)
	return strings.FieldsFunc(lowered, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9':
			return false
		case r == '+':
			return false
		default:
			return true
		}
	})
}

// Levenshtein returns the edit distance between a and b, case-insensitive.
func Levenshtein(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// ContainsUnnegated reports whether phrase occurs in text outside a negation
// context. Each occurrence is checked against the characters immediately
// before it; "no blood in stool" suppresses the "blood in stool" match while
// "blood in stool since morning" does not. One unnegated occurrence is
// enough.
func ContainsUnnegated(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	lowered := strings.ToLower(text)
	needle := strings.ToLower(phrase)

	offset := 0
	for {
		idx := strings.Index(lowered[offset:], needle)
		if idx < 0 {
			return false
		}
		abs := offset + idx
		if !negatedAt(lowered, abs) {
			return true
		}
		offset = abs + len(needle)
	}
}

func negatedAt(text string, idx int) bool {
	start := idx - negationWindow
	if start < 0 {
		start = 0
	}
	window := text[start:idx]
	for _, marker := range negationMarkers {
		if strings.Contains(window, marker) {
			return true
		}
	}
	return false
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
