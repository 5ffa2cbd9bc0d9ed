// Package keyword provides the bilingual keyword matching used by the feedback
// classifier and the touchpoint inference rules.
package keyword

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// Fold normalizes text for matching: full-width forms are folded to their
// narrow equivalents and the result is lower-cased.
func Fold(s string) string {
	return strings.ToLower(width.Fold.String(s))
}

// Set is an immutable group of keywords. ASCII keywords only match on word
// boundaries so "pay" does not match "display"; other keywords match as plain
// substrings. Match and Index expect folded input.
type Set struct {
	ascii *regexp.Regexp
	other []string
}

// New builds a Set. Keywords are folded before use.
func New(words ...string) Set {
	var s Set
	var ascii []string
	for _, w := range words {
		w = Fold(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if isASCII(w) {
			ascii = append(ascii, regexp.QuoteMeta(w))
			continue
		}
		s.other = append(s.other, w)
	}
	if len(ascii) > 0 {
		s.ascii = regexp.MustCompile(`\b(?:` + strings.Join(ascii, "|") + `)\b`)
	}
	return s
}

// Match reports whether any keyword occurs in text.
func (s Set) Match(text string) bool {
	return s.Index(text) >= 0
}

// Index returns the byte offset of the earliest keyword occurrence, or -1.
func (s Set) Index(text string) int {
	best := -1
	for _, w := range s.other {
		if i := strings.Index(text, w); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	if s.ascii != nil {
		if loc := s.ascii.FindStringIndex(text); loc != nil && (best < 0 || loc[0] < best) {
			best = loc[0]
		}
	}
	return best
}

// Empty reports whether the set has no keywords.
func (s Set) Empty() bool {
	return s.ascii == nil && len(s.other) == 0
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
