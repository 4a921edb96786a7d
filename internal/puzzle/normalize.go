package puzzle

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/fabula/internal/story"
)

// stripDiacritics decomposes to NFD, drops combining marks, and
// recomposes to NFC, so "café" and "cafe" compare equal.
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeText applies a declared normalization chain in order. An
// unknown step is skipped; the loader rejects unknown steps up front, so
// hitting one here is a runtime anomaly, not a scoring failure.
func normalizeText(s string, steps []story.NormalizeStep) string {
	for _, step := range steps {
		switch step {
		case story.NormTrim:
			s = strings.TrimSpace(s)
		case story.NormLowercase:
			s = strings.ToLower(s)
		case story.NormStripNonASCII:
			s = strings.Map(func(r rune) rune {
				if r > unicode.MaxASCII {
					return -1
				}
				return r
			}, s)
		case story.NormStripDiacritics:
			if out, _, err := transform.String(stripDiacritics, s); err == nil {
				s = out
			}
		}
	}
	return s
}

// matchesAny reports whether the normalized answer equals any of the
// normalized accepted alternatives. Comparison is exact after the chain.
func matchesAny(answer string, accepted []string, steps []story.NormalizeStep) bool {
	got := normalizeText(answer, steps)
	for _, alt := range accepted {
		if got == normalizeText(alt, steps) {
			return true
		}
	}
	return false
}
