// Package textnorm canonicalizes raw layout-engine text so it is safe for
// chunking, embedding APIs and JSON transport. Normalize is a total
// function applied identically on every path that produces chunk content.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Structural markers emitted by the layout engine's markdown serializer.
var markerReplacer = strings.NewReplacer(
	"<!-- image -->", "[Image]",
	"<!-- formula-not-decoded -->", "[Formula]",
)

// asciiSubstitutions maps common non-ASCII glyphs to stable ASCII forms.
// The table is fixed; changing it changes chunk content and therefore the
// deterministic embedding ids of every re-processed document.
var asciiSubstitutions = strings.NewReplacer(
	"→", "->",
	"←", "<-",
	"⇒", "=>",
	"⇐", "<=",
	"≤", "<=",
	"≥", ">=",
	"≠", "!=",
	"≈", "~",
	"±", "+/-",
	"×", "x",
	"÷", "/",
	"−", "-",
	"‐", "-",
	"–", "-",
	"—", "-",
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
	"…", "...",
	"•", "-",
	"°", " deg",
	"µ", "u",
	"α", "alpha",
	"β", "beta",
	"γ", "gamma",
	"δ", "delta",
	"θ", "theta",
	"λ", "lambda",
	"μ", "mu",
	"π", "pi",
	"σ", "sigma",
	"ω", "omega",
	"Δ", "Delta",
	"Σ", "Sigma",
	"Ω", "Omega",
)

var (
	spaceRuns     = regexp.MustCompile(`[ \t]{2,}`)
	trailingSpace = regexp.MustCompile(`[ \t]+\n`)
	blankLineRuns = regexp.MustCompile(`\n{3,}`)
)

// Normalize cleans raw extracted text into its canonical form. The rules
// are order-sensitive; see the package comment. Worst case it returns "".
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	s = markerReplacer.Replace(s)
	s = stripDisallowedRunes(s)
	s = asciiSubstitutions.Replace(s)

	s = trailingSpace.ReplaceAllString(s, "\n")
	s = spaceRuns.ReplaceAllString(s, " ")
	s = blankLineRuns.ReplaceAllString(s, "\n\n")

	// Repair any residual invalid byte sequences, then drop the replacement
	// character itself so no mojibake artifact survives into chunk content.
	s = strings.ToValidUTF8(s, string(utf8.RuneError))
	s = strings.ReplaceAll(s, string(utf8.RuneError), "")

	return strings.TrimSpace(s)
}

// stripDisallowedRunes removes control characters (except newline and tab),
// invalid byte sequences, and private-use-area code points. PUA and
// unpaired-surrogate bytes break downstream JSON encoders.
func stripDisallowedRunes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r == utf8.RuneError && size == 1 {
			continue // invalid byte, includes raw surrogate encodings
		}
		if r == '\r' {
			continue
		}
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		if isPrivateUse(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isPrivateUse(r rune) bool {
	return (r >= 0xE000 && r <= 0xF8FF) ||
		(r >= 0xF0000 && r <= 0xFFFFD) ||
		(r >= 0x100000 && r <= 0x10FFFD)
}
