package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_TrimsWhitespace(t *testing.T) {
	assert.Equal(t, "hello world", Normalize("   hello world \n\t"))
}

func TestNormalize_EmptyAndWhitespaceOnly(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("   \n\t  \n"))
}

func TestNormalize_StructuralMarkers(t *testing.T) {
	got := Normalize("before <!-- image --> middle <!-- formula-not-decoded --> after")
	assert.Equal(t, "before [Image] middle [Formula] after", got)
}

func TestNormalize_RemovesControlCharacters(t *testing.T) {
	got := Normalize("a\x00b\x07c\x1bd")
	assert.Equal(t, "abcd", got)
}

func TestNormalize_KeepsNewlineAndTab(t *testing.T) {
	got := Normalize("line one\nline\ttwo")
	assert.Equal(t, "line one\nline\ttwo", got)
}

func TestNormalize_DropsCarriageReturns(t *testing.T) {
	got := Normalize("line one\r\nline two")
	assert.Equal(t, "line one\nline two", got)
}

func TestNormalize_ASCIISubstitutions(t *testing.T) {
	cases := map[string]string{
		"alpha → beta":  "alpha -> beta",
		"x ≤ y ≥ z":     "x <= y >= z",
		"a ≠ b":         "a != b",
		"90° outside":   "90 deg outside",
		"δ and λ and π": "delta and lambda and pi",
		"“quoted” text": `"quoted" text`,
		"3 × 4 ÷ 2":     "3 x 4 / 2",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestNormalize_CollapsesSpaceRuns(t *testing.T) {
	assert.Equal(t, "a b c", Normalize("a    b\t\tc"))
}

func TestNormalize_CollapsesBlankLines(t *testing.T) {
	got := Normalize("para one\n\n\n\n\npara two")
	assert.Equal(t, "para one\n\npara two", got)
}

func TestNormalize_StripsPrivateUseArea(t *testing.T) {
	got := Normalize("abc")
	assert.Equal(t, "abc", got)
}

func TestNormalize_RepairsInvalidUTF8(t *testing.T) {
	raw := "valid " + string([]byte{0xff, 0xfe}) + " text"
	got := Normalize(raw)
	assert.Equal(t, "valid text", got)
}

func TestNormalize_StripsReplacementCharacter(t *testing.T) {
	got := Normalize("mojibake�artifact")
	assert.Equal(t, "mojibakeartifact", got)
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"  padded  ",
		"α → β with 90° and “quotes”",
		"para one\n\n\n\npara two",
		"ctrl\x00chars\x07here",
		"<!-- image --> marker",
		"ab" + string([]byte{0xff}),
		"already [Image] normalized -> text",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		require.Equal(t, once, twice, "normalize not idempotent for %q", in)
	}
}
