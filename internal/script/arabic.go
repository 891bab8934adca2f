// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package script classifies Arabic-script codepoints and applies the
// NG-final glyph rule to converted Ottoman text.
package script

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// NGFinal is the glyph written for a word-final nasal: U+FBD3, which Unicode
// names ARABIC LETTER NG ISOLATED FORM.
const NGFinal = 'ﯓ'

// Range is an inclusive range of Unicode scalar values.
type Range struct {
	Lo, Hi rune
}

// Contains reports whether r lies within the range.
func (rg Range) Contains(r rune) bool {
	return rg.Lo <= r && r <= rg.Hi
}

// ArabicRanges lists the blocks treated as Arabic script, in codepoint order.
var ArabicRanges = []Range{
	{0x0600, 0x06FF}, // Arabic
	{0x0750, 0x077F}, // Arabic Supplement
	{0x08A0, 0x08FF}, // Arabic Extended-A
	{0xFB50, 0xFDFF}, // Arabic Presentation Forms-A
	{0xFE70, 0xFEFF}, // Arabic Presentation Forms-B
}

// IsArabic reports whether r falls in one of ArabicRanges.
func IsArabic(r rune) bool {
	for _, rg := range ArabicRanges {
		if rg.Contains(r) {
			return true
		}
	}
	return false
}

// ReplaceLastArabic replaces the last Arabic-script character of s with
// NGFinal, or appends NGFinal when s has none.
//
// The character replaced is the last Arabic rune that is not a combining
// mark, together with the marks that follow it in its grapheme cluster.
// Other runes of that cluster, such as a space joined after an Arabic
// prepended mark, are kept. Everything else in s is kept byte for byte.
func ReplaceLastArabic(s string) string {
	start, end := -1, -1
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		from, _ := g.Positions()
		if lo, hi := lastArabicSpan(g.Str()); lo >= 0 {
			start, end = from+lo, from+hi
		}
	}

	var b strings.Builder
	b.Grow(len(s) + 3)
	if start < 0 {
		b.WriteString(s)
		b.WriteRune(NGFinal)
		return b.String()
	}
	b.WriteString(s[:start])
	b.WriteRune(NGFinal)
	b.WriteString(s[end:])
	return b.String()
}

// lastArabicSpan returns the byte span in cluster of its last Arabic base
// rune and the combining marks directly after it, or -1, -1.
func lastArabicSpan(cluster string) (int, int) {
	lo, hi := -1, -1
	for i, r := range cluster {
		switch {
		case isMark(r):
			if lo >= 0 && hi == i {
				hi = i + utf8.RuneLen(r)
			}
		case IsArabic(r):
			lo, hi = i, i+utf8.RuneLen(r)
		}
	}
	return lo, hi
}

func isMark(r rune) bool {
	return unicode.In(r, unicode.Mn, unicode.Me)
}

// EndsWithNasal reports whether the Latin-script source text ends in "n" or
// "ng", ignoring case and surrounding whitespace. The conversion pipeline
// uses it to decide whether the NG-final rule applies to the output.
func EndsWithNasal(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return strings.HasSuffix(t, "n") || strings.HasSuffix(t, "ng")
}
