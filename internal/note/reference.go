package note

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/shinji-kodama/notesync/internal/model"
)

// referenceCandidate matches the order reference shape without boundaries.
// Go's RE2 has no look-around, so token boundaries are checked by hand in
// ExtractReference.
var referenceCandidate = regexp.MustCompile(`[A-Z][0-9]{6}`)

// ExtractReference returns the leftmost order reference in text.
//
// A reference is one uppercase ASCII letter followed by exactly six ASCII
// digits, standing as a whole token: the characters on either side must not
// be letters, digits, or underscores. "A1234567" and "XA123456" therefore
// contain no reference. The second return value is false when none is found.
func ExtractReference(text string) (model.OrderReference, bool) {
	for _, loc := range referenceCandidate.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if start > 0 {
			if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(r) {
				continue
			}
		}
		if end < len(text) {
			if r, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(r) {
				continue
			}
		}
		ref, err := model.ParseOrderReference(text[start:end])
		if err != nil {
			continue
		}
		return ref, true
	}
	return "", false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
