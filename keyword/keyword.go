// Package keyword decides whether a transcript mentions one of the configured
// alert words.
package keyword

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

type Matcher interface {
	Matches(text string) bool
}

// Set matches whole words or phrases, ignoring case and punctuation.
// "help" matches "Help me!" but not "helpful".
type Set struct {
	phrases [][]string
}

func NewSet(keywords ...string) *Set {
	s := &Set{}
	for _, k := range keywords {
		if words := s.words(k); len(words) > 0 {
			s.phrases = append(s.phrases, words)
		}
	}
	return s
}

func (s *Set) Len() int { return len(s.phrases) }

// words folds case and splits on anything that is not part of a word.
// Casers carry state, so each call gets its own.
func (s *Set) words(text string) []string {
	return strings.FieldsFunc(cases.Fold().String(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

func (s *Set) Matches(text string) bool {
	if len(s.phrases) == 0 {
		return false
	}
	words := s.words(text)
	for _, p := range s.phrases {
		if containsRun(words, p) {
			return true
		}
	}
	return false
}

func containsRun(words, phrase []string) bool {
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j := range phrase {
			if words[i+j] != phrase[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
