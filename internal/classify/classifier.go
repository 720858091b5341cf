package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Reasons reported in a Verdict
const (
	ReasonEmpty          = "empty transcript"
	ReasonCarrierMessage = "carrier message"
	ReasonTooShort       = "transcript too short"
	ReasonAnswered       = "answered"
)

// DefaultMinLength is the shortest trimmed transcript counted as a real answer
const DefaultMinLength = 3

// DefaultPhrases are carrier announcements for unreachable or invalid numbers.
// Ukrainian operators first, then common English recordings.
var DefaultPhrases = []string{
	"недоступний",
	"номер не обслуговується",
	"невірно набраний",
	"поза зоною",
	"абонент відсутній",
	"номер відключений",
	"неправильний номер",
	"не існує",
	"тимчасово недоступний",
	"номер заблокований",
	"послуга недоступна",
	"not in service",
	"no longer in service",
	"has been disconnected",
	"cannot be completed as dialed",
	"is not available",
	"check the number and dial again",
	"number you have dialed is incorrect",
}

// Verdict is the outcome of classifying one transcript
type Verdict struct {
	Valid         bool
	Reason        string
	MatchedPhrase string
}

// Classifier matches transcripts against a fixed phrase list
type Classifier struct {
	phrases   []string // normalized
	original  []string
	minLength int
}

// NewClassifier creates a classifier. A nil phrase list selects DefaultPhrases
// and a minLength below 1 selects DefaultMinLength.
func NewClassifier(phrases []string, minLength int) *Classifier {
	if phrases == nil {
		phrases = DefaultPhrases
	}
	if minLength < 1 {
		minLength = DefaultMinLength
	}

	c := &Classifier{minLength: minLength}
	for _, p := range phrases {
		n := normalize(p)
		if n == "" {
			continue
		}
		c.phrases = append(c.phrases, n)
		c.original = append(c.original, strings.TrimSpace(p))
	}
	return c
}

// Phrases returns the phrases the classifier matches, as configured
func (c *Classifier) Phrases() []string {
	result := make([]string, len(c.original))
	copy(result, c.original)
	return result
}

// Classify returns the verdict for a transcript
func (c *Classifier) Classify(text string) Verdict {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Verdict{Reason: ReasonEmpty}
	}

	normalized := normalize(trimmed)
	for i, phrase := range c.phrases {
		if strings.Contains(normalized, phrase) {
			return Verdict{Reason: ReasonCarrierMessage, MatchedPhrase: c.original[i]}
		}
	}

	if utf8.RuneCountInString(trimmed) < c.minLength {
		return Verdict{Reason: ReasonTooShort}
	}

	return Verdict{Valid: true, Reason: ReasonAnswered}
}

// normalize lowercases text, turns punctuation into spaces and collapses runs of whitespace
func normalize(text string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == '\'' || r == '’' || r == 'ʼ':
			// Ukrainian apostrophe is part of the word
			return r
		default:
			return ' '
		}
	}, text)
	return strings.Join(strings.Fields(mapped), " ")
}
