package extract

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/student-bot/backend/pkg/logger"
)

const LabelPerson = "PERSON"

// Entity is a span found by a Recognizer.
type Entity struct {
	Text  string
	Label string
}

// Recognizer is an optional named-entity capability.
type Recognizer interface {
	Recognize(text string) ([]Entity, error)
}

var (
	// Tried in order; the first pattern that matches wins.
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)of ([\p{L}\p{N}_\s]+)`),
		regexp.MustCompile(`(?i)tell me about ([\p{L}\p{N}_\s]+)`),
		regexp.MustCompile(`(?i)information for ([\p{L}\p{N}_\s]+)`),
		regexp.MustCompile(`(?i)details of ([\p{L}\p{N}_\s]+)`),
	}

	yearPattern = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
)

// Extractor pulls a person name and a year out of free text. A nil
// recognizer means the NER capability is unavailable and only the
// textual patterns are used; the choice is fixed at construction.
type Extractor struct {
	recognizer Recognizer
}

func NewExtractor(recognizer Recognizer) *Extractor {
	return &Extractor{recognizer: recognizer}
}

func (e *Extractor) HasRecognizer() bool {
	return e.recognizer != nil
}

// Name returns the first PERSON the recognizer finds, falling back to the
// textual patterns. ok is false when no name could be found.
func (e *Extractor) Name(text string) (name string, ok bool) {
	if e.recognizer != nil {
		if person, found := e.recognizePerson(text); found {
			return person, true
		}
	}

	for _, p := range namePatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name = strings.TrimSpace(m[1])
		return name, name != ""
	}

	return "", false
}

func (e *Extractor) recognizePerson(text string) (string, bool) {
	entities, err := e.recognizer.Recognize(text)
	if err != nil {
		logger.Debug("Recognizer failed, falling back to patterns", zap.Error(err))
		return "", false
	}
	for _, ent := range entities {
		if ent.Label == LabelPerson && strings.TrimSpace(ent.Text) != "" {
			return strings.TrimSpace(ent.Text), true
		}
	}
	return "", false
}

// Year returns the leftmost 19xx or 20xx token.
func (e *Extractor) Year(text string) (string, bool) {
	m := yearPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}
