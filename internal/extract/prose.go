package extract

import (
	"fmt"

	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/student-bot/backend/pkg/logger"
)

// ProseRecognizer runs the prose NER model over the text. The tagger and
// entity model are loaded once and shared by every call.
type ProseRecognizer struct {
	model *prose.Model
}

func NewProseRecognizer() *ProseRecognizer {
	r := &ProseRecognizer{}

	doc, err := prose.NewDocument("", prose.WithSegmentation(false))
	if err != nil {
		logger.Warn("Failed to preload prose model", zap.Error(err))
		return r
	}
	r.model = doc.Model
	return r
}

func (r *ProseRecognizer) Recognize(text string) (entities []Entity, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			entities, err = nil, fmt.Errorf("prose tagger panicked: %v", rec)
		}
	}()

	doc, err := r.document(text)
	if err != nil {
		return nil, fmt.Errorf("failed to tag text: %w", err)
	}

	for _, ent := range doc.Entities() {
		entities = append(entities, Entity{Text: ent.Text, Label: ent.Label})
	}
	return entities, nil
}

func (r *ProseRecognizer) document(text string) (*prose.Document, error) {
	opts := []prose.DocOpt{prose.WithSegmentation(false)}
	if r.model != nil {
		opts = append(opts, prose.UsingModel(r.model))
	}
	return prose.NewDocument(text, opts...)
}
