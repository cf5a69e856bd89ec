package intent

import "strings"

type Classifier struct {
	catalog *Catalog
}

func NewClassifier(catalog *Catalog) *Classifier {
	return &Classifier{catalog: catalog}
}

// Classify returns the first intent, in catalog order, with a trigger
// contained anywhere in the normalized query, or Unknown.
func (c *Classifier) Classify(normalized string) Intent {
	for _, e := range c.catalog.entries {
		for _, trigger := range e.Triggers {
			if strings.Contains(normalized, trigger) {
				return e.Intent
			}
		}
	}
	return Unknown
}

// Normalize lowercases and trims raw input. The result is both the
// classifier input and the response cache key.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
