// Package bank encodes and decodes question banks as portable JSON documents.
// The document format is the one stable contract of the engine: wrong-answer
// notes embed frozen copies of questions, so the layout must survive
// regenerations without migration.
package bank

import (
	"encoding/json"
	"fmt"

	"studyquiz-service/internal/domain"
)

// FormatVersion is embedded in every document so future layout changes can be
// detected instead of misread.
const FormatVersion = 1

const (
	minOptions = 2
	maxOptions = 5
)

type document struct {
	Version   int               `json:"version"`
	Questions []domain.Question `json:"questions"`
}

// Encode serializes a validated bank into its document form.
func Encode(questions []domain.Question) ([]byte, error) {
	if err := Validate(questions); err != nil {
		return nil, err
	}
	data, err := json.Marshal(document{Version: FormatVersion, Questions: questions})
	if err != nil {
		return nil, fmt.Errorf("encode bank: %w", err)
	}
	return data, nil
}

// Decode parses a document and validates every question. A bank that fails
// validation is rejected here rather than defaulting fields and surfacing as
// a grading bug later.
func Decode(data []byte) ([]domain.Question, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedBank, err)
	}
	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported document version %d", domain.ErrMalformedBank, doc.Version)
	}
	if err := Validate(doc.Questions); err != nil {
		return nil, err
	}
	return doc.Questions, nil
}

// Validate checks the structural rules every bank must satisfy: non-empty,
// ordinals matching positions, option counts in range, correct index inside
// the option list, non-blank text and options.
func Validate(questions []domain.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: empty question list", domain.ErrMalformedBank)
	}
	for i, q := range questions {
		if q.Ordinal != i {
			return fmt.Errorf("%w: question %d has ordinal %d", domain.ErrMalformedBank, i, q.Ordinal)
		}
		if q.Text == "" {
			return fmt.Errorf("%w: question %d has empty text", domain.ErrMalformedBank, i)
		}
		if len(q.Options) < minOptions || len(q.Options) > maxOptions {
			return fmt.Errorf("%w: question %d has %d options", domain.ErrMalformedBank, i, len(q.Options))
		}
		for j, opt := range q.Options {
			if opt == "" {
				return fmt.Errorf("%w: question %d option %d is empty", domain.ErrMalformedBank, i, j)
			}
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return fmt.Errorf("%w: question %d correct index %d out of range", domain.ErrMalformedBank, i, q.CorrectIndex)
		}
		if q.TimeLimitSeconds < 0 {
			return fmt.Errorf("%w: question %d negative time limit", domain.ErrMalformedBank, i)
		}
	}
	return nil
}
