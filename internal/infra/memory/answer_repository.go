package memory

import (
	"context"
	"sort"
	"sync"

	"studyquiz-service/internal/domain"
)

type answerKey struct {
	quizID  string
	ordinal int
}

// AnswerRepository is an in-memory implementation of app.AnswerRepository.
// The map under the mutex provides create-if-absent atomicity per
// (quiz, ordinal) pair.
type AnswerRepository struct {
	mu      sync.RWMutex
	records map[answerKey]domain.AnswerRecord
}

func NewAnswerRepository() *AnswerRepository {
	return &AnswerRepository{records: make(map[answerKey]domain.AnswerRecord)}
}

func (r *AnswerRepository) CreateIfAbsent(_ context.Context, record domain.AnswerRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := answerKey{quizID: record.QuizInstanceID, ordinal: record.QuestionOrdinal}
	if _, ok := r.records[key]; ok {
		return domain.ErrAlreadyAnswered
	}
	r.records[key] = record
	return nil
}

func (r *AnswerRepository) ListByQuiz(_ context.Context, quizID string) ([]domain.AnswerRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.AnswerRecord
	for key, record := range r.records {
		if key.quizID == quizID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].QuestionOrdinal < out[j].QuestionOrdinal
	})
	return out, nil
}
