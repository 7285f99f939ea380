package memory

import (
	"context"
	"sync"

	"studyquiz-service/internal/domain"
)

// ResultRepository is an in-memory implementation of app.ResultRepository.
type ResultRepository struct {
	mu      sync.RWMutex
	results map[string]domain.QuizResult
}

func NewResultRepository() *ResultRepository {
	return &ResultRepository{results: make(map[string]domain.QuizResult)}
}

func (r *ResultRepository) CreateIfAbsent(_ context.Context, result domain.QuizResult) (domain.QuizResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.results[result.QuizInstanceID]; ok {
		return existing, nil
	}
	r.results[result.QuizInstanceID] = result
	return result, nil
}

func (r *ResultRepository) Get(_ context.Context, quizID string) (domain.QuizResult, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result, ok := r.results[quizID]
	return result, ok, nil
}

func (r *ResultRepository) Save(_ context.Context, result domain.QuizResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[result.QuizInstanceID] = result
	return nil
}
