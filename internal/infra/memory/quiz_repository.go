package memory

import (
	"context"
	"sync"

	"studyquiz-service/internal/domain"
)

// QuizRepository is an in-memory implementation of app.QuizRepository.
type QuizRepository struct {
	mu      sync.RWMutex
	quizzes map[string]domain.QuizInstance
}

func NewQuizRepository() *QuizRepository {
	return &QuizRepository{quizzes: make(map[string]domain.QuizInstance)}
}

func (r *QuizRepository) Create(_ context.Context, quiz domain.QuizInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	quiz.Bank = append([]domain.Question(nil), quiz.Bank...)
	r.quizzes[quiz.ID] = quiz
	return nil
}

func (r *QuizRepository) Get(_ context.Context, quizID string) (domain.QuizInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	quiz, ok := r.quizzes[quizID]
	if !ok {
		return domain.QuizInstance{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}
