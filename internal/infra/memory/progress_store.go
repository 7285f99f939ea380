package memory

import (
	"context"
	"sync"

	"studyquiz-service/internal/domain"
)

// ProgressStore is an in-memory implementation of app.ProgressStore. The
// mutex gives Advance its compare-and-swap semantics.
type ProgressStore struct {
	mu       sync.RWMutex
	progress map[string]domain.SessionProgress
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{progress: make(map[string]domain.SessionProgress)}
}

func (s *ProgressStore) Create(_ context.Context, progress domain.SessionProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[progress.QuizInstanceID] = progress
	return nil
}

func (s *ProgressStore) Get(_ context.Context, quizID string) (domain.SessionProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	progress, ok := s.progress[quizID]
	if !ok {
		return domain.SessionProgress{}, domain.ErrProgressNotFound
	}
	return progress, nil
}

func (s *ProgressStore) Advance(_ context.Context, quizID string, fromIndex int) (domain.SessionProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	progress, ok := s.progress[quizID]
	if !ok {
		return domain.SessionProgress{}, domain.ErrProgressNotFound
	}
	if progress.CurrentIndex != fromIndex {
		return domain.SessionProgress{}, domain.ErrStaleProgress
	}
	if progress.Exhausted() {
		return domain.SessionProgress{}, domain.ErrExhausted
	}
	progress.CurrentIndex++
	if progress.Exhausted() {
		progress.Status = domain.ProgressCompleted
	} else {
		progress.Status = domain.ProgressInProgress
	}
	s.progress[quizID] = progress
	return progress, nil
}

func (s *ProgressStore) MarkStarted(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	progress, ok := s.progress[quizID]
	if !ok {
		return domain.ErrProgressNotFound
	}
	if progress.Status == domain.ProgressWaiting {
		progress.Status = domain.ProgressInProgress
		s.progress[quizID] = progress
	}
	return nil
}

func (s *ProgressStore) JoinParticipant(_ context.Context, quizID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	progress, ok := s.progress[quizID]
	if !ok {
		return 0, domain.ErrProgressNotFound
	}
	progress.ParticipantCount++
	s.progress[quizID] = progress
	return progress.ParticipantCount, nil
}

func (s *ProgressStore) LeaveParticipant(_ context.Context, quizID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	progress, ok := s.progress[quizID]
	if !ok {
		return 0, domain.ErrProgressNotFound
	}
	if progress.ParticipantCount > 0 {
		progress.ParticipantCount--
	}
	s.progress[quizID] = progress
	return progress.ParticipantCount, nil
}
