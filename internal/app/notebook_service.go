package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"studyquiz-service/internal/domain"
)

// masteryThreshold is the cumulative review count required before a correct
// re-attempt masters a note. The reviews do not have to be consecutive
// correct answers.
const masteryThreshold = 3

// NoteRepository persists wrong-answer notes. Creation is keyed by the
// originating answer record so a re-processed miss never spawns a second
// note. List methods return newest-created first.
type NoteRepository interface {
	// CreateIfAbsent reports created=false when a note for the same
	// SourceAnswerID already exists.
	CreateIfAbsent(ctx context.Context, note domain.WrongAnswerNote) (bool, error)
	Get(ctx context.Context, noteID string) (domain.WrongAnswerNote, error)
	Update(ctx context.Context, note domain.WrongAnswerNote) error
	Delete(ctx context.Context, noteID string) error
	ListByUser(ctx context.Context, userID string) ([]domain.WrongAnswerNote, error)
	ListByUserAndSubject(ctx context.Context, userID, subjectID string) ([]domain.WrongAnswerNote, error)
	// ListNotMastered filters out mastered notes; subjectID may be empty to
	// span all subjects.
	ListNotMastered(ctx context.Context, userID, subjectID string) ([]domain.WrongAnswerNote, error)
}

// NotebookService owns the lifecycle of missed questions: promotion from
// wrong answers, review counting, mastery and the weakness queries.
type NotebookService struct {
	notes NoteRepository
	now   func() time.Time
}

func NewNotebookService(notes NoteRepository) *NotebookService {
	return &NotebookService{notes: notes, now: time.Now}
}

// WithClock is test-only for deterministic timestamps.
func (s *NotebookService) WithClock(now func() time.Time) *NotebookService {
	s.now = now
	return s
}

// RecordMiss promotes an incorrect answer into a note, copying the question
// fields as they stood at miss time. Idempotent per answer record: invoking
// it again for the same answer is a no-op.
func (s *NotebookService) RecordMiss(ctx context.Context, userID, subjectID string, answer domain.AnswerRecord, question domain.Question) error {
	note := domain.WrongAnswerNote{
		ID:             uuid.NewString(),
		UserID:         userID,
		SubjectID:      subjectID,
		SourceAnswerID: answer.ID,
		QuestionText:   question.Text,
		Options:        append([]string(nil), question.Options...),
		CorrectIndex:   question.CorrectIndex,
		UserWrongIndex: answer.SelectedIndex,
		Explanation:    question.Explanation,
		Keyword:        question.Keyword,
		CreatedAt:      s.now(),
	}
	if _, err := s.notes.CreateIfAbsent(ctx, note); err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

// MarkReviewed records one review attempt. The counter always moves; mastery
// flips on a correct attempt once the post-increment count reaches the
// threshold, and never reverts afterwards.
func (s *NotebookService) MarkReviewed(ctx context.Context, noteID string, wasCorrect bool) (domain.ReviewOutcome, error) {
	note, err := s.notes.Get(ctx, noteID)
	if err != nil {
		return domain.ReviewOutcome{}, err
	}

	now := s.now()
	note.ReviewCount++
	note.LastReviewedAt = &now
	if wasCorrect && note.ReviewCount >= masteryThreshold {
		note.IsMastered = true
	}
	if err := s.notes.Update(ctx, note); err != nil {
		return domain.ReviewOutcome{}, fmt.Errorf("update note: %w", err)
	}
	return domain.ReviewOutcome{ReviewCount: note.ReviewCount, IsMastered: note.IsMastered}, nil
}

// WrongAnswers lists a user's notes, optionally narrowed to one subject.
func (s *NotebookService) WrongAnswers(ctx context.Context, userID, subjectID string) ([]domain.WrongAnswerNote, error) {
	if subjectID == "" {
		return s.notes.ListByUser(ctx, userID)
	}
	return s.notes.ListByUserAndSubject(ctx, userID, subjectID)
}

// PendingReview lists the not-yet-mastered notes for a user, optionally
// narrowed to one subject.
func (s *NotebookService) PendingReview(ctx context.Context, userID, subjectID string) ([]domain.WrongAnswerNote, error) {
	return s.notes.ListNotMastered(ctx, userID, subjectID)
}

// WeaknessByKeyword groups a user's notes per keyword, worst first.
func (s *NotebookService) WeaknessByKeyword(ctx context.Context, userID string) ([]domain.KeywordWeakness, error) {
	notes, err := s.notes.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byKeyword := make(map[string]*domain.KeywordWeakness)
	for _, note := range notes {
		w, ok := byKeyword[note.Keyword]
		if !ok {
			w = &domain.KeywordWeakness{Keyword: note.Keyword}
			byKeyword[note.Keyword] = w
		}
		w.MissCount++
		if note.IsMastered {
			w.MasteredCount++
		}
	}
	out := make([]domain.KeywordWeakness, 0, len(byKeyword))
	for _, w := range byKeyword {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MissCount != out[j].MissCount {
			return out[i].MissCount > out[j].MissCount
		}
		return out[i].Keyword < out[j].Keyword
	})
	return out, nil
}

// PurgeNote removes a note on the owner's explicit request. Notes are never
// deleted any other way.
func (s *NotebookService) PurgeNote(ctx context.Context, userID, noteID string) error {
	note, err := s.notes.Get(ctx, noteID)
	if err != nil {
		return err
	}
	if note.UserID != userID {
		return domain.ErrNoteNotFound
	}
	return s.notes.Delete(ctx, noteID)
}
