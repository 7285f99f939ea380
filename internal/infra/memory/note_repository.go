package memory

import (
	"context"
	"sort"
	"sync"

	"studyquiz-service/internal/domain"
)

// NoteRepository is an in-memory implementation of app.NoteRepository.
// byAnswer indexes notes by their originating answer record so RecordMiss
// stays idempotent.
type NoteRepository struct {
	mu       sync.RWMutex
	notes    map[string]domain.WrongAnswerNote
	byAnswer map[string]string
}

func NewNoteRepository() *NoteRepository {
	return &NoteRepository{
		notes:    make(map[string]domain.WrongAnswerNote),
		byAnswer: make(map[string]string),
	}
}

func (r *NoteRepository) CreateIfAbsent(_ context.Context, note domain.WrongAnswerNote) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byAnswer[note.SourceAnswerID]; ok {
		return false, nil
	}
	r.notes[note.ID] = note
	r.byAnswer[note.SourceAnswerID] = note.ID
	return true, nil
}

func (r *NoteRepository) Get(_ context.Context, noteID string) (domain.WrongAnswerNote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	note, ok := r.notes[noteID]
	if !ok {
		return domain.WrongAnswerNote{}, domain.ErrNoteNotFound
	}
	return note, nil
}

func (r *NoteRepository) Update(_ context.Context, note domain.WrongAnswerNote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[note.ID]; !ok {
		return domain.ErrNoteNotFound
	}
	r.notes[note.ID] = note
	return nil
}

func (r *NoteRepository) Delete(_ context.Context, noteID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	note, ok := r.notes[noteID]
	if !ok {
		return domain.ErrNoteNotFound
	}
	delete(r.notes, noteID)
	delete(r.byAnswer, note.SourceAnswerID)
	return nil
}

func (r *NoteRepository) ListByUser(_ context.Context, userID string) ([]domain.WrongAnswerNote, error) {
	return r.list(func(n domain.WrongAnswerNote) bool {
		return n.UserID == userID
	}), nil
}

func (r *NoteRepository) ListByUserAndSubject(_ context.Context, userID, subjectID string) ([]domain.WrongAnswerNote, error) {
	return r.list(func(n domain.WrongAnswerNote) bool {
		return n.UserID == userID && n.SubjectID == subjectID
	}), nil
}

func (r *NoteRepository) ListNotMastered(_ context.Context, userID, subjectID string) ([]domain.WrongAnswerNote, error) {
	return r.list(func(n domain.WrongAnswerNote) bool {
		if n.IsMastered || n.UserID != userID {
			return false
		}
		return subjectID == "" || n.SubjectID == subjectID
	}), nil
}

func (r *NoteRepository) list(match func(domain.WrongAnswerNote) bool) []domain.WrongAnswerNote {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.WrongAnswerNote
	for _, note := range r.notes {
		if match(note) {
			out = append(out, note)
		}
	}
	// Newest mistakes first; id breaks ties for stable ordering in tests.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
