package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"studyquiz-service/internal/domain"
)

// ProgressStore persists session progress; Advance is a conditional UPDATE so
// the compare-and-swap happens inside the database.
type ProgressStore struct {
	db *bun.DB
}

func NewProgressStore(db *bun.DB) *ProgressStore {
	return &ProgressStore{db: db}
}

func (s *ProgressStore) Create(ctx context.Context, progress domain.SessionProgress) error {
	row := sessionProgressRow{
		QuizInstanceID:   progress.QuizInstanceID,
		Status:           string(progress.Status),
		CurrentIndex:     progress.CurrentIndex,
		TotalQuestions:   progress.TotalQuestions,
		ParticipantCount: progress.ParticipantCount,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) Get(ctx context.Context, quizID string) (domain.SessionProgress, error) {
	var row sessionProgressRow
	err := s.db.NewSelect().Model(&row).Where("quiz_instance_id = ?", quizID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SessionProgress{}, domain.ErrProgressNotFound
	}
	if err != nil {
		return domain.SessionProgress{}, fmt.Errorf("select progress: %w", err)
	}
	return progressFromRow(row), nil
}

func (s *ProgressStore) Advance(ctx context.Context, quizID string, fromIndex int) (domain.SessionProgress, error) {
	res, err := s.db.NewUpdate().
		Model((*sessionProgressRow)(nil)).
		Set("current_index = current_index + 1").
		Set("status = CASE WHEN current_index + 1 >= total_questions THEN ? ELSE ? END",
			string(domain.ProgressCompleted), string(domain.ProgressInProgress)).
		Where("quiz_instance_id = ?", quizID).
		Where("current_index = ?", fromIndex).
		Where("current_index < total_questions").
		Exec(ctx)
	if err != nil {
		return domain.SessionProgress{}, fmt.Errorf("advance progress: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.SessionProgress{}, fmt.Errorf("advance progress: %w", err)
	}
	if affected == 0 {
		// Diagnose the rejection: missing row, stale token, or exhausted bank.
		progress, err := s.Get(ctx, quizID)
		if err != nil {
			return domain.SessionProgress{}, err
		}
		if progress.CurrentIndex != fromIndex {
			return domain.SessionProgress{}, domain.ErrStaleProgress
		}
		return domain.SessionProgress{}, domain.ErrExhausted
	}
	return s.Get(ctx, quizID)
}

func (s *ProgressStore) MarkStarted(ctx context.Context, quizID string) error {
	res, err := s.db.NewUpdate().
		Model((*sessionProgressRow)(nil)).
		Set("status = ?", string(domain.ProgressInProgress)).
		Where("quiz_instance_id = ?", quizID).
		Where("status = ?", string(domain.ProgressWaiting)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mark started: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark started: %w", err)
	}
	if affected == 0 {
		// Already started, or missing entirely.
		if _, err := s.Get(ctx, quizID); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProgressStore) JoinParticipant(ctx context.Context, quizID string) (int, error) {
	return s.shiftParticipants(ctx, quizID, "participant_count = participant_count + 1")
}

func (s *ProgressStore) LeaveParticipant(ctx context.Context, quizID string) (int, error) {
	return s.shiftParticipants(ctx, quizID, "participant_count = GREATEST(participant_count - 1, 0)")
}

func (s *ProgressStore) shiftParticipants(ctx context.Context, quizID, expr string) (int, error) {
	var count int
	err := s.db.NewUpdate().
		Model((*sessionProgressRow)(nil)).
		Set(expr).
		Where("quiz_instance_id = ?", quizID).
		Returning("participant_count").
		Scan(ctx, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrProgressNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("update participants: %w", err)
	}
	return count, nil
}

func progressFromRow(row sessionProgressRow) domain.SessionProgress {
	return domain.SessionProgress{
		QuizInstanceID:   row.QuizInstanceID,
		Status:           domain.ProgressStatus(row.Status),
		CurrentIndex:     row.CurrentIndex,
		TotalQuestions:   row.TotalQuestions,
		ParticipantCount: row.ParticipantCount,
	}
}
