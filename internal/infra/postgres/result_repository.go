package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"studyquiz-service/internal/domain"
)

// ResultRepository persists the per-instance aggregate.
type ResultRepository struct {
	db *bun.DB
}

func NewResultRepository(db *bun.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) CreateIfAbsent(ctx context.Context, result domain.QuizResult) (domain.QuizResult, error) {
	row := resultToRow(result)
	if _, err := r.db.NewInsert().
		Model(&row).
		On("CONFLICT (quiz_instance_id) DO NOTHING").
		Exec(ctx); err != nil {
		return domain.QuizResult{}, fmt.Errorf("insert result: %w", err)
	}
	stored, found, err := r.Get(ctx, result.QuizInstanceID)
	if err != nil {
		return domain.QuizResult{}, err
	}
	if !found {
		return domain.QuizResult{}, fmt.Errorf("result vanished after insert for quiz %s", result.QuizInstanceID)
	}
	return stored, nil
}

func (r *ResultRepository) Get(ctx context.Context, quizID string) (domain.QuizResult, bool, error) {
	var row quizResultRow
	err := r.db.NewSelect().Model(&row).Where("quiz_instance_id = ?", quizID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizResult{}, false, nil
	}
	if err != nil {
		return domain.QuizResult{}, false, fmt.Errorf("select result: %w", err)
	}
	return resultFromRow(row), true, nil
}

func (r *ResultRepository) Save(ctx context.Context, result domain.QuizResult) error {
	row := resultToRow(result)
	if _, err := r.db.NewUpdate().Model(&row).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("update result: %w", err)
	}
	return nil
}

func resultToRow(result domain.QuizResult) quizResultRow {
	return quizResultRow{
		QuizInstanceID: result.QuizInstanceID,
		TotalQuestions: result.TotalQuestions,
		CorrectCount:   result.CorrectCount,
		WrongCount:     result.WrongCount,
		Score:          result.Score,
		ElapsedMinutes: result.ElapsedMinutes,
		StartedAt:      result.StartedAt,
		CompletedAt:    result.CompletedAt,
		Status:         string(result.Status),
	}
}

func resultFromRow(row quizResultRow) domain.QuizResult {
	return domain.QuizResult{
		QuizInstanceID: row.QuizInstanceID,
		TotalQuestions: row.TotalQuestions,
		CorrectCount:   row.CorrectCount,
		WrongCount:     row.WrongCount,
		Score:          row.Score,
		ElapsedMinutes: row.ElapsedMinutes,
		StartedAt:      row.StartedAt,
		CompletedAt:    row.CompletedAt,
		Status:         domain.ResultStatus(row.Status),
	}
}
