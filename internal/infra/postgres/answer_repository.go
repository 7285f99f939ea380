package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"studyquiz-service/internal/domain"
)

// AnswerRepository persists answer records. The unique index on
// (quiz_instance_id, question_ordinal) plus ON CONFLICT DO NOTHING gives two
// racing submissions exactly one winner.
type AnswerRepository struct {
	db *bun.DB
}

func NewAnswerRepository(db *bun.DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

func (r *AnswerRepository) CreateIfAbsent(ctx context.Context, record domain.AnswerRecord) error {
	row := answerRecordRow{
		ID:              record.ID,
		QuizInstanceID:  record.QuizInstanceID,
		QuestionOrdinal: record.QuestionOrdinal,
		SelectedIndex:   record.SelectedIndex,
		CorrectIndex:    record.CorrectIndex,
		IsCorrect:       record.IsCorrect,
		Keyword:         record.Keyword,
		AnsweredAt:      record.AnsweredAt,
	}
	res, err := r.db.NewInsert().
		Model(&row).
		On("CONFLICT (quiz_instance_id, question_ordinal) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	if affected == 0 {
		return domain.ErrAlreadyAnswered
	}
	return nil
}

func (r *AnswerRepository) ListByQuiz(ctx context.Context, quizID string) ([]domain.AnswerRecord, error) {
	var rows []answerRecordRow
	err := r.db.NewSelect().
		Model(&rows).
		Where("quiz_instance_id = ?", quizID).
		Order("question_ordinal ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	out := make([]domain.AnswerRecord, len(rows))
	for i, row := range rows {
		out[i] = domain.AnswerRecord{
			ID:              row.ID,
			QuizInstanceID:  row.QuizInstanceID,
			QuestionOrdinal: row.QuestionOrdinal,
			SelectedIndex:   row.SelectedIndex,
			CorrectIndex:    row.CorrectIndex,
			IsCorrect:       row.IsCorrect,
			Keyword:         row.Keyword,
			AnsweredAt:      row.AnsweredAt,
		}
	}
	return out, nil
}
