package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/uptrace/bun"

	"studyquiz-service/internal/bank"
	"studyquiz-service/internal/domain"
)

// QuizRepository stores quiz instances with the bank as a JSONB codec
// document. Writes go through bun; the hot read path uses the pgx pool
// directly.
type QuizRepository struct {
	db   *bun.DB
	pool *pgxpool.Pool
}

func NewQuizRepository(db *bun.DB, pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{db: db, pool: pool}
}

func (r *QuizRepository) Create(ctx context.Context, quiz domain.QuizInstance) error {
	doc, err := bank.Encode(quiz.Bank)
	if err != nil {
		return err
	}
	row := quizInstanceRow{
		ID:          quiz.ID,
		OwnerUserID: quiz.OwnerUserID,
		SubjectID:   quiz.SubjectID,
		BankDoc:     doc,
		CreatedAt:   quiz.CreatedAt,
	}
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (r *QuizRepository) Get(ctx context.Context, quizID string) (domain.QuizInstance, error) {
	var (
		ownerID   string
		subjectID string
		raw       []byte
		createdAt time.Time
	)
	err := r.pool.QueryRow(ctx,
		`SELECT owner_user_id, subject_id, bank, created_at FROM quiz_instances WHERE id=$1`,
		quizID,
	).Scan(&ownerID, &subjectID, &raw, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizInstance{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizInstance{}, fmt.Errorf("load quiz: %w", err)
	}
	questions, err := bank.Decode(raw)
	if err != nil {
		return domain.QuizInstance{}, err
	}
	return domain.QuizInstance{
		ID:          quizID,
		OwnerUserID: ownerID,
		SubjectID:   subjectID,
		Bank:        questions,
		CreatedAt:   createdAt,
	}, nil
}
