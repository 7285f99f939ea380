package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"studyquiz-service/internal/domain"
)

// NoteRepository persists wrong-answer notes. The unique index on
// source_answer_id makes miss promotion idempotent at the storage layer.
type NoteRepository struct {
	db *bun.DB
}

func NewNoteRepository(db *bun.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) CreateIfAbsent(ctx context.Context, note domain.WrongAnswerNote) (bool, error) {
	row, err := noteToRow(note)
	if err != nil {
		return false, err
	}
	res, err := r.db.NewInsert().
		Model(&row).
		On("CONFLICT (source_answer_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("insert note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert note: %w", err)
	}
	return affected > 0, nil
}

func (r *NoteRepository) Get(ctx context.Context, noteID string) (domain.WrongAnswerNote, error) {
	var row wrongAnswerNoteRow
	err := r.db.NewSelect().Model(&row).Where("id = ?", noteID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WrongAnswerNote{}, domain.ErrNoteNotFound
	}
	if err != nil {
		return domain.WrongAnswerNote{}, fmt.Errorf("select note: %w", err)
	}
	return noteFromRow(row)
}

func (r *NoteRepository) Update(ctx context.Context, note domain.WrongAnswerNote) error {
	row, err := noteToRow(note)
	if err != nil {
		return err
	}
	res, err := r.db.NewUpdate().Model(&row).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	if affected == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

func (r *NoteRepository) Delete(ctx context.Context, noteID string) error {
	res, err := r.db.NewDelete().
		Model((*wrongAnswerNoteRow)(nil)).
		Where("id = ?", noteID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if affected == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

func (r *NoteRepository) ListByUser(ctx context.Context, userID string) ([]domain.WrongAnswerNote, error) {
	return r.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID)
	})
}

func (r *NoteRepository) ListByUserAndSubject(ctx context.Context, userID, subjectID string) ([]domain.WrongAnswerNote, error) {
	return r.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID).Where("subject_id = ?", subjectID)
	})
}

func (r *NoteRepository) ListNotMastered(ctx context.Context, userID, subjectID string) ([]domain.WrongAnswerNote, error) {
	return r.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.Where("user_id = ?", userID).Where("is_mastered = FALSE")
		if subjectID != "" {
			q = q.Where("subject_id = ?", subjectID)
		}
		return q
	})
}

func (r *NoteRepository) list(ctx context.Context, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]domain.WrongAnswerNote, error) {
	var rows []wrongAnswerNoteRow
	q := r.db.NewSelect().Model(&rows).Order("created_at DESC").Order("id DESC")
	if err := filter(q).Scan(ctx); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	out := make([]domain.WrongAnswerNote, 0, len(rows))
	for _, row := range rows {
		note, err := noteFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, note)
	}
	return out, nil
}

func noteToRow(note domain.WrongAnswerNote) (wrongAnswerNoteRow, error) {
	options, err := json.Marshal(note.Options)
	if err != nil {
		return wrongAnswerNoteRow{}, fmt.Errorf("encode note options: %w", err)
	}
	return wrongAnswerNoteRow{
		ID:             note.ID,
		UserID:         note.UserID,
		SubjectID:      note.SubjectID,
		SourceAnswerID: note.SourceAnswerID,
		QuestionText:   note.QuestionText,
		OptionsDoc:     options,
		CorrectIndex:   note.CorrectIndex,
		UserWrongIndex: note.UserWrongIndex,
		Explanation:    note.Explanation,
		Keyword:        note.Keyword,
		ReviewCount:    note.ReviewCount,
		IsMastered:     note.IsMastered,
		LastReviewedAt: note.LastReviewedAt,
		CreatedAt:      note.CreatedAt,
	}, nil
}

func noteFromRow(row wrongAnswerNoteRow) (domain.WrongAnswerNote, error) {
	var options []string
	if err := json.Unmarshal(row.OptionsDoc, &options); err != nil {
		return domain.WrongAnswerNote{}, fmt.Errorf("decode note options: %w", err)
	}
	return domain.WrongAnswerNote{
		ID:             row.ID,
		UserID:         row.UserID,
		SubjectID:      row.SubjectID,
		SourceAnswerID: row.SourceAnswerID,
		QuestionText:   row.QuestionText,
		Options:        options,
		CorrectIndex:   row.CorrectIndex,
		UserWrongIndex: row.UserWrongIndex,
		Explanation:    row.Explanation,
		Keyword:        row.Keyword,
		ReviewCount:    row.ReviewCount,
		IsMastered:     row.IsMastered,
		LastReviewedAt: row.LastReviewedAt,
		CreatedAt:      row.CreatedAt,
	}, nil
}
