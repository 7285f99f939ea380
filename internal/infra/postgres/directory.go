package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Directory resolves users and subjects against the platform tables.
type Directory struct {
	db *bun.DB
}

func NewDirectory(db *bun.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) UserExists(ctx context.Context, userID string) (bool, error) {
	exists, err := d.db.NewSelect().
		Model((*userRow)(nil)).
		Where("id = ?", userID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return exists, nil
}

func (d *Directory) SubjectExists(ctx context.Context, subjectID string) (bool, error) {
	exists, err := d.db.NewSelect().
		Model((*subjectRow)(nil)).
		Where("id = ?", subjectID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check subject: %w", err)
	}
	return exists, nil
}
