package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 0001_create_quiz_tables.sql
var createQuizTablesSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createQuizTablesSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`
				DROP TABLE IF EXISTS quiz_results;
				DROP TABLE IF EXISTS answer_records;
				DROP TABLE IF EXISTS session_progress;
				DROP TABLE IF EXISTS quiz_instances;
				DROP TABLE IF EXISTS subjects;
				DROP TABLE IF EXISTS users;
			`)
			return err
		},
	)
}
