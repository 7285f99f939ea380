package postgres

import (
	"time"

	"github.com/uptrace/bun"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID          string `bun:"id,pk"`
	DisplayName string `bun:"display_name"`
}

type subjectRow struct {
	bun.BaseModel `bun:"table:subjects,alias:sub"`

	ID     string `bun:"id,pk"`
	UserID string `bun:"user_id"`
	Name   string `bun:"name"`
}

type quizInstanceRow struct {
	bun.BaseModel `bun:"table:quiz_instances,alias:qi"`

	ID          string    `bun:"id,pk"`
	OwnerUserID string    `bun:"owner_user_id,notnull"`
	SubjectID   string    `bun:"subject_id,notnull"`
	BankDoc     []byte    `bun:"bank,type:jsonb,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

type sessionProgressRow struct {
	bun.BaseModel `bun:"table:session_progress,alias:sp"`

	QuizInstanceID   string `bun:"quiz_instance_id,pk"`
	Status           string `bun:"status,notnull"`
	CurrentIndex     int    `bun:"current_index"`
	TotalQuestions   int    `bun:"total_questions,notnull"`
	ParticipantCount int    `bun:"participant_count"`
}

type answerRecordRow struct {
	bun.BaseModel `bun:"table:answer_records,alias:ar"`

	ID              string    `bun:"id,pk"`
	QuizInstanceID  string    `bun:"quiz_instance_id,notnull"`
	QuestionOrdinal int       `bun:"question_ordinal"`
	SelectedIndex   int       `bun:"selected_index"`
	CorrectIndex    int       `bun:"correct_index"`
	IsCorrect       bool      `bun:"is_correct"`
	Keyword         string    `bun:"keyword"`
	AnsweredAt      time.Time `bun:"answered_at,notnull"`
}

type quizResultRow struct {
	bun.BaseModel `bun:"table:quiz_results,alias:qr"`

	QuizInstanceID string     `bun:"quiz_instance_id,pk"`
	TotalQuestions int        `bun:"total_questions"`
	CorrectCount   int        `bun:"correct_count"`
	WrongCount     int        `bun:"wrong_count"`
	Score          int        `bun:"score"`
	ElapsedMinutes int        `bun:"elapsed_minutes"`
	StartedAt      time.Time  `bun:"started_at,notnull"`
	CompletedAt    *time.Time `bun:"completed_at"`
	Status         string     `bun:"status,notnull"`
}

type wrongAnswerNoteRow struct {
	bun.BaseModel `bun:"table:wrong_answer_notes,alias:wan"`

	ID             string     `bun:"id,pk"`
	UserID         string     `bun:"user_id,notnull"`
	SubjectID      string     `bun:"subject_id,notnull"`
	SourceAnswerID string     `bun:"source_answer_id,notnull"`
	QuestionText   string     `bun:"question_text,notnull"`
	OptionsDoc     []byte     `bun:"options,type:jsonb,notnull"`
	CorrectIndex   int        `bun:"correct_index"`
	UserWrongIndex int        `bun:"user_wrong_index"`
	Explanation    string     `bun:"explanation"`
	Keyword        string     `bun:"keyword"`
	ReviewCount    int        `bun:"review_count"`
	IsMastered     bool       `bun:"is_mastered"`
	LastReviewedAt *time.Time `bun:"last_reviewed_at"`
	CreatedAt      time.Time  `bun:"created_at,notnull"`
}
