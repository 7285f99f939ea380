package domain

import "time"

// Question is a single multiple-choice item inside a bank. Ordinal is the
// zero-based position within the owning bank.
type Question struct {
	Ordinal          int      `json:"ordinal"`
	Text             string   `json:"text"`
	Options          []string `json:"options"`
	CorrectIndex     int      `json:"correctIndex"`
	Explanation      string   `json:"explanation"`
	Keyword          string   `json:"keyword"`
	Difficulty       string   `json:"difficulty,omitempty"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
}

// QuizInstance ties an immutable question bank to its owner. Regeneration
// always creates a new instance; the bank is never edited in place.
type QuizInstance struct {
	ID          string
	OwnerUserID string
	SubjectID   string
	Bank        []Question
	CreatedAt   time.Time
}

// ProgressStatus is the lifecycle of a quiz session.
type ProgressStatus string

const (
	ProgressWaiting    ProgressStatus = "waiting"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
)

// SessionProgress is the mutable pointer into a quiz instance. CurrentIndex
// only ever moves forward, one step per accepted advance.
type SessionProgress struct {
	QuizInstanceID   string
	Status           ProgressStatus
	CurrentIndex     int
	TotalQuestions   int
	ParticipantCount int
}

// Exhausted reports whether every question in the bank has been passed.
func (p SessionProgress) Exhausted() bool {
	return p.CurrentIndex >= p.TotalQuestions
}

// AnswerRecord is one graded submission. At most one exists per
// (QuizInstanceID, QuestionOrdinal) pair.
type AnswerRecord struct {
	ID              string
	QuizInstanceID  string
	QuestionOrdinal int
	SelectedIndex   int
	CorrectIndex    int
	IsCorrect       bool
	Keyword         string
	AnsweredAt      time.Time
}

// GradeResult is what a caller gets back for a submission.
type GradeResult struct {
	IsCorrect    bool   `json:"isCorrect"`
	CorrectIndex int    `json:"correctIndex"`
	Explanation  string `json:"explanation"`
	Keyword      string `json:"keyword"`
}

// ResultStatus is the lifecycle of an aggregated quiz result.
type ResultStatus string

const (
	ResultInProgress ResultStatus = "in_progress"
	ResultCompleted  ResultStatus = "completed"
	ResultAbandoned  ResultStatus = "abandoned"
)

// QuizResult aggregates the answer set of one instance. Counts and score are
// always recomputed from the stored answers, never incremented in place, so
// completing twice yields identical values.
type QuizResult struct {
	QuizInstanceID string       `json:"quizInstanceId"`
	TotalQuestions int          `json:"totalQuestions"`
	CorrectCount   int          `json:"correctCount"`
	WrongCount     int          `json:"wrongCount"`
	Score          int          `json:"score"`
	ElapsedMinutes int          `json:"elapsedMinutes"`
	StartedAt      time.Time    `json:"startedAt"`
	CompletedAt    *time.Time   `json:"completedAt,omitempty"`
	Status         ResultStatus `json:"status"`
}

// WrongAnswerNote is a frozen copy of one missed question. Display fields are
// denormalized from the bank at miss time so later deletions of the answer or
// instance never orphan the note.
type WrongAnswerNote struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	SubjectID      string     `json:"subjectId"`
	SourceAnswerID string     `json:"sourceAnswerId"`
	QuestionText   string     `json:"questionText"`
	Options        []string   `json:"options"`
	CorrectIndex   int        `json:"correctIndex"`
	UserWrongIndex int        `json:"userWrongIndex"`
	Explanation    string     `json:"explanation"`
	Keyword        string     `json:"keyword"`
	ReviewCount    int        `json:"reviewCount"`
	IsMastered     bool       `json:"isMastered"`
	LastReviewedAt *time.Time `json:"lastReviewedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// ReviewOutcome summarizes the state of a note after one review attempt.
type ReviewOutcome struct {
	ReviewCount int  `json:"reviewCount"`
	IsMastered  bool `json:"isMastered"`
}

// KeywordWeakness is one row of the per-keyword weakness breakdown.
type KeywordWeakness struct {
	Keyword       string `json:"keyword"`
	MissCount     int    `json:"missCount"`
	MasteredCount int    `json:"masteredCount"`
}

// CurrentQuestion is the client view of where a session stands. Position is
// 1-based; Index is the token to hand back to Advance.
type CurrentQuestion struct {
	Question Question `json:"question"`
	Position int      `json:"position"`
	Total    int      `json:"total"`
	Index    int      `json:"index"`
}
