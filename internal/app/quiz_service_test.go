package app_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"studyquiz-service/internal/app"
	"studyquiz-service/internal/domain"
	"studyquiz-service/internal/infra/memory"
)

func TestGradingAndScoring(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	quizID := env.createQuiz(t, threeQuestionBank())

	// Correct indices are [0,1,2]; answer right, wrong, right.
	grade, err := env.service.SubmitAnswer(ctx, quizID, 0, 0)
	if err != nil {
		t.Fatalf("submit 0: %v", err)
	}
	if !grade.IsCorrect || grade.CorrectIndex != 0 {
		t.Fatalf("expected correct grade, got %+v", grade)
	}
	grade, err = env.service.SubmitAnswer(ctx, quizID, 1, 2)
	if err != nil {
		t.Fatalf("submit 1: %v", err)
	}
	if grade.IsCorrect {
		t.Fatalf("expected wrong grade for option 2, got %+v", grade)
	}
	if grade.Explanation == "" || grade.Keyword == "" {
		t.Fatalf("grade should carry explanation and keyword: %+v", grade)
	}
	if _, err := env.service.SubmitAnswer(ctx, quizID, 2, 2); err != nil {
		t.Fatalf("submit 2: %v", err)
	}

	result, err := env.service.CompleteQuiz(ctx, quizID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if result.CorrectCount != 2 || result.WrongCount != 1 || result.Score != 67 {
		t.Fatalf("expected 2/1/67, got %+v", result)
	}
	if result.TotalQuestions != 3 || result.Status != domain.ResultCompleted {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCompleteQuizIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	quizID := env.createQuiz(t, threeQuestionBank())

	if _, err := env.service.SubmitAnswer(ctx, quizID, 0, 1); err != nil {
		t.Fatalf("submit: %v", err)
	}

	first, err := env.service.CompleteQuiz(ctx, quizID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	second, err := env.service.CompleteQuiz(ctx, quizID)
	if err != nil {
		t.Fatalf("complete again: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("completion not idempotent:\n first  %+v\n second %+v", first, second)
	}
}

func TestCompleteQuizWithoutAnswers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	quizID := env.createQuiz(t, threeQuestionBank())

	if _, err := env.service.CompleteQuiz(ctx, quizID); !errors.Is(err, domain.ErrNoAnswersSubmitted) {
		t.Fatalf("expected ErrNoAnswersSubmitted, got %v", err)
	}
}

func TestPartialCompletionCountsOnlyAnswers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	quizID := env.createQuiz(t, threeQuestionBank())

	if _, err := env.service.SubmitAnswer(ctx, quizID, 0, 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	result, err := env.service.AbandonQuiz(ctx, quizID)
	if err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if result.TotalQuestions != 1 || result.Score != 100 || result.Status != domain.ResultAbandoned {
		t.Fatalf("abandoned result must reflect answered count only, got %+v", result)
	}
}

func TestInvalidSelectionPersistsNothing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	quizID := env.createQuiz(t, threeQuestionBank())

	// Option 5 of a 4-option question.
	if _, err := env.service.SubmitAnswer(ctx, quizID, 0, 5); !errors.Is(err, domain.ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection, got %v", err)
	}
	if _, err := env.service.SubmitAnswer(ctx, quizID, 7, 0); !errors.Is(err, domain.ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection for bad ordinal, got %v", err)
	}
	if _, err := env.service.CompleteQuiz(ctx, quizID); !errors.Is(err, domain.ErrNoAnswersSubmitted) {
		t.Fatalf("rejected submission must not create records, got %v", err)
	}
}

func TestDuplicateSubmissionRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	quizID := env.createQuiz(t, threeQuestionBank())

	if _, err := env.service.SubmitAnswer(ctx, quizID, 1, 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := env.service.SubmitAnswer(ctx, quizID, 1, 1); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}

	// The aggregate reflects only the first submission (wrong answer).
	result, err := env.service.CompleteQuiz(ctx, quizID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if result.TotalQuestions != 1 || result.CorrectCount != 0 || result.WrongCount != 1 {
		t.Fatalf("duplicate leaked into aggregate: %+v", result)
	}
}

func TestAdvanceTokensAndMonotonicity(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	quizID := env.createQuiz(t, threeQuestionBank())

	current, err := env.service.CurrentQuestion(ctx, quizID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.Position != 1 || current.Total != 3 || current.Index != 0 {
		t.Fatalf("unexpected starting position: %+v", current)
	}

	newIndex, err := env.service.Advance(ctx, quizID, current.Index)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if newIndex != 1 {
		t.Fatalf("expected index 1, got %d", newIndex)
	}

	// A doubled click retries with the old token and must not skip.
	if _, err := env.service.Advance(ctx, quizID, 0); !errors.Is(err, domain.ErrStaleProgress) {
		t.Fatalf("expected ErrStaleProgress, got %v", err)
	}

	if _, err := env.service.Advance(ctx, quizID, 1); err != nil {
		t.Fatalf("advance 2: %v", err)
	}
	last, err := env.service.Advance(ctx, quizID, 2)
	if err != nil {
		t.Fatalf("advance 3: %v", err)
	}
	if last != 3 {
		t.Fatalf("expected exhausted index 3, got %d", last)
	}

	if _, err := env.service.CurrentQuestion(ctx, quizID); !errors.Is(err, domain.ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	progress, err := env.progress.Get(ctx, quizID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if progress.Status != domain.ProgressCompleted {
		t.Fatalf("expected completed status, got %+v", progress)
	}
}

func TestCreateQuizValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if _, err := env.service.CreateQuiz(ctx, "ghost", "s1", threeQuestionBank()); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := env.service.CreateQuiz(ctx, "u1", "ghost", threeQuestionBank()); !errors.Is(err, domain.ErrSubjectNotFound) {
		t.Fatalf("expected ErrSubjectNotFound, got %v", err)
	}

	bad := threeQuestionBank()
	bad[0].CorrectIndex = 9
	if _, err := env.service.CreateQuiz(ctx, "u1", "s1", bad); !errors.Is(err, domain.ErrMalformedBank) {
		t.Fatalf("expected ErrMalformedBank, got %v", err)
	}

	if _, err := env.service.SubmitAnswer(ctx, "missing-quiz", 0, 0); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestMissesPromoteToNotebookOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	quizID := env.createQuiz(t, threeQuestionBank())

	if _, err := env.service.SubmitAnswer(ctx, quizID, 0, 1); err != nil {
		t.Fatalf("submit wrong: %v", err)
	}
	if _, err := env.service.SubmitAnswer(ctx, quizID, 1, 1); err != nil {
		t.Fatalf("submit right: %v", err)
	}

	notes, err := env.notebook.WrongAnswers(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("expected exactly one note, got %d", len(notes))
	}
	note := notes[0]
	if note.QuestionText == "" || note.UserWrongIndex != 1 || note.CorrectIndex != 0 {
		t.Fatalf("note snapshot incomplete: %+v", note)
	}
}

type testEnv struct {
	service  *app.QuizService
	notebook *app.NotebookService
	progress app.ProgressStore
	notes    app.NoteRepository
	clock    *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	notes := memory.NewNoteRepository()
	notebook := app.NewNotebookService(notes).WithClock(clock.Now)
	progress := memory.NewProgressStore()
	service := app.NewQuizService(
		memory.NewQuizRepository(),
		progress,
		memory.NewAnswerRepository(),
		memory.NewResultRepository(),
		memory.NewDirectory([]string{"u1"}, []string{"s1"}),
		notebook,
	).WithClock(clock.Now)
	return &testEnv{service: service, notebook: notebook, progress: progress, notes: notes, clock: clock}
}

func (e *testEnv) createQuiz(t *testing.T, questions []domain.Question) string {
	t.Helper()
	id, err := e.service.CreateQuiz(context.Background(), "u1", "s1", questions)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	return id
}

// fakeClock ticks forward one second per observation so timestamps stay
// distinct and deterministic.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func threeQuestionBank() []domain.Question {
	return []domain.Question{
		{
			Ordinal:          0,
			Text:             "Which HTTP method is idempotent by definition?",
			Options:          []string{"PUT", "POST", "PATCH", "CONNECT"},
			CorrectIndex:     0,
			Explanation:      "PUT replaces the full resource, so repeats are safe.",
			Keyword:          "http-methods",
			TimeLimitSeconds: 30,
		},
		{
			Ordinal:          1,
			Text:             "Which status code means 'created'?",
			Options:          []string{"200", "201", "204", "301"},
			CorrectIndex:     1,
			Explanation:      "201 Created signals a new resource.",
			Keyword:          "status-codes",
			TimeLimitSeconds: 30,
		},
		{
			Ordinal:          2,
			Text:             "Which header carries content negotiation preferences?",
			Options:          []string{"Authorization", "Host", "Accept", "ETag"},
			CorrectIndex:     2,
			Explanation:      "Accept lists the media types the client understands.",
			Keyword:          "headers",
			TimeLimitSeconds: 30,
		},
	}
}
