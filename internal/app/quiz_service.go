package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"studyquiz-service/internal/bank"
	"studyquiz-service/internal/domain"
)

// QuizRepository stores quiz instances and their immutable banks.
type QuizRepository interface {
	Create(ctx context.Context, quiz domain.QuizInstance) error
	Get(ctx context.Context, quizID string) (domain.QuizInstance, error)
}

// ProgressStore holds the mutable session pointer per quiz instance. Advance
// must be an atomic compare-and-swap on the current index so concurrent
// advances cannot skip questions.
type ProgressStore interface {
	Create(ctx context.Context, progress domain.SessionProgress) error
	Get(ctx context.Context, quizID string) (domain.SessionProgress, error)
	// Advance moves the pointer from fromIndex to fromIndex+1. A caller whose
	// observed index no longer matches gets domain.ErrStaleProgress.
	Advance(ctx context.Context, quizID string, fromIndex int) (domain.SessionProgress, error)
	// MarkStarted flips Waiting to InProgress; a no-op in any other status.
	MarkStarted(ctx context.Context, quizID string) error
	JoinParticipant(ctx context.Context, quizID string) (int, error)
	LeaveParticipant(ctx context.Context, quizID string) (int, error)
}

// AnswerRepository persists graded submissions with create-if-absent
// atomicity on (quiz instance, ordinal).
type AnswerRepository interface {
	// CreateIfAbsent returns domain.ErrAlreadyAnswered when a record for the
	// same (QuizInstanceID, QuestionOrdinal) already exists.
	CreateIfAbsent(ctx context.Context, record domain.AnswerRecord) error
	// ListByQuiz returns every record for the instance in a single read.
	ListByQuiz(ctx context.Context, quizID string) ([]domain.AnswerRecord, error)
}

// ResultRepository stores the per-instance aggregate.
type ResultRepository interface {
	// CreateIfAbsent persists the result on first answer and returns whichever
	// result is now stored.
	CreateIfAbsent(ctx context.Context, result domain.QuizResult) (domain.QuizResult, error)
	// Get reports found=false when no answer has ever been recorded.
	Get(ctx context.Context, quizID string) (domain.QuizResult, bool, error)
	Save(ctx context.Context, result domain.QuizResult) error
}

// Directory resolves user and subject existence; backed by the surrounding
// platform's user/subject store.
type Directory interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	SubjectExists(ctx context.Context, subjectID string) (bool, error)
}

// MissRecorder receives incorrect answers for notebook promotion. Must be
// idempotent per answer record id.
type MissRecorder interface {
	RecordMiss(ctx context.Context, userID, subjectID string, answer domain.AnswerRecord, question domain.Question) error
}

// QuizService contains the session, grading and scoring use cases.
type QuizService struct {
	quizzes  QuizRepository
	progress ProgressStore
	answers  AnswerRepository
	results  ResultRepository
	dir      Directory
	notebook MissRecorder
	now      func() time.Time
}

func NewQuizService(quizzes QuizRepository, progress ProgressStore, answers AnswerRepository, results ResultRepository, dir Directory, notebook MissRecorder) *QuizService {
	return &QuizService{
		quizzes:  quizzes,
		progress: progress,
		answers:  answers,
		results:  results,
		dir:      dir,
		notebook: notebook,
		now:      time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *QuizService) WithClock(now func() time.Time) *QuizService {
	s.now = now
	return s
}

// CreateQuiz stores an externally generated bank as a new quiz instance and
// seeds its progress record in Waiting.
func (s *QuizService) CreateQuiz(ctx context.Context, ownerUserID, subjectID string, questions []domain.Question) (string, error) {
	ok, err := s.dir.UserExists(ctx, ownerUserID)
	if err != nil {
		return "", fmt.Errorf("resolve user: %w", err)
	}
	if !ok {
		return "", domain.ErrUserNotFound
	}
	ok, err = s.dir.SubjectExists(ctx, subjectID)
	if err != nil {
		return "", fmt.Errorf("resolve subject: %w", err)
	}
	if !ok {
		return "", domain.ErrSubjectNotFound
	}
	if err := bank.Validate(questions); err != nil {
		return "", err
	}

	quiz := domain.QuizInstance{
		ID:          uuid.NewString(),
		OwnerUserID: ownerUserID,
		SubjectID:   subjectID,
		Bank:        questions,
		CreatedAt:   s.now(),
	}
	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return "", fmt.Errorf("store quiz: %w", err)
	}
	if err := s.progress.Create(ctx, domain.SessionProgress{
		QuizInstanceID: quiz.ID,
		Status:         domain.ProgressWaiting,
		CurrentIndex:   0,
		TotalQuestions: len(questions),
	}); err != nil {
		return "", fmt.Errorf("store progress: %w", err)
	}
	return quiz.ID, nil
}

// CurrentQuestion returns the question the session pointer rests on, together
// with its 1-based position and the advance token.
func (s *QuizService) CurrentQuestion(ctx context.Context, quizID string) (domain.CurrentQuestion, error) {
	progress, err := s.progress.Get(ctx, quizID)
	if err != nil {
		return domain.CurrentQuestion{}, err
	}
	if progress.Exhausted() {
		return domain.CurrentQuestion{}, domain.ErrExhausted
	}
	quiz, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return domain.CurrentQuestion{}, err
	}
	return domain.CurrentQuestion{
		Question: quiz.Bank[progress.CurrentIndex],
		Position: progress.CurrentIndex + 1,
		Total:    progress.TotalQuestions,
		Index:    progress.CurrentIndex,
	}, nil
}

// Advance moves the session pointer forward by one. fromIndex is the index
// the caller last observed; it doubles as the idempotency token, so a retried
// or doubled advance returns domain.ErrStaleProgress instead of skipping a
// question.
func (s *QuizService) Advance(ctx context.Context, quizID string, fromIndex int) (int, error) {
	progress, err := s.progress.Advance(ctx, quizID, fromIndex)
	if err != nil {
		return 0, err
	}
	return progress.CurrentIndex, nil
}

// JoinParticipant bumps the session's participant count.
func (s *QuizService) JoinParticipant(ctx context.Context, quizID string) (int, error) {
	return s.progress.JoinParticipant(ctx, quizID)
}

// LeaveParticipant decrements the session's participant count.
func (s *QuizService) LeaveParticipant(ctx context.Context, quizID string) (int, error) {
	return s.progress.LeaveParticipant(ctx, quizID)
}

// SubmitAnswer grades one submission against the bank, persists the answer
// record, and promotes misses into the wrong-answer notebook.
func (s *QuizService) SubmitAnswer(ctx context.Context, quizID string, questionOrdinal, selectedIndex int) (domain.GradeResult, error) {
	quiz, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return domain.GradeResult{}, err
	}
	if questionOrdinal < 0 || questionOrdinal >= len(quiz.Bank) {
		return domain.GradeResult{}, fmt.Errorf("%w: ordinal %d of %d questions", domain.ErrInvalidSelection, questionOrdinal, len(quiz.Bank))
	}
	question := quiz.Bank[questionOrdinal]
	if selectedIndex < 0 || selectedIndex >= len(question.Options) {
		return domain.GradeResult{}, fmt.Errorf("%w: option %d of %d", domain.ErrInvalidSelection, selectedIndex, len(question.Options))
	}

	now := s.now()
	record := domain.AnswerRecord{
		ID:              uuid.NewString(),
		QuizInstanceID:  quizID,
		QuestionOrdinal: questionOrdinal,
		SelectedIndex:   selectedIndex,
		CorrectIndex:    question.CorrectIndex,
		IsCorrect:       selectedIndex == question.CorrectIndex,
		Keyword:         question.Keyword,
		AnsweredAt:      now,
	}
	if err := s.answers.CreateIfAbsent(ctx, record); err != nil {
		return domain.GradeResult{}, err
	}

	// First accepted answer starts the clock and the session.
	if _, err := s.results.CreateIfAbsent(ctx, domain.QuizResult{
		QuizInstanceID: quizID,
		StartedAt:      now,
		Status:         domain.ResultInProgress,
	}); err != nil {
		return domain.GradeResult{}, fmt.Errorf("init result: %w", err)
	}
	if err := s.progress.MarkStarted(ctx, quizID); err != nil && !errors.Is(err, domain.ErrProgressNotFound) {
		return domain.GradeResult{}, fmt.Errorf("mark started: %w", err)
	}

	if !record.IsCorrect {
		if err := s.notebook.RecordMiss(ctx, quiz.OwnerUserID, quiz.SubjectID, record, question); err != nil {
			return domain.GradeResult{}, fmt.Errorf("record miss: %w", err)
		}
	}

	return domain.GradeResult{
		IsCorrect:    record.IsCorrect,
		CorrectIndex: question.CorrectIndex,
		Explanation:  question.Explanation,
		Keyword:      question.Keyword,
	}, nil
}

// CompleteQuiz aggregates the instance's answer set into the final result.
// Calling it again on a finished quiz returns the stored values unchanged.
func (s *QuizService) CompleteQuiz(ctx context.Context, quizID string) (domain.QuizResult, error) {
	return s.finish(ctx, quizID, domain.ResultCompleted)
}

// AbandonQuiz closes the quiz early. Counts reflect only what was actually
// answered, never the bank size.
func (s *QuizService) AbandonQuiz(ctx context.Context, quizID string) (domain.QuizResult, error) {
	return s.finish(ctx, quizID, domain.ResultAbandoned)
}

func (s *QuizService) finish(ctx context.Context, quizID string, status domain.ResultStatus) (domain.QuizResult, error) {
	result, found, err := s.results.Get(ctx, quizID)
	if err != nil {
		return domain.QuizResult{}, err
	}
	if !found {
		// No result row means no answer ever arrived.
		return domain.QuizResult{}, domain.ErrNoAnswersSubmitted
	}
	if result.Status != domain.ResultInProgress {
		return result, nil
	}

	records, err := s.answers.ListByQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizResult{}, fmt.Errorf("list answers: %w", err)
	}
	if len(records) == 0 {
		return domain.QuizResult{}, domain.ErrNoAnswersSubmitted
	}

	correct := 0
	for _, r := range records {
		if r.IsCorrect {
			correct++
		}
	}
	completedAt := s.now()
	result.TotalQuestions = len(records)
	result.CorrectCount = correct
	result.WrongCount = len(records) - correct
	result.Score = scoreOf(correct, len(records))
	result.CompletedAt = &completedAt
	result.ElapsedMinutes = int(completedAt.Sub(result.StartedAt) / time.Minute)
	result.Status = status

	if err := s.results.Save(ctx, result); err != nil {
		return domain.QuizResult{}, fmt.Errorf("save result: %w", err)
	}
	return result, nil
}

// scoreOf maps a correct/total ratio onto 0..100, rounding half up.
func scoreOf(correct, total int) int {
	return int(math.Round(100 * float64(correct) / float64(total)))
}
