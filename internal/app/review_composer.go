package app

import (
	"context"

	"studyquiz-service/internal/domain"
)

// reviewTimeLimitSeconds gives review questions more time than first-pass
// questions.
const reviewTimeLimitSeconds = 60

const reviewDifficulty = "review"

// QuizCreator stores a composed bank as a new quiz instance.
type QuizCreator interface {
	CreateQuiz(ctx context.Context, ownerUserID, subjectID string, questions []domain.Question) (string, error)
}

// ReviewComposer assembles fresh quiz instances out of not-yet-mastered
// notes. The resulting instance re-enters the normal session pipeline.
type ReviewComposer struct {
	notes   NoteRepository
	quizzes QuizCreator
}

func NewReviewComposer(notes NoteRepository, quizzes QuizCreator) *ReviewComposer {
	return &ReviewComposer{notes: notes, quizzes: quizzes}
}

// ComposeReview selects up to maxQuestions unmastered notes for the user and
// subject, newest mistakes first, and stores them as a self-contained review
// quiz. An empty selection is a terminal state, not a retryable failure.
func (c *ReviewComposer) ComposeReview(ctx context.Context, userID, subjectID string, maxQuestions int) (string, error) {
	notes, err := c.notes.ListNotMastered(ctx, userID, subjectID)
	if err != nil {
		return "", err
	}
	if len(notes) == 0 {
		return "", domain.ErrNoReviewNeeded
	}
	if maxQuestions > 0 && len(notes) > maxQuestions {
		notes = notes[:maxQuestions]
	}

	questions := make([]domain.Question, len(notes))
	for i, note := range notes {
		questions[i] = domain.Question{
			Ordinal:          i,
			Text:             note.QuestionText,
			Options:          append([]string(nil), note.Options...),
			CorrectIndex:     note.CorrectIndex,
			Explanation:      note.Explanation,
			Keyword:          note.Keyword,
			Difficulty:       reviewDifficulty,
			TimeLimitSeconds: reviewTimeLimitSeconds,
		}
	}
	return c.quizzes.CreateQuiz(ctx, userID, subjectID, questions)
}
