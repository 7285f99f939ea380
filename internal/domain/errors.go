package domain

import "errors"

var (
	// ErrMalformedBank is returned when a bank document fails validation at
	// decode or creation time. Grading never sees a malformed bank.
	ErrMalformedBank = errors.New("malformed question bank")
	// ErrQuizNotFound indicates the quiz instance does not exist.
	ErrQuizNotFound = errors.New("quiz instance not found")
	// ErrProgressNotFound indicates no progress record exists for the instance.
	ErrProgressNotFound = errors.New("session progress not found")
	// ErrUserNotFound is returned when the owning user cannot be resolved.
	ErrUserNotFound = errors.New("user not found")
	// ErrSubjectNotFound is returned when the subject cannot be resolved.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrNoteNotFound indicates a wrong-answer note lookup miss.
	ErrNoteNotFound = errors.New("wrong answer note not found")
	// ErrInvalidSelection is a caller error: question ordinal or option index
	// out of range. Nothing is recorded.
	ErrInvalidSelection = errors.New("invalid question or option selection")
	// ErrAlreadyAnswered guards grading integrity: one answer per question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrNoAnswersSubmitted means completion was requested before any answer.
	ErrNoAnswersSubmitted = errors.New("no answers submitted")
	// ErrNoReviewNeeded means the user has no unmastered notes to review.
	// A terminal state, not a failure to retry.
	ErrNoReviewNeeded = errors.New("no review needed")
	// ErrExhausted means the progress pointer has passed the last question.
	ErrExhausted = errors.New("question bank exhausted")
	// ErrStaleProgress rejects an advance carrying an outdated index token.
	ErrStaleProgress = errors.New("stale progress token")
)
