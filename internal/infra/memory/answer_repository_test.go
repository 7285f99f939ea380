package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"studyquiz-service/internal/domain"
)

func TestAnswerCreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	repo := NewAnswerRepository()

	record := domain.AnswerRecord{ID: "a1", QuizInstanceID: "quiz-1", QuestionOrdinal: 0, IsCorrect: true}
	if err := repo.CreateIfAbsent(ctx, record); err != nil {
		t.Fatalf("create: %v", err)
	}

	dup := record
	dup.ID = "a2"
	dup.IsCorrect = false
	if err := repo.CreateIfAbsent(ctx, dup); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}

	records, err := repo.ListByQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].ID != "a1" || !records[0].IsCorrect {
		t.Fatalf("first write must win: %+v", records)
	}
}

func TestAnswerConcurrentSubmissionsSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewAnswerRepository()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		record := domain.AnswerRecord{ID: "a", QuizInstanceID: "quiz-1", QuestionOrdinal: 3}
		wg.Add(1)
		go func(r domain.AnswerRecord) {
			defer wg.Done()
			errs <- repo.CreateIfAbsent(ctx, r)
		}(record)
	}
	wg.Wait()
	close(errs)

	accepted := 0
	for err := range errs {
		if err == nil {
			accepted++
		} else if !errors.Is(err, domain.ErrAlreadyAnswered) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if accepted != 1 {
		t.Fatalf("expected exactly one accepted submission, got %d", accepted)
	}
}

func TestAnswerListIsSortedByOrdinal(t *testing.T) {
	ctx := context.Background()
	repo := NewAnswerRepository()

	for _, ordinal := range []int{2, 0, 1} {
		record := domain.AnswerRecord{
			ID:              "a",
			QuizInstanceID:  "quiz-1",
			QuestionOrdinal: ordinal,
		}
		if err := repo.CreateIfAbsent(ctx, record); err != nil {
			t.Fatalf("create %d: %v", ordinal, err)
		}
	}
	records, err := repo.ListByQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, r := range records {
		if r.QuestionOrdinal != i {
			t.Fatalf("expected ordinal %d at position %d, got %d", i, i, r.QuestionOrdinal)
		}
	}
}
