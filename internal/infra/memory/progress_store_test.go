package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"studyquiz-service/internal/domain"
)

func TestProgressAdvanceIsCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()

	if err := store.Create(ctx, domain.SessionProgress{
		QuizInstanceID: "quiz-1",
		Status:         domain.ProgressWaiting,
		TotalQuestions: 3,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	progress, err := store.Advance(ctx, "quiz-1", 0)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if progress.CurrentIndex != 1 || progress.Status != domain.ProgressInProgress {
		t.Fatalf("unexpected progress: %+v", progress)
	}

	if _, err := store.Advance(ctx, "quiz-1", 0); !errors.Is(err, domain.ErrStaleProgress) {
		t.Fatalf("expected stale rejection, got %v", err)
	}
}

func TestProgressNeverDecreasesUnderConcurrentAdvances(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()

	if err := store.Create(ctx, domain.SessionProgress{
		QuizInstanceID: "quiz-1",
		Status:         domain.ProgressWaiting,
		TotalQuestions: 1,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Many goroutines race the same token; exactly one may win.
	var wg sync.WaitGroup
	wins := make(chan struct{}, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Advance(ctx, "quiz-1", 0); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for range wins {
		won++
	}
	if won != 1 {
		t.Fatalf("expected exactly one winning advance, got %d", won)
	}
	progress, err := store.Get(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if progress.CurrentIndex != 1 || progress.Status != domain.ProgressCompleted {
		t.Fatalf("unexpected final progress: %+v", progress)
	}
}

func TestProgressParticipantsFloorAtZero(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()

	if err := store.Create(ctx, domain.SessionProgress{QuizInstanceID: "quiz-1", TotalQuestions: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if n, err := store.JoinParticipant(ctx, "quiz-1"); err != nil || n != 1 {
		t.Fatalf("join: n=%d err=%v", n, err)
	}
	if n, err := store.LeaveParticipant(ctx, "quiz-1"); err != nil || n != 0 {
		t.Fatalf("leave: n=%d err=%v", n, err)
	}
	if n, err := store.LeaveParticipant(ctx, "quiz-1"); err != nil || n != 0 {
		t.Fatalf("leave twice: n=%d err=%v", n, err)
	}
}
