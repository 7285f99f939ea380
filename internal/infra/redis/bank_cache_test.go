package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"studyquiz-service/internal/domain"
	"studyquiz-service/internal/infra/memory"
)

func TestBankCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	inner := &countingRepo{QuizRepository: memory.NewQuizRepository()}
	cache := NewBankCache(newClient(mr), inner, time.Minute)

	quiz := sampleQuiz("quiz-1")
	if err := cache.Create(context.Background(), quiz); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.Exists("quiz:quiz-1") {
		t.Fatalf("expected cache key after create")
	}

	got, err := cache.Get(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if inner.gets != 0 {
		t.Fatalf("expected warm cache hit, inner gets=%d", inner.gets)
	}
	if len(got.Bank) != len(quiz.Bank) || got.OwnerUserID != quiz.OwnerUserID {
		t.Fatalf("cached quiz mismatch: %+v", got)
	}
}

func TestBankCacheFallsBackToInnerOnMiss(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	inner := &countingRepo{QuizRepository: memory.NewQuizRepository()}
	quiz := sampleQuiz("quiz-2")
	if err := inner.QuizRepository.Create(context.Background(), quiz); err != nil {
		t.Fatalf("seed inner: %v", err)
	}

	cache := NewBankCache(newClient(mr), inner, time.Minute)

	if _, err := cache.Get(context.Background(), "quiz-2"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if inner.gets != 1 {
		t.Fatalf("expected inner hit once, got %d", inner.gets)
	}

	// Second read comes from redis.
	if _, err := cache.Get(context.Background(), "quiz-2"); err != nil {
		t.Fatalf("get 2: %v", err)
	}
	if inner.gets != 1 {
		t.Fatalf("expected cache hit, inner gets=%d", inner.gets)
	}
}

func TestBankCachePropagatesNotFound(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewBankCache(newClient(mr), memory.NewQuizRepository(), time.Minute)
	if _, err := cache.Get(context.Background(), "missing"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

type countingRepo struct {
	*memory.QuizRepository
	gets int
}

func (r *countingRepo) Get(ctx context.Context, quizID string) (domain.QuizInstance, error) {
	r.gets++
	return r.QuizRepository.Get(ctx, quizID)
}

func sampleQuiz(id string) domain.QuizInstance {
	return domain.QuizInstance{
		ID:          id,
		OwnerUserID: "u1",
		SubjectID:   "s1",
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
		Bank: []domain.Question{
			{
				Ordinal:          0,
				Text:             "What is 2 + 2?",
				Options:          []string{"3", "4", "5", "6"},
				CorrectIndex:     1,
				Explanation:      "Basic arithmetic.",
				Keyword:          "arithmetic",
				TimeLimitSeconds: 30,
			},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}
