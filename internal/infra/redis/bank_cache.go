package redis

import (
	"context"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"studyquiz-service/internal/app"
	"studyquiz-service/internal/bank"
	"studyquiz-service/internal/domain"
)

// BankCache caches quiz instances in Redis (hash per quiz) in front of a
// slower repository. The bank travels as its codec document, so a cached
// instance decodes through the same validation as a stored one.
// Layout: HSET quiz:{quizID} owner {user} subject {subject} created {rfc3339} bank {document}
type BankCache struct {
	client *redis.Client
	inner  app.QuizRepository
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewBankCache(client *redis.Client, inner app.QuizRepository, ttl time.Duration) *BankCache {
	return &BankCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *BankCache) Create(ctx context.Context, quiz domain.QuizInstance) error {
	if err := c.inner.Create(ctx, quiz); err != nil {
		return err
	}
	// Best-effort warm fill; the read path repopulates on miss anyway.
	_ = c.fill(ctx, quiz)
	return nil
}

func (c *BankCache) Get(ctx context.Context, quizID string) (domain.QuizInstance, error) {
	key := c.key(quizID)

	fields, err := c.client.HGetAll(ctx, key).Result()
	if err == nil && len(fields) > 0 {
		if quiz, ok := quizFromCache(quizID, fields); ok {
			return quiz, nil
		}
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		fields, err := c.client.HGetAll(ctx, key).Result()
		if err == nil && len(fields) > 0 {
			if quiz, ok := quizFromCache(quizID, fields); ok {
				return quiz, nil
			}
		}

		quiz, err := c.inner.Get(ctx, quizID)
		if err != nil {
			return domain.QuizInstance{}, err
		}
		_ = c.fill(ctx, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.QuizInstance{}, err
	}
	return result.(domain.QuizInstance), nil
}

func (c *BankCache) fill(ctx context.Context, quiz domain.QuizInstance) error {
	doc, err := bank.Encode(quiz.Bank)
	if err != nil {
		return err
	}
	key := c.key(quiz.ID)
	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key,
		"owner", quiz.OwnerUserID,
		"subject", quiz.SubjectID,
		"created", quiz.CreatedAt.Format(time.RFC3339Nano),
		"bank", string(doc),
	)
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttlWithJitter())
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (c *BankCache) key(quizID string) string {
	return "quiz:" + quizID
}

func quizFromCache(quizID string, fields map[string]string) (domain.QuizInstance, bool) {
	doc, ok := fields["bank"]
	if !ok {
		return domain.QuizInstance{}, false
	}
	questions, err := bank.Decode([]byte(doc))
	if err != nil {
		// A corrupted cache entry falls through to the backing store.
		return domain.QuizInstance{}, false
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created"])
	if err != nil {
		return domain.QuizInstance{}, false
	}
	return domain.QuizInstance{
		ID:          quizID,
		OwnerUserID: fields["owner"],
		SubjectID:   fields["subject"],
		Bank:        questions,
		CreatedAt:   createdAt,
	}, true
}

func (c *BankCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
