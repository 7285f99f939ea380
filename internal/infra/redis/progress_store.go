package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"studyquiz-service/internal/domain"
)

// ProgressStore keeps session progress in a Redis hash per quiz instance.
// Advance runs as a Lua script so the compare-and-swap on current_index is
// atomic across instances of this service.
// Layout: HSET quiz:progress:{quizID} status {s} current {i} total {n} participants {p}
type ProgressStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProgressStore(client *redis.Client, ttl time.Duration) *ProgressStore {
	return &ProgressStore{client: client, ttl: ttl}
}

const (
	codeNotFound  = -2
	codeStale     = -1
	codeExhausted = -3
)

var advanceScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -2 end
local cur = tonumber(redis.call('HGET', KEYS[1], 'current'))
local total = tonumber(redis.call('HGET', KEYS[1], 'total'))
if cur ~= tonumber(ARGV[1]) then return -1 end
if cur >= total then return -3 end
cur = cur + 1
local status = 'in_progress'
if cur >= total then status = 'completed' end
redis.call('HSET', KEYS[1], 'current', cur)
redis.call('HSET', KEYS[1], 'status', status)
return cur
`)

var markStartedScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -2 end
if redis.call('HGET', KEYS[1], 'status') == 'waiting' then
  redis.call('HSET', KEYS[1], 'status', 'in_progress')
end
return 0
`)

var joinScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -2 end
return redis.call('HINCRBY', KEYS[1], 'participants', 1)
`)

var leaveScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -2 end
local p = tonumber(redis.call('HGET', KEYS[1], 'participants'))
if p > 0 then p = p - 1 end
redis.call('HSET', KEYS[1], 'participants', p)
return p
`)

func (s *ProgressStore) Create(ctx context.Context, progress domain.SessionProgress) error {
	key := s.key(progress.QuizInstanceID)
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key,
		"status", string(progress.Status),
		"current", progress.CurrentIndex,
		"total", progress.TotalQuestions,
		"participants", progress.ParticipantCount,
	)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *ProgressStore) Get(ctx context.Context, quizID string) (domain.SessionProgress, error) {
	fields, err := s.client.HGetAll(ctx, s.key(quizID)).Result()
	if err != nil {
		return domain.SessionProgress{}, fmt.Errorf("get progress: %w", err)
	}
	if len(fields) == 0 {
		return domain.SessionProgress{}, domain.ErrProgressNotFound
	}
	return domain.SessionProgress{
		QuizInstanceID:   quizID,
		Status:           domain.ProgressStatus(fields["status"]),
		CurrentIndex:     atoi(fields["current"]),
		TotalQuestions:   atoi(fields["total"]),
		ParticipantCount: atoi(fields["participants"]),
	}, nil
}

func (s *ProgressStore) Advance(ctx context.Context, quizID string, fromIndex int) (domain.SessionProgress, error) {
	res, err := advanceScript.Run(ctx, s.client, []string{s.key(quizID)}, fromIndex).Int()
	if err != nil {
		return domain.SessionProgress{}, fmt.Errorf("advance progress: %w", err)
	}
	switch res {
	case codeNotFound:
		return domain.SessionProgress{}, domain.ErrProgressNotFound
	case codeStale:
		return domain.SessionProgress{}, domain.ErrStaleProgress
	case codeExhausted:
		return domain.SessionProgress{}, domain.ErrExhausted
	}
	return s.Get(ctx, quizID)
}

func (s *ProgressStore) MarkStarted(ctx context.Context, quizID string) error {
	res, err := markStartedScript.Run(ctx, s.client, []string{s.key(quizID)}).Int()
	if err != nil {
		return fmt.Errorf("mark started: %w", err)
	}
	if res == codeNotFound {
		return domain.ErrProgressNotFound
	}
	return nil
}

func (s *ProgressStore) JoinParticipant(ctx context.Context, quizID string) (int, error) {
	res, err := joinScript.Run(ctx, s.client, []string{s.key(quizID)}).Int()
	if err != nil {
		return 0, fmt.Errorf("join participant: %w", err)
	}
	if res == codeNotFound {
		return 0, domain.ErrProgressNotFound
	}
	return res, nil
}

func (s *ProgressStore) LeaveParticipant(ctx context.Context, quizID string) (int, error) {
	res, err := leaveScript.Run(ctx, s.client, []string{s.key(quizID)}).Int()
	if err != nil {
		return 0, fmt.Errorf("leave participant: %w", err)
	}
	if res == codeNotFound {
		return 0, domain.ErrProgressNotFound
	}
	return res, nil
}

func (s *ProgressStore) key(quizID string) string {
	return "quiz:progress:" + quizID
}

func atoi(raw string) int {
	n, _ := strconv.Atoi(raw)
	return n
}
