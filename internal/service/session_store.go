package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"techlift_backend/internal/quiz"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionStore keeps at most one unfinished quiz session per user and quiz.
type SessionStore interface {
	Get(ctx context.Context, userID, quizID string) (quiz.Snapshot, bool, error)
	Put(ctx context.Context, snap quiz.Snapshot) error
	Delete(ctx context.Context, userID, quizID string) error
}

func sessionKey(userID, quizID string) string {
	return fmt.Sprintf("techlift:quiz_session:%s:%s", userID, quizID)
}

type memoryEntry struct {
	snap      quiz.Snapshot
	expiresAt time.Time
}

type MemorySessionStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemorySessionStore) Get(ctx context.Context, userID, quizID string) (quiz.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey(userID, quizID)
	entry, ok := s.entries[key]
	if !ok {
		return quiz.Snapshot{}, false, nil
	}
	if s.ttl > 0 && s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		return quiz.Snapshot{}, false, nil
	}
	return entry.snap, true, nil
}

func (s *MemorySessionStore) Put(ctx context.Context, snap quiz.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.Answers = append([]int(nil), snap.Answers...)
	s.entries[sessionKey(snap.UserID, snap.QuizID)] = memoryEntry{
		snap:      snap,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, userID, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionKey(userID, quizID))
	return nil
}

// RedisSessionStore shares sessions between instances. The TTL is refreshed on every write.
type RedisSessionStore struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{Redis: rdb, TTL: ttl}
}

func (s *RedisSessionStore) Get(ctx context.Context, userID, quizID string) (quiz.Snapshot, bool, error) {
	val, err := s.Redis.Get(ctx, sessionKey(userID, quizID)).Bytes()
	if err == redis.Nil {
		return quiz.Snapshot{}, false, nil
	}
	if err != nil {
		return quiz.Snapshot{}, false, err
	}

	var snap quiz.Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return quiz.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (s *RedisSessionStore) Put(ctx context.Context, snap quiz.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.Redis.Set(ctx, sessionKey(snap.UserID, snap.QuizID), payload, s.TTL).Err()
}

func (s *RedisSessionStore) Delete(ctx context.Context, userID, quizID string) error {
	return s.Redis.Del(ctx, sessionKey(userID, quizID)).Err()
}
