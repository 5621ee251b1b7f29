// Package redisstore keeps answer sheets in Redis, optionally expiring idle
// sessions.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-scannergen/pkg/model"
	"github.com/goliatone/go-scannergen/pkg/store"
)

// DefaultPrefix namespaces answer keys.
const DefaultPrefix = "scannergen:answers:"

// Client is the subset of the go-redis API the store needs. *redis.Client
// satisfies it.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Watcher is the optimistic-locking part of *redis.Client. Clients without it
// fall back to a plain load and save in UpdateAnswers.
type Watcher interface {
	Watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error
}

// maxUpdateAttempts bounds WATCH retries when other writers keep winning.
const maxUpdateAttempts = 10

// ErrContention is returned when UpdateAnswers gives up retrying.
var ErrContention = errors.New("redisstore: too many concurrent updates")

// Option configures the store.
type Option func(*AnswerStore)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *AnswerStore) {
		s.prefix = prefix
	}
}

// WithTTL expires a session this long after its last save. Zero keeps
// sessions forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *AnswerStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// AnswerStore implements store.AnswerStore.
type AnswerStore struct {
	client Client
	prefix string
	ttl    time.Duration
}

var (
	_ store.AnswerStore   = (*AnswerStore)(nil)
	_ store.AnswerUpdater = (*AnswerStore)(nil)
)

// New wraps client.
func New(client Client, opts ...Option) (*AnswerStore, error) {
	if client == nil {
		return nil, errors.New("redisstore: client is nil")
	}
	s := &AnswerStore{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, errors.New("redisstore: address is required")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redisstore: ping: %w", err)
	}
	return rdb, nil
}

func (s *AnswerStore) key(session string) string {
	return s.prefix + session
}

func (s *AnswerStore) LoadAnswers(ctx context.Context, session string) (model.Answers, error) {
	if err := store.ValidSession(session); err != nil {
		return nil, err
	}
	raw, err := s.client.Get(ctx, s.key(session)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: get %s: %w", session, err)
	}
	return decodeAnswers(session, raw)
}

func (s *AnswerStore) SaveAnswers(ctx context.Context, session string, answers model.Answers) error {
	if err := store.ValidSession(session); err != nil {
		return err
	}
	payload, err := encodeAnswers(answers)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(session), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: set %s: %w", session, err)
	}
	return nil
}

// UpdateAnswers applies fn under WATCH so a write from another process
// between the read and the write aborts the transaction and fn runs again.
func (s *AnswerStore) UpdateAnswers(ctx context.Context, session string, fn store.UpdateFunc) (model.Answers, error) {
	if err := store.ValidSession(session); err != nil {
		return nil, err
	}
	watcher, ok := s.client.(Watcher)
	if !ok {
		current, err := s.LoadAnswers(ctx, session)
		if err != nil {
			return nil, err
		}
		next, err := fn(current)
		if err != nil {
			return nil, err
		}
		if err := s.SaveAnswers(ctx, session, next); err != nil {
			return nil, err
		}
		return next, nil
	}

	key := s.key(session)
	var updated model.Answers
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("redisstore: get %s: %w", session, err)
		}
		var current model.Answers
		if err == nil {
			if current, err = decodeAnswers(session, raw); err != nil {
				return err
			}
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		payload, err := encodeAnswers(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		if err == nil {
			updated = next
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := watcher.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("%w: session %s", ErrContention, session)
}

func decodeAnswers(session string, raw []byte) (model.Answers, error) {
	var pairs []model.Answer
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf("redisstore: decode %s: %w", session, err)
	}
	return model.NewAnswers(pairs...), nil
}

func encodeAnswers(answers model.Answers) ([]byte, error) {
	pairs := []model.Answer(answers)
	if pairs == nil {
		pairs = []model.Answer{}
	}
	payload, err := json.Marshal(pairs)
	if err != nil {
		return nil, fmt.Errorf("redisstore: encode answers: %w", err)
	}
	return payload, nil
}

func (s *AnswerStore) ClearAnswers(ctx context.Context, session string) error {
	if err := s.client.Del(ctx, s.key(session)).Err(); err != nil {
		return fmt.Errorf("redisstore: del %s: %w", session, err)
	}
	return nil
}
