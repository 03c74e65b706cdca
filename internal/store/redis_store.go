package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const updateRetries = 16

// RedisStore implements DocumentStore on top of a Redis keyspace. Each path maps to
// one key holding a JSON value; change events fan out over a pub/sub channel per path.
type RedisStore struct {
	client   *redis.Client
	base     string
	debounce time.Duration
	logger   zerolog.Logger
}

// NewRedisStore constructs a document store bound to the given channel/key base.
func NewRedisStore(client *redis.Client, base string, logger zerolog.Logger) *RedisStore {
	if base == "" {
		base = "messenger"
	}

	return &RedisStore{
		client: client,
		base:   base,
		logger: logger.With().Str("component", "document_store").Logger(),
	}
}

// WithWatchDebounce sets the quiet window applied after a change event before it is
// delivered, so bursts of writes collapse into one re-read. Zero disables it.
func (s *RedisStore) WithWatchDebounce(d time.Duration) *RedisStore {
	s.debounce = d
	return s
}

func (s *RedisStore) key(path string) string {
	return fmt.Sprintf("%s:doc:%s", s.base, path)
}

func (s *RedisStore) channel(path string) string {
	return fmt.Sprintf("%s:evt:%s", s.base, path)
}

func (s *RedisStore) Get(ctx context.Context, path string, into interface{}) error {
	payload, err := s.client.Get(ctx, s.key(path)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	if err := json.Unmarshal(payload, into); err != nil {
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	return nil
}

func (s *RedisStore) Set(ctx context.Context, path string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	if err := s.client.Set(ctx, s.key(path), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	s.notify(ctx, path)
	return nil
}

func (s *RedisStore) Update(ctx context.Context, path string, transform Transform) error {
	key := s.key(path)

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			raw = nil
		} else if err != nil {
			return fmt.Errorf("%w: %v", ErrFetchFailed, err)
		}

		var current json.RawMessage
		if raw != nil {
			current = json.RawMessage(raw)
		}

		next, err := transform(current)
		if err != nil {
			return err
		}

		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < updateRetries; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			s.notify(ctx, path)
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return fmt.Errorf("update of %s kept conflicting after %d attempts", path, updateRetries)
}

func (s *RedisStore) Delete(ctx context.Context, path string) error {
	if err := s.client.Del(ctx, s.key(path)).Err(); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	s.notify(ctx, path)
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, path string) (bool, error) {
	count, err := s.client.Exists(ctx, s.key(path)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	return count > 0, nil
}

func (s *RedisStore) Watch(ctx context.Context, path string) (<-chan struct{}, error) {
	pubsub := s.client.Subscribe(ctx, s.channel(path))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", path, err)
	}

	events := make(chan struct{}, 1)
	go func() {
		defer close(events)
		defer func() {
			_ = pubsub.Close()
		}()

		channel := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-channel:
				if !ok {
					return
				}
				if s.debounce > 0 {
					timer := time.NewTimer(s.debounce)
				drain:
					for {
						select {
						case <-ctx.Done():
							timer.Stop()
							return
						case _, ok := <-channel:
							if !ok {
								timer.Stop()
								return
							}
						case <-timer.C:
							break drain
						}
					}
				}
				select {
				case events <- struct{}{}:
				default:
					// subscriber is mid re-read, one pending event is enough
				}
			}
		}
	}()

	return events, nil
}

func (s *RedisStore) notify(ctx context.Context, path string) {
	if err := s.client.Publish(ctx, s.channel(path), "updated").Err(); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("failed to publish change event")
	}
}
