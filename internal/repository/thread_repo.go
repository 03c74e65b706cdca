package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/messenger-go-api/internal/codec"
	"github.com/noah-isme/messenger-go-api/internal/models"
	"github.com/noah-isme/messenger-go-api/internal/store"
)

func threadPath(conversationID string) string {
	return conversationID + "/messages"
}

// ThreadRepository owns the ordered message lists keyed by conversation id.
// List order is append order is chronological order; individual messages are never
// reordered or removed.
type ThreadRepository interface {
	// Create writes a brand-new single-element thread. The orchestrator guarantees
	// it runs at most once per conversation id.
	Create(ctx context.Context, conversationID string, first models.MessageRecord) error
	// Append adds a record to an existing thread atomically. Appending to a thread
	// that was never created fails with ErrThreadNotFound.
	Append(ctx context.Context, conversationID string, record models.MessageRecord) error
	// List decodes the thread's records, silently dropping any that fail validation.
	List(ctx context.Context, conversationID string) ([]models.Message, error)
	// Watch streams decoded thread snapshots: one immediately, then one per
	// committed change, until ctx is done.
	Watch(ctx context.Context, conversationID string) (<-chan []models.Message, error)
}

type threadRepository struct {
	store  store.DocumentStore
	logger zerolog.Logger
}

// NewThreadRepository constructs a thread repository backed by the document store.
func NewThreadRepository(documents store.DocumentStore, logger zerolog.Logger) ThreadRepository {
	return &threadRepository{
		store:  documents,
		logger: logger.With().Str("component", "thread_repository").Logger(),
	}
}

func (r *threadRepository) Create(ctx context.Context, conversationID string, first models.MessageRecord) error {
	if err := r.store.Set(ctx, threadPath(conversationID), []models.MessageRecord{first}); err != nil {
		return fmt.Errorf("failed to create thread %s: %w", conversationID, err)
	}

	return nil
}

func (r *threadRepository) Append(ctx context.Context, conversationID string, record models.MessageRecord) error {
	err := r.store.Update(ctx, threadPath(conversationID), func(raw json.RawMessage) (interface{}, error) {
		if raw == nil {
			return nil, ErrThreadNotFound
		}

		var records []models.MessageRecord
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrFetchFailed, err)
		}

		return append(records, record), nil
	})
	if err != nil {
		if errors.Is(err, ErrThreadNotFound) {
			return ErrThreadNotFound
		}
		return fmt.Errorf("failed to append to thread %s: %w", conversationID, err)
	}

	return nil
}

func (r *threadRepository) List(ctx context.Context, conversationID string) ([]models.Message, error) {
	var records []models.MessageRecord
	err := r.store.Get(ctx, threadPath(conversationID), &records)
	if errors.Is(err, store.ErrNotFound) {
		return nil, store.ErrFetchFailed
	}
	if err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, len(records))
	for _, record := range records {
		message, err := codec.DecodeRecord(record)
		if err != nil {
			// degrade gracefully: one bad record must not fail the whole thread
			r.logger.Warn().Err(err).Str("conversation_id", conversationID).Str("message_id", record.ID).Msg("dropping undecodable message record")
			continue
		}
		messages = append(messages, message)
	}

	return messages, nil
}

func (r *threadRepository) Watch(ctx context.Context, conversationID string) (<-chan []models.Message, error) {
	events, err := r.store.Watch(ctx, threadPath(conversationID))
	if err != nil {
		return nil, err
	}

	updates := make(chan []models.Message, 1)
	go func() {
		defer close(updates)

		emit := func() {
			messages, err := r.List(ctx, conversationID)
			if err != nil {
				r.logger.Debug().Err(err).Str("conversation_id", conversationID).Msg("skipping thread snapshot")
				return
			}
			select {
			case updates <- messages:
			case <-ctx.Done():
			}
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				emit()
			}
		}
	}()

	return updates, nil
}
