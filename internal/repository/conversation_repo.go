package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/messenger-go-api/internal/models"
	"github.com/noah-isme/messenger-go-api/internal/store"
)

// errNoWrite aborts an Update transform without treating it as a failure.
var errNoWrite = errors.New("no write required")

func conversationsPath(userKey string) string {
	return userKey + "/conversations"
}

// ConversationRepository owns the per-user conversation summary lists.
type ConversationRepository interface {
	List(ctx context.Context, userKey string) ([]models.ConversationSummary, error)
	// Upsert replaces the latest_message of an existing summary in place, or appends
	// a new summary when the id is absent. A missing list is created lazily; both
	// cases are normal paths, not errors.
	Upsert(ctx context.Context, userKey string, summary models.ConversationSummary) error
	// Delete removes the first summary matching the id. Scanning the whole list
	// without a match is a no-op and reports found=false.
	Delete(ctx context.Context, userKey, conversationID string) (bool, error)
	// Exists scans otherUserKey's list for a summary pointing back at requesterKey
	// and returns the first matching conversation id.
	Exists(ctx context.Context, otherUserKey, requesterKey string) (string, error)
	// Watch streams the user's summary list: one snapshot immediately, then one per
	// committed change, until ctx is done.
	Watch(ctx context.Context, userKey string) (<-chan []models.ConversationSummary, error)
}

type conversationRepository struct {
	store  store.DocumentStore
	logger zerolog.Logger
}

// NewConversationRepository constructs a conversation repository backed by the document store.
func NewConversationRepository(documents store.DocumentStore, logger zerolog.Logger) ConversationRepository {
	return &conversationRepository{
		store:  documents,
		logger: logger.With().Str("component", "conversation_repository").Logger(),
	}
}

func (r *conversationRepository) List(ctx context.Context, userKey string) ([]models.ConversationSummary, error) {
	var summaries []models.ConversationSummary
	err := r.store.Get(ctx, conversationsPath(userKey), &summaries)
	if errors.Is(err, store.ErrNotFound) {
		return nil, store.ErrFetchFailed
	}
	if err != nil {
		return nil, err
	}

	return summaries, nil
}

func (r *conversationRepository) Upsert(ctx context.Context, userKey string, summary models.ConversationSummary) error {
	err := r.store.Update(ctx, conversationsPath(userKey), func(raw json.RawMessage) (interface{}, error) {
		var summaries []models.ConversationSummary
		if raw != nil {
			if err := json.Unmarshal(raw, &summaries); err != nil {
				return nil, fmt.Errorf("%w: %v", store.ErrFetchFailed, err)
			}
		}

		for i := range summaries {
			if summaries[i].ID == summary.ID {
				// update in place, position preserved; only the snapshot moves
				summaries[i].LatestMessage = summary.LatestMessage
				return summaries, nil
			}
		}

		return append(summaries, summary), nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert summary for %s: %w", userKey, err)
	}

	return nil
}

func (r *conversationRepository) Delete(ctx context.Context, userKey, conversationID string) (bool, error) {
	found := false

	err := r.store.Update(ctx, conversationsPath(userKey), func(raw json.RawMessage) (interface{}, error) {
		if raw == nil {
			return nil, errNoWrite
		}

		var summaries []models.ConversationSummary
		if err := json.Unmarshal(raw, &summaries); err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrFetchFailed, err)
		}

		for i := range summaries {
			if summaries[i].ID == conversationID {
				found = true
				return append(summaries[:i], summaries[i+1:]...), nil
			}
		}

		return nil, errNoWrite
	})
	if errors.Is(err, errNoWrite) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete summary for %s: %w", userKey, err)
	}

	return found, nil
}

func (r *conversationRepository) Exists(ctx context.Context, otherUserKey, requesterKey string) (string, error) {
	summaries, err := r.List(ctx, otherUserKey)
	if err != nil {
		if errors.Is(err, store.ErrFetchFailed) {
			return "", ErrConversationNotFound
		}
		return "", err
	}

	for _, summary := range summaries {
		if summary.OtherUserEmail == requesterKey {
			return summary.ID, nil
		}
	}

	return "", ErrConversationNotFound
}

func (r *conversationRepository) Watch(ctx context.Context, userKey string) (<-chan []models.ConversationSummary, error) {
	events, err := r.store.Watch(ctx, conversationsPath(userKey))
	if err != nil {
		return nil, err
	}

	updates := make(chan []models.ConversationSummary, 1)
	go func() {
		defer close(updates)

		emit := func() {
			summaries, err := r.List(ctx, userKey)
			if err != nil {
				// absent or malformed list during a live watch is not fatal
				r.logger.Debug().Err(err).Str("user_key", userKey).Msg("skipping conversation snapshot")
				return
			}
			select {
			case updates <- summaries:
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
