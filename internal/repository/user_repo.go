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

const directoryPath = "users"

// UserRepository persists user records and the global user directory.
type UserRepository interface {
	Insert(ctx context.Context, safeEmail string, user models.User) error
	Exists(ctx context.Context, safeEmail string) (bool, error)
	Get(ctx context.Context, safeEmail string) (models.User, error)
	Directory(ctx context.Context) ([]models.DirectoryEntry, error)
}

type userRepository struct {
	store  store.DocumentStore
	logger zerolog.Logger
}

// NewUserRepository constructs a user repository backed by the document store.
func NewUserRepository(documents store.DocumentStore, logger zerolog.Logger) UserRepository {
	return &userRepository{
		store:  documents,
		logger: logger.With().Str("component", "user_repository").Logger(),
	}
}

func (r *userRepository) Insert(ctx context.Context, safeEmail string, user models.User) error {
	if err := r.store.Set(ctx, safeEmail, user); err != nil {
		return fmt.Errorf("failed to write user record: %w", err)
	}

	entry := models.DirectoryEntry{Name: user.FullName(), Email: safeEmail}

	// The directory is append-only and never deduplicated; a re-registration adds a
	// second entry for the same key.
	err := r.store.Update(ctx, directoryPath, func(raw json.RawMessage) (interface{}, error) {
		var directory []models.DirectoryEntry
		if raw != nil {
			if err := json.Unmarshal(raw, &directory); err != nil {
				return nil, fmt.Errorf("%w: %v", store.ErrFetchFailed, err)
			}
		}
		return append(directory, entry), nil
	})
	if err != nil {
		return fmt.Errorf("failed to append directory entry: %w", err)
	}

	return nil
}

func (r *userRepository) Exists(ctx context.Context, safeEmail string) (bool, error) {
	return r.store.Exists(ctx, safeEmail)
}

func (r *userRepository) Get(ctx context.Context, safeEmail string) (models.User, error) {
	var user models.User
	err := r.store.Get(ctx, safeEmail, &user)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) Directory(ctx context.Context) ([]models.DirectoryEntry, error) {
	var directory []models.DirectoryEntry
	err := r.store.Get(ctx, directoryPath, &directory)
	if errors.Is(err, store.ErrNotFound) {
		return nil, store.ErrFetchFailed
	}
	if err != nil {
		return nil, err
	}

	return directory, nil
}
