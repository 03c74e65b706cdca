package service

import (
	"io"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/messenger-go-api/internal/repository"
	"github.com/noah-isme/messenger-go-api/internal/store"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newTestDocumentStore(t *testing.T) store.DocumentStore {
	t.Helper()

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return store.NewRedisStore(client, "test", testLogger())
}

type testEnv struct {
	users         repository.UserRepository
	conversations repository.ConversationRepository
	threads       repository.ThreadRepository
	validate      *validator.Validate
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	documents := newTestDocumentStore(t)
	return testEnv{
		users:         repository.NewUserRepository(documents, testLogger()),
		conversations: repository.NewConversationRepository(documents, testLogger()),
		threads:       repository.NewThreadRepository(documents, testLogger()),
		validate:      validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (e testEnv) messenger() MessengerService {
	return NewMessengerService(e.users, e.conversations, e.threads, nil, "test", e.validate, testLogger())
}
