package repository

import (
	"io"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

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
