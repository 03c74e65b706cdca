package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/messenger-go-api/internal/models"
	"github.com/noah-isme/messenger-go-api/internal/store"
)

func summaryFixture(id, otherEmail, text string) models.ConversationSummary {
	return models.ConversationSummary{
		ID:             id,
		OtherUserEmail: otherEmail,
		Name:           "Other User",
		LatestMessage: models.LatestMessage{
			Date:    "2024-03-07T14:05:09Z",
			Message: text,
		},
	}
}

func TestListMissingReturnsFetchFailed(t *testing.T) {
	conversations := NewConversationRepository(newTestDocumentStore(t), testLogger())

	_, err := conversations.List(context.Background(), "alice_example_com")
	require.ErrorIs(t, err, store.ErrFetchFailed)
}

func TestUpsertCreatesListLazily(t *testing.T) {
	conversations := NewConversationRepository(newTestDocumentStore(t), testLogger())
	ctx := context.Background()

	require.NoError(t, conversations.Upsert(ctx, "alice_example_com", summaryFixture("conversation_1", "bob_example_com", "hi")))

	summaries, err := conversations.List(ctx, "alice_example_com")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, "conversation_1", summaries[0].ID)
}

func TestUpsertUpdatesLatestMessageInPlace(t *testing.T) {
	conversations := NewConversationRepository(newTestDocumentStore(t), testLogger())
	ctx := context.Background()

	require.NoError(t, conversations.Upsert(ctx, "alice_example_com", summaryFixture("conversation_1", "bob_example_com", "hi")))
	require.NoError(t, conversations.Upsert(ctx, "alice_example_com", summaryFixture("conversation_2", "carol_example_com", "hey")))

	updated := summaryFixture("conversation_1", "bob_example_com", "newer text")
	updated.Name = "Renamed" // only latest_message moves on upsert
	require.NoError(t, conversations.Upsert(ctx, "alice_example_com", updated))

	summaries, err := conversations.List(ctx, "alice_example_com")
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// position preserved, latest message replaced, rest untouched
	require.Equal(t, "conversation_1", summaries[0].ID)
	require.Equal(t, "newer text", summaries[0].LatestMessage.Message)
	require.Equal(t, "Other User", summaries[0].Name)
	require.Equal(t, "conversation_2", summaries[1].ID)
}

func TestConcurrentUpsertsRetainBoth(t *testing.T) {
	conversations := NewConversationRepository(newTestDocumentStore(t), testLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, id := range []string{"conversation_a", "conversation_b"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			require.NoError(t, conversations.Upsert(ctx, "alice_example_com", summaryFixture(id, "bob_example_com", "hello")))
		}(id)
	}
	wg.Wait()

	summaries, err := conversations.List(ctx, "alice_example_com")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
}

func TestDeleteRemovesMatchingSummary(t *testing.T) {
	conversations := NewConversationRepository(newTestDocumentStore(t), testLogger())
	ctx := context.Background()

	require.NoError(t, conversations.Upsert(ctx, "alice_example_com", summaryFixture("conversation_1", "bob_example_com", "hi")))
	require.NoError(t, conversations.Upsert(ctx, "alice_example_com", summaryFixture("conversation_2", "carol_example_com", "hey")))

	found, err := conversations.Delete(ctx, "alice_example_com", "conversation_1")
	require.NoError(t, err)
	require.True(t, found)

	summaries, err := conversations.List(ctx, "alice_example_com")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, "conversation_2", summaries[0].ID)
}

func TestDeleteWithoutMatchIsNoOp(t *testing.T) {
	conversations := NewConversationRepository(newTestDocumentStore(t), testLogger())
	ctx := context.Background()

	require.NoError(t, conversations.Upsert(ctx, "alice_example_com", summaryFixture("conversation_1", "bob_example_com", "hi")))

	found, err := conversations.Delete(ctx, "alice_example_com", "conversation_unknown")
	require.NoError(t, err)
	require.False(t, found)

	summaries, err := conversations.List(ctx, "alice_example_com")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
}

func TestDeleteOnMissingListIsNoOp(t *testing.T) {
	conversations := NewConversationRepository(newTestDocumentStore(t), testLogger())

	found, err := conversations.Delete(context.Background(), "alice_example_com", "conversation_1")
	require.NoError(t, err)
	require.False(t, found)
}

func TestExistsFindsConversationFromOtherSide(t *testing.T) {
	conversations := NewConversationRepository(newTestDocumentStore(t), testLogger())
	ctx := context.Background()

	// bob's mirror points back at alice
	require.NoError(t, conversations.Upsert(ctx, "bob_example_com", summaryFixture("conversation_1", "alice_example_com", "hi")))

	id, err := conversations.Exists(ctx, "bob_example_com", "alice_example_com")
	require.NoError(t, err)
	require.Equal(t, "conversation_1", id)
}

func TestExistsWithoutMatchReturnsNotFound(t *testing.T) {
	conversations := NewConversationRepository(newTestDocumentStore(t), testLogger())
	ctx := context.Background()

	_, err := conversations.Exists(ctx, "bob_example_com", "alice_example_com")
	require.ErrorIs(t, err, ErrConversationNotFound)

	require.NoError(t, conversations.Upsert(ctx, "bob_example_com", summaryFixture("conversation_1", "carol_example_com", "hi")))

	_, err = conversations.Exists(ctx, "bob_example_com", "alice_example_com")
	require.ErrorIs(t, err, ErrConversationNotFound)
}

func TestWatchEmitsInitialAndUpdatedSnapshots(t *testing.T) {
	conversations := NewConversationRepository(newTestDocumentStore(t), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, conversations.Upsert(ctx, "alice_example_com", summaryFixture("conversation_1", "bob_example_com", "hi")))

	updates, err := conversations.Watch(ctx, "alice_example_com")
	require.NoError(t, err)

	select {
	case snapshot := <-updates:
		require.Len(t, snapshot, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot")
	}

	require.NoError(t, conversations.Upsert(ctx, "alice_example_com", summaryFixture("conversation_2", "carol_example_com", "hey")))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snapshot := <-updates:
			if len(snapshot) == 2 {
				return
			}
		case <-deadline:
			t.Fatal("no updated snapshot")
		}
	}
}
