package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/messenger-go-api/internal/dto"
	"github.com/noah-isme/messenger-go-api/internal/repository"
)

// fakeBlobStore records uploads in memory and returns deterministic URLs.
type fakeBlobStore struct {
	uploads map[string][]byte
	failAll bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{uploads: make(map[string][]byte)}
}

func (f *fakeBlobStore) Upload(_ context.Context, folder, fileName string, reader io.Reader) (string, error) {
	if f.failAll {
		return "", errors.New("blob backend down")
	}

	payload, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}

	key := folder + "/" + fileName
	f.uploads[key] = payload
	return "https://cdn.example.com/" + key, nil
}

func (f *fakeBlobStore) ResolveURL(_ context.Context, folder, fileName string) (string, error) {
	return "https://cdn.example.com/" + folder + "/" + fileName, nil
}

// pngHeader is enough for content sniffing to classify the payload as an image.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func newAccountService(t *testing.T) (AccountService, *fakeBlobStore, testEnv) {
	t.Helper()
	env := newTestEnv(t)
	blobs := newFakeBlobStore()
	return NewAccountService(env.users, blobs, env.validate, testLogger()), blobs, env
}

func TestRegisterStoresUserAndDirectoryEntry(t *testing.T) {
	accounts, _, env := newAccountService(t)
	ctx := context.Background()

	resp, err := accounts.Register(ctx, dto.RegisterRequest{
		FirstName: "Alice",
		LastName:  "Smith",
		Email:     "alice@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "alice_example_com", resp.Email)
	require.Equal(t, "Alice Smith", resp.Name)

	user, err := env.users.Get(ctx, "alice_example_com")
	require.NoError(t, err)
	require.Equal(t, "Alice", user.FirstName)

	directory, err := env.users.Directory(ctx)
	require.NoError(t, err)
	require.Len(t, directory, 1)
	require.Equal(t, "alice_example_com", directory[0].Email)
}

func TestRegisterRejectsDuplicateAccount(t *testing.T) {
	accounts, _, _ := newAccountService(t)
	ctx := context.Background()

	req := dto.RegisterRequest{FirstName: "Alice", LastName: "Smith", Email: "alice@example.com"}

	_, err := accounts.Register(ctx, req)
	require.NoError(t, err)

	_, err = accounts.Register(ctx, req)
	require.ErrorIs(t, err, ErrAccountExists)
}

func TestRegisterValidatesPayload(t *testing.T) {
	accounts, _, _ := newAccountService(t)

	_, err := accounts.Register(context.Background(), dto.RegisterRequest{
		FirstName: "Alice",
		LastName:  "Smith",
		Email:     "not-an-email",
	})
	require.Error(t, err)
}

func TestDirectoryExcludesRequester(t *testing.T) {
	accounts, _, _ := newAccountService(t)
	ctx := context.Background()

	for i, email := range []string{"alice@example.com", "bob@example.com", "carol@example.com"} {
		_, err := accounts.Register(ctx, dto.RegisterRequest{
			FirstName: fmt.Sprintf("User%d", i),
			LastName:  "Test",
			Email:     email,
		})
		require.NoError(t, err)
	}

	entries, err := accounts.Directory(ctx, "bob@example.com")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		require.NotEqual(t, "bob_example_com", entry.Email)
	}
}

func TestSetProfilePictureUploadsUnderDerivedName(t *testing.T) {
	accounts, blobs, _ := newAccountService(t)
	ctx := context.Background()

	_, err := accounts.Register(ctx, dto.RegisterRequest{FirstName: "Alice", LastName: "Smith", Email: "alice@example.com"})
	require.NoError(t, err)

	url, err := accounts.SetProfilePicture(ctx, "alice@example.com", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/images/alice_example_com_profile_picture.png", url)
	require.Contains(t, blobs.uploads, "images/alice_example_com_profile_picture.png")
}

func TestSetProfilePictureRejectsNonImage(t *testing.T) {
	accounts, _, _ := newAccountService(t)
	ctx := context.Background()

	_, err := accounts.Register(ctx, dto.RegisterRequest{FirstName: "Alice", LastName: "Smith", Email: "alice@example.com"})
	require.NoError(t, err)

	_, err = accounts.SetProfilePicture(ctx, "alice@example.com", bytes.NewReader([]byte("plain text, not a picture")))
	require.ErrorIs(t, err, ErrUploadTypeNotAllowed)
}

func TestSetProfilePictureRequiresAccount(t *testing.T) {
	accounts, _, _ := newAccountService(t)

	_, err := accounts.SetProfilePicture(context.Background(), "ghost@example.com", bytes.NewReader(pngHeader))
	require.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestProfilePictureURLDerivesFileName(t *testing.T) {
	accounts, _, _ := newAccountService(t)

	url, err := accounts.ProfilePictureURL(context.Background(), "bob@example.com")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/images/bob_example_com_profile_picture.png", url)
}
