package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUploadPhotoStoresUnderPhotoFolder(t *testing.T) {
	blobs := newFakeBlobStore()
	media := NewMediaService(blobs, 25, testLogger())

	url, err := media.UploadPhoto(context.Background(), "msg-1.png", bytes.NewReader(pngHeader), int64(len(pngHeader)))
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/message_images/msg-1.png", url)
	require.Contains(t, blobs.uploads, "message_images/msg-1.png")
}

func TestUploadPhotoRejectsNonImagePayload(t *testing.T) {
	media := NewMediaService(newFakeBlobStore(), 25, testLogger())

	payload := []byte("definitely not an image")
	_, err := media.UploadPhoto(context.Background(), "msg-1.png", bytes.NewReader(payload), int64(len(payload)))
	require.ErrorIs(t, err, ErrUploadTypeNotAllowed)
}

func TestUploadVideoRejectsImagePayload(t *testing.T) {
	media := NewMediaService(newFakeBlobStore(), 25, testLogger())

	_, err := media.UploadVideo(context.Background(), "msg-1.mov", bytes.NewReader(pngHeader), int64(len(pngHeader)))
	require.ErrorIs(t, err, ErrUploadTypeNotAllowed)
}

func TestUploadRejectsDeclaredOversize(t *testing.T) {
	media := NewMediaService(newFakeBlobStore(), 1, testLogger())

	_, err := media.UploadPhoto(context.Background(), "big.png", bytes.NewReader(pngHeader), 2*1024*1024)
	require.ErrorIs(t, err, ErrUploadTooLarge)
}

func TestUploadRejectsActualOversize(t *testing.T) {
	media := NewMediaService(newFakeBlobStore(), 1, testLogger())

	// declared size lies; the actual payload exceeds the limit
	payload := append(append([]byte{}, pngHeader...), make([]byte, 2*1024*1024)...)
	_, err := media.UploadPhoto(context.Background(), "big.png", bytes.NewReader(payload), 100)
	require.ErrorIs(t, err, ErrUploadTooLarge)
}
