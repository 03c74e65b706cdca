package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gabriel-vasile/mimetype"

	"github.com/noah-isme/messenger-go-api/internal/observability"
)

const (
	photoMessageFolder = "message_images"
	videoMessageFolder = "message_videos"
)

var (
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the sniffed MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
	// ErrUploadFailed indicates the blob backend rejected or dropped the upload.
	ErrUploadFailed = errors.New("upload failed")
)

// MediaService validates and stores photo/video message assets. The returned URL is
// what ends up as the content of a photo or video message record; the upload must
// complete before such a record can be constructed.
type MediaService interface {
	UploadPhoto(ctx context.Context, fileName string, reader io.Reader, size int64) (string, error)
	UploadVideo(ctx context.Context, fileName string, reader io.Reader, size int64) (string, error)
}

type mediaService struct {
	blobs   BlobStore
	maxSize int64
	logger  zerolog.Logger
}

// NewMediaService constructs a media service with the given size limit in megabytes.
func NewMediaService(blobs BlobStore, maxSizeMB int, logger zerolog.Logger) MediaService {
	if maxSizeMB <= 0 {
		maxSizeMB = 25
	}
	return &mediaService{
		blobs:   blobs,
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		logger:  logger.With().Str("component", "media_service").Logger(),
	}
}

func (s *mediaService) UploadPhoto(ctx context.Context, fileName string, reader io.Reader, size int64) (string, error) {
	return s.upload(ctx, photoMessageFolder, "image/", fileName, reader, size)
}

func (s *mediaService) UploadVideo(ctx context.Context, fileName string, reader io.Reader, size int64) (string, error) {
	return s.upload(ctx, videoMessageFolder, "video/", fileName, reader, size)
}

func (s *mediaService) upload(ctx context.Context, folder, mimePrefix, fileName string, reader io.Reader, size int64) (string, error) {
	start := time.Now()
	defer func() {
		observability.MediaUploadLatency().Observe(time.Since(start).Seconds())
	}()

	if size > s.maxSize {
		observability.MediaRejected().WithLabelValues("size").Inc()
		return "", ErrUploadTooLarge
	}

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(reader, s.maxSize+1)); err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(buf.Len()) > s.maxSize {
		observability.MediaRejected().WithLabelValues("size").Inc()
		return "", ErrUploadTooLarge
	}

	detected := mimetype.Detect(buf.Bytes())
	if !strings.HasPrefix(detected.String(), mimePrefix) {
		observability.MediaRejected().WithLabelValues("type").Inc()
		return "", ErrUploadTypeNotAllowed
	}

	url, err := s.blobs.Upload(ctx, folder, fileName, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	s.logger.Info().Str("folder", folder).Str("file_name", fileName).Str("mime", detected.String()).Msg("media uploaded")

	return url, nil
}

func isImage(mime string) bool {
	return strings.HasPrefix(mime, "image/")
}
