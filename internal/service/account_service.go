package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/messenger-go-api/internal/dto"
	"github.com/noah-isme/messenger-go-api/internal/identity"
	"github.com/noah-isme/messenger-go-api/internal/models"
	"github.com/noah-isme/messenger-go-api/internal/repository"
)

const profilePictureFolder = "images"

// ErrAccountExists indicates a user record already lives at the derived storage key.
var ErrAccountExists = errors.New("account already exists")

// BlobStore abstracts the blob backend that holds profile pictures and media assets.
// Upload returns an absolute URL the asset can be fetched from.
type BlobStore interface {
	Upload(ctx context.Context, folder, fileName string, reader io.Reader) (string, error)
	ResolveURL(ctx context.Context, folder, fileName string) (string, error)
}

// AccountService manages user records, the global directory and profile pictures.
type AccountService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (dto.RegisterResponse, error)
	Directory(ctx context.Context, excludeEmail string) ([]dto.DirectoryEntryResponse, error)
	SetProfilePicture(ctx context.Context, email string, reader io.Reader) (string, error)
	ProfilePictureURL(ctx context.Context, email string) (string, error)
}

type accountService struct {
	users     repository.UserRepository
	blobs     BlobStore
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAccountService constructs an account service.
func NewAccountService(users repository.UserRepository, blobs BlobStore, validate *validator.Validate, logger zerolog.Logger) AccountService {
	return &accountService{
		users:     users,
		blobs:     blobs,
		validator: validate,
		logger:    logger.With().Str("component", "account_service").Logger(),
	}
}

func (s *accountService) Register(ctx context.Context, req dto.RegisterRequest) (dto.RegisterResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.RegisterResponse{}, err
	}

	safeEmail := identity.SafeEmail(req.Email)

	exists, err := s.users.Exists(ctx, safeEmail)
	if err != nil {
		return dto.RegisterResponse{}, err
	}
	if exists {
		return dto.RegisterResponse{}, ErrAccountExists
	}

	user := models.User{FirstName: req.FirstName, LastName: req.LastName}
	if err := s.users.Insert(ctx, safeEmail, user); err != nil {
		return dto.RegisterResponse{}, err
	}

	s.logger.Info().Str("user_key", safeEmail).Msg("account registered")

	return dto.RegisterResponse{
		Email: safeEmail,
		Name:  user.FullName(),
	}, nil
}

func (s *accountService) Directory(ctx context.Context, excludeEmail string) ([]dto.DirectoryEntryResponse, error) {
	entries, err := s.users.Directory(ctx)
	if err != nil {
		return nil, err
	}

	selfKey := identity.SafeEmail(excludeEmail)
	out := make([]dto.DirectoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		if entry.Email == selfKey {
			continue
		}
		out = append(out, dto.DirectoryEntryResponse{Name: entry.Name, Email: entry.Email})
	}

	return out, nil
}

func (s *accountService) SetProfilePicture(ctx context.Context, email string, reader io.Reader) (string, error) {
	safeEmail := identity.SafeEmail(email)

	if _, err := s.users.Get(ctx, safeEmail); err != nil {
		return "", err
	}

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", fmt.Errorf("failed to read picture: %w", err)
	}

	detected := mimetype.Detect(buf.Bytes())
	if !isImage(detected.String()) {
		return "", ErrUploadTypeNotAllowed
	}

	fileName := identity.ProfilePictureFileName(safeEmail)
	url, err := s.blobs.Upload(ctx, profilePictureFolder, fileName, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return "", fmt.Errorf("failed to upload profile picture: %w", err)
	}

	s.logger.Info().Str("user_key", safeEmail).Msg("profile picture updated")

	return url, nil
}

func (s *accountService) ProfilePictureURL(ctx context.Context, email string) (string, error) {
	safeEmail := identity.SafeEmail(email)
	return s.blobs.ResolveURL(ctx, profilePictureFolder, identity.ProfilePictureFileName(safeEmail))
}
