package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Service implements the BlobStore interface using Cloudinary. Assets live under
// <root folder>/<asset folder>/<public id>; uploads with the same name overwrite,
// so a profile picture keeps a stable URL across updates.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Upload sends the asset to Cloudinary and returns its secure URL.
func (s *Service) Upload(ctx context.Context, folder, fileName string, reader io.Reader) (string, error) {
	params := uploader.UploadParams{
		Folder:       s.assetFolder(folder),
		PublicID:     buildPublicID(fileName),
		ResourceType: "auto",
		Overwrite:    api.Bool(true),
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload asset: %w", err)
	}

	s.logger.Info().Str("public_id", result.PublicID).Msg("file uploaded to cloudinary")

	return result.SecureURL, nil
}

// ResolveURL builds the delivery URL for a previously uploaded asset.
func (s *Service) ResolveURL(ctx context.Context, folder, fileName string) (string, error) {
	publicID := fmt.Sprintf("%s/%s", s.assetFolder(folder), buildPublicID(fileName))

	image, err := s.client.Image(publicID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve asset url: %w", err)
	}

	url, err := image.String()
	if err != nil {
		return "", fmt.Errorf("failed to resolve asset url: %w", err)
	}

	return url, nil
}

func (s *Service) assetFolder(folder string) string {
	folder = strings.Trim(folder, "/")
	if s.folder == "" {
		return folder
	}
	return fmt.Sprintf("%s/%s", s.folder, folder)
}

// buildPublicID derives a stable identifier from the file name: same name, same
// asset, so re-uploads overwrite instead of accumulating.
func buildPublicID(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = "upload"
	}

	return base
}
