package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"snapshare/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Category is the top-level folder an upload is filed under.
type Category string

const (
	CategoryProfilePictures Category = "profile_pics"
	CategoryVideos          Category = "videos"
	CategoryThumbnails      Category = "thumbnails"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryProfilePictures, CategoryVideos, CategoryThumbnails:
		return true
	}
	return false
}

const (
	maxStoreAttempts = 10
	maxStemLength    = 80
	suffixLength     = 7
)

var unsafeChars = regexp.MustCompile(`[^-\w.]`)

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

// Gateway files uploads by category and resolves their public URLs.
type Gateway struct {
	provider Provider
	logger   *zap.Logger
}

// NewGateway creates a Gateway on top of provider.
func NewGateway(provider Provider, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{provider: provider, logger: logger}
}

// New picks the provider named by cfg.Provider and wraps it in a Gateway.
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*Gateway, error) {
	var (
		provider Provider
		err      error
	)
	switch cfg.Provider {
	case "local":
		provider, err = NewLocalProvider(cfg.MediaRoot, cfg.MediaURL)
	case "s3":
		provider, err = NewS3Provider(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewGateway(provider, logger), nil
}

// Store writes the upload and returns its key. When the sanitized name is
// taken, a random suffix is appended to the stem until a free key is found.
func (g *Gateway) Store(ctx context.Context, category Category, up Upload) (string, error) {
	if !category.Valid() {
		return "", fmt.Errorf("unknown storage category %q", category)
	}
	if up.Body == nil {
		return "", errors.New("upload has no content")
	}

	name := SanitizeFilename(up.Filename)
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	key := string(category) + "/" + name
	for attempt := 1; attempt <= maxStoreAttempts; attempt++ {
		if _, err := up.Body.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("failed to rewind upload %s: %w", up.Filename, err)
		}

		err := g.provider.Create(ctx, key, up.Body, up.Size, up.ContentType)
		if err == nil {
			g.logger.Debug("stored object", zap.String("key", key), zap.Int64("size", up.Size))
			return key, nil
		}
		if !errors.Is(err, ErrObjectExists) {
			return "", err
		}
		key = fmt.Sprintf("%s/%s_%s%s", category, stem, randomSuffix(), ext)
	}
	return "", fmt.Errorf("no free key for %s after %d attempts: %w", up.Filename, maxStoreAttempts, ErrObjectExists)
}

// URL resolves a stored key. An empty key has no URL.
func (g *Gateway) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	return g.provider.URL(ctx, key)
}

// URLOrNil resolves a key for JSON output, where a missing file is null.
// Resolution failures are logged and also yield nil.
func (g *Gateway) URLOrNil(ctx context.Context, key string) *string {
	url, err := g.URL(ctx, key)
	if err != nil {
		g.logger.Warn("failed to resolve media url", zap.String("key", key), zap.Error(err))
		return nil
	}
	if url == "" {
		return nil
	}
	return &url
}

// Delete removes a stored object. Deleting an empty key is a no-op.
func (g *Gateway) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return g.provider.Delete(ctx, key)
}

// SanitizeFilename reduces a client supplied filename to a safe base name:
// directories are dropped, spaces become underscores and anything outside
// letters, digits, dash, underscore and dot is removed.
func SanitizeFilename(filename string) string {
	name := filename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, ".")

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		stem = "file"
	}
	if len(stem) > maxStemLength {
		stem = stem[:maxStemLength]
	}
	return stem + strings.ToLower(ext)
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLength]
}
