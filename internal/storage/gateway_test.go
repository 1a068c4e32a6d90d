package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalGateway(t *testing.T) (*Gateway, string) {
	t.Helper()
	root := t.TempDir()
	provider, err := NewLocalProvider(root, "/media/")
	require.NoError(t, err)
	return NewGateway(provider, nil), root
}

func upload(name, content string) Upload {
	return Upload{
		Filename:    name,
		ContentType: "application/octet-stream",
		Size:        int64(len(content)),
		Body:        bytes.NewReader([]byte(content)),
	}
}

func TestGateway_StoreAndURL(t *testing.T) {
	gw, root := newLocalGateway(t)
	ctx := context.Background()

	key, err := gw.Store(ctx, CategoryVideos, upload("demo.mp4", "frames"))
	require.NoError(t, err)
	assert.Equal(t, "videos/demo.mp4", key)

	data, err := os.ReadFile(filepath.Join(root, "videos", "demo.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "frames", string(data))

	url, err := gw.URL(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "/media/videos/demo.mp4", url)

	empty, err := gw.URL(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Nil(t, gw.URLOrNil(ctx, ""))
}

func TestGateway_StoreNeverOverwrites(t *testing.T) {
	gw, root := newLocalGateway(t)
	ctx := context.Background()

	first, err := gw.Store(ctx, CategoryThumbnails, upload("cover.png", "one"))
	require.NoError(t, err)
	second, err := gw.Store(ctx, CategoryThumbnails, upload("cover.png", "two"))
	require.NoError(t, err)

	assert.Equal(t, "thumbnails/cover.png", first)
	assert.Regexp(t, regexp.MustCompile(`^thumbnails/cover_[0-9a-f]{7}\.png$`), second)

	original, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(first)))
	require.NoError(t, err)
	assert.Equal(t, "one", string(original))
}

func TestGateway_StoreRejectsUnknownCategory(t *testing.T) {
	gw, _ := newLocalGateway(t)
	_, err := gw.Store(context.Background(), Category("secrets"), upload("a.txt", "x"))
	assert.Error(t, err)
}

type crowdedProvider struct {
	calls int
}

func (p *crowdedProvider) Create(context.Context, string, io.ReadSeeker, int64, string) error {
	p.calls++
	return ErrObjectExists
}

func (p *crowdedProvider) URL(context.Context, string) (string, error) { return "", nil }

func (p *crowdedProvider) Delete(context.Context, string) error { return nil }

func TestGateway_StoreGivesUpAfterBoundedAttempts(t *testing.T) {
	provider := &crowdedProvider{}
	gw := NewGateway(provider, nil)

	_, err := gw.Store(context.Background(), CategoryVideos, upload("a.mp4", "x"))
	assert.ErrorIs(t, err, ErrObjectExists)
	assert.Equal(t, maxStoreAttempts, provider.calls)
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"my video.MP4":         "my_video.mp4",
		"../../etc/passwd":     "passwd",
		`C:\Users\me\pic.jpeg`: "pic.jpeg",
		"weird$%name!.png":     "weirdname.png",
		".hidden":              "hidden",
		"":                     "file",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFilename(in), "input %q", in)
	}
}

func TestLocalProvider_RejectsEscapingKeys(t *testing.T) {
	provider, err := NewLocalProvider(t.TempDir(), "/media")
	require.NoError(t, err)
	err = provider.Create(context.Background(), "../outside.txt", bytes.NewReader(nil), 0, "")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrObjectExists))
}

func TestIsConditionFailed(t *testing.T) {
	assert.True(t, isConditionFailed(&smithy.GenericAPIError{Code: "PreconditionFailed"}))
	assert.True(t, isConditionFailed(&smithy.GenericAPIError{Code: "ConditionalRequestConflict"}))
	assert.False(t, isConditionFailed(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, isConditionFailed(errors.New("boom")))
}
