package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/chengshang-tools/update-server/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T, platform string, versions ...string) *catalog.MemoryCatalog {
	t.Helper()
	c := catalog.NewMemoryCatalog()
	for _, v := range versions {
		require.NoError(t, c.SeedRelease(context.Background(), platform, catalog.Release{
			Version:   v,
			Notes:     "notes " + v,
			PubDate:   "2024-01-10T10:00:00Z",
			Signature: "sig-" + v,
			URL:       "https://example.com/" + v + ".exe",
		}))
	}
	return c
}

func TestCheckForUpdate_Scenario(t *testing.T) {
	r := New(seeded(t, "windows-x86_64", "1.0.0"))
	ctx := context.Background()

	res, err := r.CheckForUpdate(ctx, "windows-x86_64", "1.0.0")
	require.NoError(t, err)
	assert.False(t, res.Available())
	assert.Equal(t, "1.0.0", res.Version)
	assert.Equal(t, "", res.Notes)
	assert.Nil(t, res.PubDate)
	assert.Empty(t, res.Platforms)

	res, err = r.CheckForUpdate(ctx, "windows-x86_64", "0.9.0")
	require.NoError(t, err)
	assert.True(t, res.Available())
	assert.Equal(t, "1.0.0", res.Version)
	assert.Equal(t, "notes 1.0.0", res.Notes)
	require.NotNil(t, res.PubDate)
	assert.Equal(t, "2024-01-10T10:00:00Z", *res.PubDate)
	assert.Equal(t, map[string]PlatformInfo{
		"windows-x86_64": {Signature: "sig-1.0.0", URL: "https://example.com/1.0.0.exe"},
	}, res.Platforms)

	res, err = r.CheckForUpdate(ctx, "linux-x86_64", "0.1.0")
	require.NoError(t, err)
	assert.False(t, res.Available())
	assert.Equal(t, "0.1.0", res.Version)
	assert.NotNil(t, res.Platforms)
}

func TestCheckForUpdate_Precedence(t *testing.T) {
	tests := []struct {
		name    string
		latest  string
		current string
		update  bool
	}{
		{"major", "2.0.0", "1.9.9", true},
		{"minor", "1.2.0", "1.1.9", true},
		{"patch", "1.0.1", "1.0.0", true},
		{"equal", "1.0.0", "1.0.0", false},
		{"older", "1.0.0", "1.0.1", false},
		{"release beats prerelease", "1.0.0", "1.0.0-rc.1", true},
		{"prerelease below release", "1.0.0-rc.1", "1.0.0", false},
		{"numeric prerelease ids", "1.0.0-rc.10", "1.0.0-rc.2", true},
		{"alpha before beta", "1.0.0-beta", "1.0.0-alpha", true},
		{"higher core ignores tag", "1.0.1-alpha", "1.0.0", true},
		{"build metadata ignored", "1.0.0+build.2", "1.0.0+build.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(seeded(t, "windows-x86_64", tt.latest))
			res, err := r.CheckForUpdate(context.Background(), "windows-x86_64", tt.current)
			require.NoError(t, err)
			assert.Equal(t, tt.update, res.Available())
			if tt.update {
				assert.Equal(t, tt.latest, res.Version)
			} else {
				assert.Equal(t, tt.current, res.Version)
			}
		})
	}
}

func TestLatestRelease_IgnoresInsertionOrder(t *testing.T) {
	r := New(seeded(t, "windows-x86_64", "1.0.0", "2.0.0", "1.5.0"))

	rel, ok, err := r.LatestRelease(context.Background(), "windows-x86_64")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2.0.0", rel.Version)

	_, ok, err = r.LatestRelease(context.Background(), "linux-x86_64")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckForUpdate_InvalidClientVersion(t *testing.T) {
	r := New(seeded(t, "windows-x86_64", "1.0.0"))
	_, err := r.CheckForUpdate(context.Background(), "windows-x86_64", "not-a-version")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidVersion))
}

func TestCheckForUpdate_VPrefixRejected(t *testing.T) {
	r := New(seeded(t, "windows-x86_64", "1.0.0"))
	_, err := r.CheckForUpdate(context.Background(), "windows-x86_64", "v0.9.0")
	assert.ErrorIs(t, err, ErrInvalidVersion)
}

func TestCheckForUpdate_CorruptCatalogFailsWholeSelection(t *testing.T) {
	r := New(seeded(t, "windows-x86_64", "1.0.0", "not-a-version", "3.0.0"))
	_, err := r.CheckForUpdate(context.Background(), "windows-x86_64", "0.1.0")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptCatalog)
	assert.NotErrorIs(t, err, ErrInvalidVersion)
}

func TestCheckForUpdate_UnknownPlatformSkipsParsing(t *testing.T) {
	r := New(seeded(t, "windows-x86_64", "1.0.0"))
	res, err := r.CheckForUpdate(context.Background(), "linux-x86_64", "garbage")
	require.NoError(t, err)
	assert.Equal(t, "garbage", res.Version)
}

type failingCatalog struct{}

func (failingCatalog) ReleasesFor(context.Context, string) ([]catalog.Release, error) {
	return nil, errors.New("boom")
}

func (failingCatalog) AddRelease(context.Context, string, catalog.Release) (catalog.Release, error) {
	return catalog.Release{}, errors.New("boom")
}

func (failingCatalog) Platforms(context.Context) ([]string, error) {
	return nil, errors.New("boom")
}

func TestCheckForUpdate_CatalogError(t *testing.T) {
	r := New(failingCatalog{})
	_, err := r.CheckForUpdate(context.Background(), "windows-x86_64", "1.0.0")
	assert.Error(t, err)
}
