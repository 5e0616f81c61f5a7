// Package resolver decides whether a client needs an update.
package resolver

import (
	"context"
	"fmt"

	"github.com/chengshang-tools/update-server/catalog"
	"github.com/chengshang-tools/update-server/utils"
)

// PlatformInfo is the per-platform download entry of an update manifest.
type PlatformInfo struct {
	Signature string `json:"signature"`
	URL       string `json:"url"`
}

// UpdateResult is the manifest returned to the updater. PubDate is nil when
// there is nothing to update to and is encoded as null.
type UpdateResult struct {
	Version   string                  `json:"version"`
	Notes     string                  `json:"notes"`
	PubDate   *string                 `json:"pub_date"`
	Platforms map[string]PlatformInfo `json:"platforms"`
}

// Available reports whether the result points at a newer release.
func (r UpdateResult) Available() bool {
	return len(r.Platforms) > 0
}

func upToDate(currentVersion string) UpdateResult {
	return UpdateResult{
		Version:   currentVersion,
		Notes:     "",
		PubDate:   nil,
		Platforms: map[string]PlatformInfo{},
	}
}

type Resolver struct {
	catalog catalog.Catalog
}

func New(c catalog.Catalog) *Resolver {
	return &Resolver{catalog: c}
}

// LatestRelease returns the highest release of platform. ok is false when the
// platform has no releases.
func (r *Resolver) LatestRelease(ctx context.Context, platform string) (rel catalog.Release, ok bool, err error) {
	releases, err := r.catalog.ReleasesFor(ctx, platform)
	if err != nil {
		return catalog.Release{}, false, fmt.Errorf("failed to read releases for %s: %w", platform, err)
	}
	if len(releases) == 0 {
		return catalog.Release{}, false, nil
	}
	rel, _, err = latest(releases)
	if err != nil {
		return catalog.Release{}, false, err
	}
	return rel, true, nil
}

// CheckForUpdate compares the newest release of platform with currentVersion.
// Only a strictly greater release counts as an update.
func (r *Resolver) CheckForUpdate(ctx context.Context, platform, currentVersion string) (UpdateResult, error) {
	releases, err := r.catalog.ReleasesFor(ctx, platform)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("failed to read releases for %s: %w", platform, err)
	}
	if len(releases) == 0 {
		return upToDate(currentVersion), nil
	}

	rel, relVer, err := latest(releases)
	if err != nil {
		return UpdateResult{}, err
	}
	current, err := ParseVersion(currentVersion)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, currentVersion, err)
	}
	if !relVer.GT(current) {
		return upToDate(currentVersion), nil
	}

	return UpdateResult{
		Version: rel.Version,
		Notes:   rel.Notes,
		PubDate: utils.Ptr(rel.PubDate),
		Platforms: map[string]PlatformInfo{
			platform: {Signature: rel.Signature, URL: rel.URL},
		},
	}, nil
}
