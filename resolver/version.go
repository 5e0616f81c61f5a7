package resolver

import (
	"errors"
	"fmt"

	"github.com/blang/semver"
	"github.com/chengshang-tools/update-server/catalog"
)

var (
	// ErrInvalidVersion 客户端上报的版本号无法解析
	ErrInvalidVersion = errors.New("invalid client version")
	// ErrCorruptCatalog 目录中存在无法解析的版本号
	ErrCorruptCatalog = errors.New("corrupt release catalog")
)

// ParseVersion 严格按 semver 2.0 解析（不接受 v 前缀）
func ParseVersion(v string) (semver.Version, error) {
	return semver.Parse(v)
}

// latest 返回版本号最大的发布；任意一条解析失败即整体失败
func latest(releases []catalog.Release) (catalog.Release, semver.Version, error) {
	var (
		best    catalog.Release
		bestVer semver.Version
	)
	for i, r := range releases {
		v, err := ParseVersion(r.Version)
		if err != nil {
			return catalog.Release{}, semver.Version{}, fmt.Errorf("%w: release %q: %v", ErrCorruptCatalog, r.Version, err)
		}
		if i == 0 || v.GT(bestVer) {
			best, bestVer = r, v
		}
	}
	return best, bestVer, nil
}
