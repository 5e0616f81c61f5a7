package releases

import (
	"context"
	"time"

	"github.com/chengshang-tools/update-server/catalog"
	"github.com/chengshang-tools/update-server/database/models"
	"gorm.io/gorm"
)

// Store 基于 gorm 的发布目录，实现 catalog.Catalog 与 catalog.Seeder
type Store struct {
	db  *gorm.DB
	now catalog.Clock
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// WithClock 替换登记时钟（测试用）
func (s *Store) WithClock(clock catalog.Clock) *Store {
	s.now = clock
	return s
}

func toCatalog(m models.Release) catalog.Release {
	return catalog.Release{
		Version:   m.Version,
		Notes:     m.Notes,
		PubDate:   m.PubDate,
		Signature: m.Signature,
		URL:       m.URL,
	}
}

func fromCatalog(platform string, r catalog.Release) models.Release {
	return models.Release{
		Platform:  platform,
		Version:   r.Version,
		Notes:     r.Notes,
		PubDate:   r.PubDate,
		Signature: r.Signature,
		URL:       r.URL,
	}
}

// ReleasesFor 按插入顺序返回平台下的全部发布
func (s *Store) ReleasesFor(ctx context.Context, platform string) ([]catalog.Release, error) {
	var rows []models.Release
	if err := s.db.WithContext(ctx).Where("platform = ?", platform).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	out := make([]catalog.Release, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCatalog(row))
	}
	return out, nil
}

// AddRelease 写入一条发布，pub_date 使用服务器当前时间
func (s *Store) AddRelease(ctx context.Context, platform string, r catalog.Release) (catalog.Release, error) {
	r.PubDate = catalog.FormatPubDate(s.now())
	row := fromCatalog(platform, r)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return catalog.Release{}, err
	}
	return toCatalog(row), nil
}

// SeedRelease 原样写入（保留 pub_date）
func (s *Store) SeedRelease(ctx context.Context, platform string, r catalog.Release) error {
	row := fromCatalog(platform, r)
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *Store) Platforms(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.WithContext(ctx).Model(&models.Release{}).Distinct("platform").Order("platform asc").Pluck("platform", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

var (
	_ catalog.Catalog = (*Store)(nil)
	_ catalog.Seeder  = (*Store)(nil)
)
