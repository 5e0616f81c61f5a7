package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chengshang-tools/update-server/catalog"
	"github.com/chengshang-tools/update-server/resolver"
	"github.com/robfig/cron/v3"
)

// PlatformSummary 单个平台的目录概况
type PlatformSummary struct {
	Platform string
	Releases int
	Latest   string
	Err      error
}

// Summarize 汇总每个平台的发布数量与最新版本
func Summarize(ctx context.Context, c catalog.Catalog) ([]PlatformSummary, error) {
	platforms, err := c.Platforms(ctx)
	if err != nil {
		return nil, err
	}
	r := resolver.New(c)
	out := make([]PlatformSummary, 0, len(platforms))
	for _, p := range platforms {
		list, err := c.ReleasesFor(ctx, p)
		if err != nil {
			out = append(out, PlatformSummary{Platform: p, Err: err})
			continue
		}
		s := PlatformSummary{Platform: p, Releases: len(list)}
		if rel, ok, err := r.LatestRelease(ctx, p); err != nil {
			s.Err = err
		} else if ok {
			s.Latest = rel.Version
		}
		out = append(out, s)
	}
	return out, nil
}

// Reporter 按 cron 表达式定期把目录概况写入日志
type Reporter struct {
	mu      sync.Mutex
	catalog catalog.Catalog
	cron    *cron.Cron
}

func NewReporter(c catalog.Catalog) *Reporter {
	return &Reporter{catalog: c}
}

// Start 注册并启动调度；spec 为空时不启动
func (r *Reporter) Start(spec string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron != nil {
		r.cron.Stop()
		r.cron = nil
	}
	if spec == "" {
		return nil
	}
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(spec, r.Report); err != nil {
		return err
	}
	c.Start()
	r.cron = c
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (r *Reporter) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

func (r *Reporter) Report() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	summaries, err := Summarize(ctx, r.catalog)
	if err != nil {
		slog.Error("catalog report failed", "error", err)
		return
	}
	if len(summaries) == 0 {
		slog.Info("catalog report", "platforms", 0)
		return
	}
	for _, s := range summaries {
		if s.Err != nil {
			slog.Warn("catalog report", "platform", s.Platform, "releases", s.Releases, "error", s.Err)
			continue
		}
		slog.Info("catalog report", "platform", s.Platform, "releases", s.Releases, "latest", s.Latest)
	}
}
