package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chengshang-tools/update-server/catalog"
	"github.com/chengshang-tools/update-server/config"
	"github.com/chengshang-tools/update-server/database/dbcore"
	"github.com/chengshang-tools/update-server/database/models"
	"github.com/chengshang-tools/update-server/database/releases"
	"github.com/chengshang-tools/update-server/router"
	"github.com/chengshang-tools/update-server/security"
	"github.com/chengshang-tools/update-server/tasks"
	logutil "github.com/chengshang-tools/update-server/utils/log"
	"github.com/chengshang-tools/update-server/ws"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	gormlogger "gorm.io/gorm/logger"
)

var serverFlags struct {
	listen  string
	backend string
	seed    string
	debug   bool
	proxies []string
}

var ServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the update server",
	RunE:  runServer,
}

func init() {
	addServerFlags(ServerCmd)
	RootCmd.AddCommand(ServerCmd)
}

func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&serverFlags.listen, "listen", "l", "", "listen address (overrides server.listen)")
	cmd.Flags().StringVar(&serverFlags.backend, "backend", "", "catalog backend: memory or sqlite")
	cmd.Flags().StringVar(&serverFlags.seed, "seed", "", "YAML seed file loaded into the catalog at startup")
	cmd.Flags().BoolVar(&serverFlags.debug, "debug", false, "verbose logging and gin debug mode")
	cmd.Flags().StringSliceVar(&serverFlags.proxies, "trusted-proxy", nil, "reverse proxy address allowed to set X-Forwarded-For (repeatable)")
}

func applyServerFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Server.Listen = serverFlags.listen
	}
	if flags.Changed("backend") {
		cfg.Catalog.Backend = serverFlags.backend
	}
	if flags.Changed("seed") {
		cfg.Catalog.SeedFile = serverFlags.seed
	}
	if flags.Changed("debug") {
		cfg.Server.Debug = serverFlags.debug
	}
	if flags.Changed("trusted-proxy") {
		cfg.Server.TrustedProxies = serverFlags.proxies
	}
	return cfg.Validate()
}

// openCatalog 按配置构建目录；返回的 closer 在退出时调用
func openCatalog(ctx context.Context, cfg *config.Config) (catalog.Catalog, func(), error) {
	var (
		c      catalog.Catalog
		closer = func() {}
	)
	switch cfg.Catalog.Backend {
	case config.BackendSQLite:
		db, err := dbcore.OpenMemory("releases", &models.Release{})
		if err != nil {
			return nil, nil, err
		}
		c = releases.NewStore(db)
		closer = func() { _ = dbcore.Close(db) }
	default:
		c = catalog.NewMemoryCatalog()
	}

	var seed *catalog.SeedFile
	switch {
	case cfg.Catalog.SeedFile != "":
		s, err := catalog.LoadSeedFile(cfg.Catalog.SeedFile)
		if err != nil {
			closer()
			return nil, nil, err
		}
		seed = s
	case cfg.Catalog.BuiltinSeed:
		seed = catalog.BuiltinSeed()
	}
	if seed != nil {
		if err := catalog.Seed(ctx, c, seed); err != nil {
			closer()
			return nil, nil, err
		}
		slog.Info("catalog seeded", "releases", seed.Count(), "platforms", len(seed.Releases))
	}
	return c, closer, nil
}

func newGuard(cfg config.AdminConfig) *security.Guard {
	guard, generated := security.NewGuard(security.Options{
		Token:         cfg.Token,
		TOTPSecret:    cfg.TOTPSecret,
		Disabled:      cfg.DisableAuth,
		MaxFailures:   cfg.MaxFailures,
		FailureWindow: cfg.FailureWindow.Duration,
		Lockout:       cfg.Lockout.Duration,
	})
	switch {
	case guard.Disabled():
		slog.Warn("admin authentication is disabled; anyone can register releases")
	case generated:
		// 只输出一次，重启后会重新生成
		slog.Warn("no admin token configured, generated one for this process", "token", guard.Token())
	}
	return guard
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyServerFlags(cmd, cfg); err != nil {
		return err
	}
	if cfg.Server.Debug {
		logutil.SetupGlobalLogger(slog.LevelDebug)
		logutil.SetGormLogLevel(gormlogger.Info)
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, closeCatalog, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCatalog()

	hub := ws.NewHub()
	defer hub.Close()

	engine, err := router.New(router.Deps{
		Catalog:        c,
		Guard:          newGuard(cfg.Admin),
		Hub:            hub,
		TrustedProxies: cfg.Server.TrustedProxies,
	})
	if err != nil {
		return err
	}

	reporter := tasks.NewReporter(c)
	if err := reporter.Start(cfg.Tasks.ReportCron); err != nil {
		return fmt.Errorf("failed to schedule catalog report: %w", err)
	}
	defer reporter.Stop()

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("update server listening", "addr", cfg.Server.Listen, "backend", cfg.Catalog.Backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
