package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/photoshare/internal/blobstore"
	"github.com/xxxsen/photoshare/internal/config"
	"github.com/xxxsen/photoshare/internal/handler"
	"github.com/xxxsen/photoshare/internal/job"
	"github.com/xxxsen/photoshare/internal/metrics"
	"github.com/xxxsen/photoshare/internal/schedule"
	"github.com/xxxsen/photoshare/internal/service"
	"github.com/xxxsen/photoshare/internal/urlcache"
	"github.com/xxxsen/photoshare/internal/userstore"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "photoshare",
		Short: "photoshare backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run photoshare server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}

	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "clear profile image references whose upload never completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			users, blobs, err := openStores(cfg)
			if err != nil {
				return err
			}
			scheduler, err := newScheduler(cfg, users, blobs, nil)
			if err != nil {
				return err
			}
			return scheduler.RunNow(cmd.Context(), job.ProfileImageReconcileJobName)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json or config.yaml")
	rootCmd.AddCommand(runCmd, reconcileCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", path))
	return cfg, nil
}

func openStores(cfg *config.Config) (userstore.Store, blobstore.Store, error) {
	users, err := userstore.New(cfg.UserStore)
	if err != nil {
		return nil, nil, fmt.Errorf("init user store: %w", err)
	}
	blobs, err := blobstore.New(cfg.BlobStore)
	if err != nil {
		return nil, nil, fmt.Errorf("init blob store: %w", err)
	}
	return users, blobs, nil
}

func newScheduler(cfg *config.Config, users userstore.Store, blobs blobstore.Store, m *metrics.Metrics) (*schedule.CronScheduler, error) {
	scheduler := schedule.NewCronScheduler()
	reconcileJob := job.NewProfileImageReconcileJob(users, blobs, cfg.ReconcileGrace(), m)
	if err := scheduler.AddJob(reconcileJob, cfg.Reconcile.Spec); err != nil {
		return nil, fmt.Errorf("schedule reconcile job: %w", err)
	}
	return scheduler, nil
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("user_store", cfg.UserStore.Type),
		zap.String("blob_store", cfg.BlobStore.Type),
	)

	users, rawBlobs, err := openStores(cfg)
	if err != nil {
		return err
	}
	blobs := urlcache.WrapLruCacheToStore(rawBlobs, cfg.ReadURLCacheSize, cfg.ReadURLTTL()/2)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	authService := service.NewAuthService(users, []byte(cfg.JWTSecret), cfg.TokenTTL(), cfg.BcryptCost)
	profileService := service.NewProfileService(users, blobs, cfg.UploadURLTTL(), cfg.ReadURLTTL())

	deps := handler.RouterDeps{
		Auth:        handler.NewAuthHandler(authService, m),
		Upload:      handler.NewUploadHandler(profileService, m),
		Profile:     handler.NewProfileHandler(profileService),
		Metrics:     m,
		MetricsPath: cfg.Metrics.Path,
		JWTSecret:   []byte(cfg.JWTSecret),
		RateLimit:   cfg.RateLimitWindow(),
		CORS:        cfg.CORS,
	}
	if files, ok := rawBlobs.(blobstore.FileServer); ok {
		deps.Blobs = handler.NewBlobHandler(files)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Reconcile.Enabled {
		scheduler, err := newScheduler(cfg, users, rawBlobs, m)
		if err != nil {
			return err
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	engine, err := webapi.NewEngine(
		"/",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(handler.Middlewares(deps)...),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
