package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"k8s.io/klog/v2"

	"github.com/backlinkflow/backend/internal"
	"github.com/backlinkflow/backend/internal/handler"
	"github.com/backlinkflow/backend/pkg/config"
	"github.com/backlinkflow/backend/pkg/itemstore"
	"github.com/backlinkflow/backend/pkg/notify"
	"github.com/backlinkflow/backend/pkg/oauth"
	"github.com/backlinkflow/backend/pkg/recommend"
	"github.com/backlinkflow/backend/pkg/refresh"
)

var (
	readHeaderTimeout = 10 * time.Second
	cancelTimeout     = 10 * time.Second
)

// @title			BacklinkFlow API
// @version			1.0.0
// @description		Backlink directory and per-project tracking board.
// @securityDefinitions.apikey	SessionCookie
// @in				cookie
// @name			session
func main() {
	backendConfig := config.GetConfig()

	if err := loadDebugEnvironment(); err != nil {
		klog.Fatalf("Failed to load env: %s", err)
	}

	registerConfig := buildRegisterConfig(backendConfig)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog := registerConfig.Catalog
	if err := catalog.Start(ctx); err != nil {
		klog.Fatalf("Failed to start catalog refresh: %s", err)
	}
	defer catalog.Stop()

	startServer(ctx, backendConfig, registerConfig)
}

func loadDebugEnvironment() error {
	if gin.Mode() != gin.DebugMode {
		return nil
	}
	if _, err := os.Stat(".debug.env"); err != nil {
		// Optional in debug mode; the config file alone is enough.
		return nil
	}
	return godotenv.Load(".debug.env")
}

func buildRegisterConfig(conf *config.Config) *handler.RegisterConfig {
	store := itemstore.New(conf.ItemStore.URL, conf.ItemStore.Token,
		time.Duration(conf.ItemStore.TimeoutSeconds)*time.Second)

	providerTimeout := 10 * time.Second
	providers := map[string]oauth.Provider{}
	if conf.OAuth.GitHub.ClientID != "" {
		providers["github"] = oauth.NewGitHub(
			conf.OAuth.GitHub.ClientID, conf.OAuth.GitHub.ClientSecret,
			conf.AppURL+"/api/auth/callback/github", providerTimeout)
	}
	if conf.OAuth.Google.ClientID != "" {
		providers["google"] = oauth.NewGoogle(
			conf.OAuth.Google.ClientID, conf.OAuth.Google.ClientSecret,
			conf.AppURL+"/api/auth/callback/google", providerTimeout)
	}

	return &handler.RegisterConfig{
		Store:       store,
		Recommender: recommend.NewEngine(store),
		Catalog:     refresh.NewCatalogCache(store, conf.Catalog.RefreshSpec),
		Notifier:    notify.New(),
		Providers:   providers,
	}
}

func startServer(ctx context.Context, conf *config.Config, registerConfig *handler.RegisterConfig) {
	klog.Info("starting server")
	backend := internal.Register(registerConfig)

	// reference: https://gin-gonic.com/en/docs/examples/graceful-restart-or-stop
	srv := &http.Server{
		Addr:              conf.ServerAddr,
		Handler:           backend.R,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			klog.Fatalf("listen: %s\n", err)
		}
	}()

	<-ctx.Done()
	klog.Info("Shutdown Gin Server ...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		klog.Info("Gin Server Shutdown:", err)
	}
	klog.Info("Gin Server exiting")
}
