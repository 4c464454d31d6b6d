package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/alphastore/apkstore/pkg/apkstore/admin"
	"github.com/alphastore/apkstore/pkg/apkstore/config"
	"github.com/alphastore/apkstore/pkg/apkstore/httpapi"
)

// HTTPConfig holds the server-level knobs read directly from the
// environment. Catalog and storage wiring comes from config.WithEnv.
type HTTPConfig struct {
	Port           string   `env:"PORT" env-default:"8080"`
	Environment    string   `env:"ENVIRONMENT" env-default:"development"`
	AdminCode      string   `env:"ADMIN_CODE"`
	PublicBaseURL  string   `env:"PUBLIC_BASE_URL" env-default:"http://localhost:8080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS"`
	MaxUploadBytes int64    `env:"MAX_UPLOAD_BYTES" env-default:"209715200"`
}

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	var httpCfg HTTPConfig
	if err := cleanenv.ReadEnv(&httpCfg); err != nil {
		log.Fatalf("Failed to read environment: %v", err)
	}

	serverConfig, err := config.Load(config.WithEnv(""))
	if err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	if serverConfig.DatabaseType == "postgres" {
		if err := config.PingPostgres(serverConfig.DatabaseURL, serverConfig.DBSchema); err != nil {
			log.Fatalf("Database check failed: %v", err)
		}
	}

	stack, err := serverConfig.BuildStack()
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}

	logger := httplog.NewLogger("apkstore", httplog.Options{
		LogLevel:       slog.LevelInfo,
		Concise:        true,
		JSON:           httpCfg.Environment == "production",
		RequestHeaders: false,
	})

	adminSvc := admin.New(stack.Catalog, stack.BlobStores, admin.WithLogger(logger.Logger))

	handler := httpapi.NewHandler(stack.Service, adminSvc, httpapi.Config{
		AdminCode:      httpCfg.AdminCode,
		MaxUploadBytes: httpCfg.MaxUploadBytes,
		PublicBaseURL:  httpCfg.PublicBaseURL,
		Logger:         logger.Logger,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	if len(httpCfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   httpCfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Admin-Code"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Mount("/api", handler.Routes())
	r.Get("/sitemap.xml", handler.Sitemap)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, "OK")
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", httpCfg.Port),
		Handler: r,
	}

	go func() {
		logger.Info("apkstore server starting",
			"port", httpCfg.Port,
			"environment", httpCfg.Environment,
			"database", serverConfig.DatabaseType,
			"storage", serverConfig.DefaultStorageBackend)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("server exited")
}
