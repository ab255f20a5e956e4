package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/krishisakhi/analysis-api/internal/application"
	appanalysis "github.com/krishisakhi/analysis-api/internal/application/analysis"
	"github.com/krishisakhi/analysis-api/internal/config"
	domain "github.com/krishisakhi/analysis-api/internal/domain/analysis"
	"github.com/krishisakhi/analysis-api/internal/domain/failures"
	"github.com/krishisakhi/analysis-api/internal/infra/ai/gemini"
	aiopenai "github.com/krishisakhi/analysis-api/internal/infra/ai/openai"
	"github.com/krishisakhi/analysis-api/internal/infra/ai/prompt"
	mysqlp "github.com/krishisakhi/analysis-api/internal/infra/db/mysql"
	postgresp "github.com/krishisakhi/analysis-api/internal/infra/db/postgres"
	"github.com/krishisakhi/analysis-api/internal/infra/httpserver"
	minioStore "github.com/krishisakhi/analysis-api/internal/infra/storage"
	"github.com/krishisakhi/analysis-api/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect database (postgres default, mysql opsional)
	var (
		repo     domain.Repository
		failRepo failures.Repository
		checker  middleware.HealthChecker
	)
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		defer db.Close()
		repo = mysqlp.NewAnalysisRepository(db)
		failRepo = mysqlp.NewFailureRepository(db)
		checker = &middleware.DatabaseHealthChecker{DB: db}
	default:
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		defer db.Close()
		repo = postgresp.NewAnalysisRepository(db)
		failRepo = postgresp.NewFailureRepository(db)
		checker = &middleware.DatabaseHealthChecker{DB: db}
	}

	// init minio (opsional; tanpa endpoint lampiran tidak disimpan)
	var images domain.ImageStore
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		images = store
	}

	// init model gateway
	var model domain.ModelClient
	switch cfg.AI.Provider {
	case "openai":
		model = aiopenai.NewClient(cfg.AI.APIKey, cfg.AI.Model)
	default:
		model = gemini.NewClient(cfg.AI.APIKey, cfg.AI.Model)
	}

	// init service
	svc := &appanalysis.Service{
		Repo:     repo,
		Model:    model,
		Prompts:  prompt.New(),
		Images:   images,
		Failures: failRepo,
		Clock:    application.SystemClock{},
		Timeout:  cfg.ModelTimeout(),
	}

	// init router
	mux := chi.NewRouter()
	mux.Use(middleware.MetricsMiddleware)
	if len(cfg.Auth.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	}
	if cfg.RateLimit.Capacity > 0 {
		mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))
	}
	mux.Use(middleware.LoggingMiddleware)
	mux.Get("/healthz", middleware.HealthHandler(map[string]middleware.HealthChecker{"database": checker}))
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Mount("/", httpserver.NewRouter(svc))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// model calls can run long; keep the write window above the model timeout
		WriteTimeout: cfg.ModelTimeout() + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
