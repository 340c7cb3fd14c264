package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/maneesh/mediabin/internal/audit"
	"github.com/maneesh/mediabin/internal/config"
	"github.com/maneesh/mediabin/internal/handlers"
	"github.com/maneesh/mediabin/internal/metadata"
	"github.com/maneesh/mediabin/internal/ratelimit"
	"github.com/maneesh/mediabin/internal/storage"
	"github.com/maneesh/mediabin/internal/thumbnail"
	"github.com/maneesh/mediabin/internal/tracing"
	"github.com/spf13/afero"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	_ = godotenv.Load()

	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		Prefix:          "mediabin",
	})
	if os.Getenv("DEBUG") == "1" {
		logger.SetLevel(charmlog.DebugLevel)
	}

	logger.Info("starting mediabin service")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}

	logger.Info("configuration loaded", "service", cfg.ServiceName, "port", cfg.ServicePort, "backend", cfg.StorageBackend)

	// Initialize OpenTelemetry tracing
	shutdownTracer, err := tracing.InitTracer(cfg.ServiceName, cfg.JaegerEndpoint)
	if err != nil {
		logger.Fatal("failed to initialize tracer", "error", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			logger.Error("error shutting down tracer", "error", err)
		}
	}()

	appFs := afero.NewOsFs()

	// Blob storage backend: local disk by default, MinIO when configured
	var blobs storage.BlobStore
	switch cfg.StorageBackend {
	case "minio":
		logger.Info("connecting to MinIO", "endpoint", cfg.MinIOEndpoint)
		minioStore, err := storage.NewMinioStore(
			cfg.MinIOEndpoint,
			cfg.MinIOAccessKey,
			cfg.MinIOSecretKey,
			cfg.MinIOBucketName,
			cfg.PublicBaseURL,
			cfg.MinIOUseSSL,
		)
		if err != nil {
			logger.Fatal("failed to initialize MinIO store", "error", err)
		}
		blobs = minioStore
	default:
		localStore, err := storage.NewLocalStore(appFs, cfg.UploadDir, cfg.PublicBaseURL)
		if err != nil {
			logger.Fatal("failed to initialize local store", "error", err)
		}
		blobs = localStore
	}

	// Listing cache is optional; an empty REDIS_HOST leaves it off
	var cache *storage.ListingCache
	if cfg.RedisEnabled() {
		logger.Info("connecting to Redis", "addr", cfg.GetRedisAddr())
		cache, err = storage.NewListingCache(cfg.GetRedisAddr(), cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal("failed to initialize listing cache", "error", err)
		}
		defer cache.Close()
	} else {
		logger.Info("listing cache disabled")
	}

	catalog, err := metadata.NewStore(appFs, cfg.DataDir)
	if err != nil {
		logger.Fatal("failed to initialize metadata store", "error", err)
	}

	limiter := ratelimit.New(cfg.RateLimitMax, cfg.GetRateWindow())
	thumbs := thumbnail.NewFFmpeg(logger)

	auditRec := audit.NewRecorder(logger)
	defer auditRec.Close()

	uploadHandler := handlers.NewUploadHandler(
		limiter, blobs, catalog, thumbs, cache, auditRec, logger,
		cfg.GetThumbnailTimeout(), cfg.GetMaxUploadBytes(),
	)
	listHandler := handlers.NewListHandler(catalog, cache, logger)

	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	router.Handle("/upload", otelhttp.NewHandler(uploadHandler, "POST /upload")).Methods("POST")
	router.Handle("/files", otelhttp.NewHandler(listHandler, "GET /files")).Methods("GET")

	// Stored assets and generated thumbnails are served statically when the
	// local backend is active; with MinIO the URLs point at the bucket.
	if cfg.StorageBackend == "local" {
		router.PathPrefix("/cdn/").Handler(
			http.StripPrefix("/cdn/", http.FileServer(http.Dir(cfg.UploadDir))))
	}
	router.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	srv := &http.Server{
		Addr:         ":" + cfg.ServicePort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.ServicePort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
