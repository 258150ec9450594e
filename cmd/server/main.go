package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"certforge/internal/anchor"
	"certforge/internal/db"
	"certforge/internal/extract"
	"certforge/internal/handlers"
	"certforge/internal/ipfs"
	"certforge/internal/issue"
	"certforge/internal/router"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("failed to init logger: ", err)
	}
	defer logger.Sync()

	db.Init()
	if err := handlers.SeedAdmin(); err != nil {
		logger.Warn("admin seed skipped", zap.Error(err))
	}

	anchorer, err := anchor.NewFromEnv()
	if err != nil {
		logger.Fatal("anchor config invalid", zap.Error(err))
	}
	if anchorer != nil {
		logger.Info("fingerprint anchoring enabled", zap.String("signer", anchorer.SignerAddress()))
	}

	var cache *redis.Client
	if url := os.Getenv("REDIS_URL"); url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			logger.Fatal("bad REDIS_URL", zap.Error(err))
		}
		cache = redis.NewClient(opts)
	}

	pipeline := &issue.Pipeline{
		DB:        db.DB,
		Logger:    logger,
		Anchorer:  anchorer,
		Pinner:    ipfs.NewFromEnv(),
		UploadDir: os.Getenv("UPLOAD_DIR"),
	}
	handlers.Setup(logger, pipeline, extract.NewGeminiExtractor(), cache)

	addr := ":" + envOr("PORT", "8080")
	logger.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, router.RegisterRouter(logger)); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
