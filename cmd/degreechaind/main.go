package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/credentia/degreechain/internal/auth"
	"github.com/credentia/degreechain/internal/degree"
	"github.com/credentia/degreechain/internal/handler"
	"github.com/credentia/degreechain/internal/ledger"
	"github.com/credentia/degreechain/internal/verifier"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	if err := run(logger); err != nil {
		logger.Fatal("degreechaind exited with error", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	// ── Configuration ────────────────────────────────────────────────────────
	viper.SetConfigName("degreechain")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	viper.SetDefault("server.rate_limit_rps", 20)
	viper.SetDefault("server.max_upload_bytes", 10<<20)
	viper.SetDefault("ledger.path", "blockchain.json")
	viper.SetDefault("database.url", "")
	viper.SetDefault("auth.secret", "")
	viper.SetDefault("auth.token_ttl", "12h")
	viper.SetDefault("verifiers.registry", map[string]string{})
	viper.SetDefault("verifiers.credentials", map[string]string{})

	if err := viper.ReadInConfig(); err != nil {
		var cfgNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgNotFound) {
			return fmt.Errorf("read config: %w", err)
		}
		logger.Warn("no config file found, using defaults and env vars")
	}

	// ── Ledger chain ─────────────────────────────────────────────────────────
	store := ledger.NewFileStore(viper.GetString("ledger.path"), logger)
	chain, err := ledger.New(context.Background(), store, logger)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	handler.SetChainBlocks(chain.Len())

	if issues := chain.Audit(); len(issues) > 0 {
		// Expected whenever verifications have been applied to sealed blocks.
		logger.Warn("ledger audit found integrity issues", zap.Int("count", len(issues)))
	} else {
		tip, _ := chain.Latest()
		logger.Info("ledger audit clean", zap.Int("blocks", chain.Len()), zap.String("tip", tip.Hash))
	}

	// ── Degree cache (optional PostgreSQL) ───────────────────────────────────
	var cache degree.Cache
	if dbURL := viper.GetString("database.url"); dbURL != "" {
		db, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer db.Close()
		if err := db.Ping(context.Background()); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		logger.Info("connected to postgres")
		cache = degree.NewPostgresCache(db)
	} else {
		cache = degree.NewNoopCache(logger)
		logger.Info("degree cache: noop (set database.url to enable postgres)")
	}

	// ── Verifier registry + authority auth ───────────────────────────────────
	verifiers := verifier.NewRegistry(viper.GetStringMapString("verifiers.registry"))

	var tokens *auth.TokenIssuer
	if secret := viper.GetString("auth.secret"); secret != "" {
		ttl := viper.GetDuration("auth.token_ttl")
		issuerURL := fmt.Sprintf("http://localhost:%d", viper.GetInt("server.port"))
		tokens = auth.NewTokenIssuer([]byte(secret), issuerURL, ttl)
		logger.Info("authority auth enabled", zap.Duration("token_ttl", ttl))
	} else {
		logger.Warn("authority auth disabled, AUTH_SECRET is not set; do not use in production")
	}
	creds := auth.NewCredentialStore(viper.GetStringMapString("verifiers.credentials"))

	// ── Wire up layers ───────────────────────────────────────────────────────
	svc := degree.NewService(chain, verifiers, cache, logger)

	degreeHandler := handler.NewDegreeHandler(svc, tokens, logger)
	chainHandler := handler.NewChainHandler(chain, logger)
	authHandler := handler.NewAuthHandler(creds, tokens, verifiers, logger)

	// ── HTTP Router ──────────────────────────────────────────────────────────
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	corsOrigins := viper.GetStringSlice("server.cors_origins")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !containsWildcard(corsOrigins),
		MaxAge:           12 * time.Hour,
	}))

	// Security headers
	router.Use(func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})

	// Request ID: honour an inbound X-Request-ID, mint one otherwise.
	router.Use(func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set("request_id", reqID)
		c.Header("X-Request-ID", reqID)
		c.Next()
	})

	// Request body size limit (degree documents are capped here)
	maxUpload := viper.GetInt64("server.max_upload_bytes")
	router.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload)
		c.Next()
	})

	if rps := viper.GetInt("server.rate_limit_rps"); rps > 0 {
		router.Use(handler.RateLimiter(rps, rps*2))
	}

	router.Use(handler.PrometheusMiddleware())
	router.Use(requestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", handler.MetricsHandler())

	v1 := router.Group("/api/v1")
	degreeHandler.Register(v1)
	chainHandler.Register(v1)
	authHandler.Register(v1)

	// ── Serve ────────────────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Keep the block gauge fresh without touching the request path.
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				handler.SetChainBlocks(chain.Len())
			case <-done:
				return
			}
		}
	}()

	httpPort := viper.GetInt("server.port")
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", httpPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("degreechaind listening", zap.Int("port", httpPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP listen error", zap.Error(err))
		}
	}()

	<-quit
	close(done)
	logger.Info("shutting down degreechaind...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	logger.Info("degreechaind stopped")
	return nil
}

// containsWildcard returns true if origins includes "*".
func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}

// requestLogger returns a Gin middleware that logs each request with zap.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")),
		)
	}
}
