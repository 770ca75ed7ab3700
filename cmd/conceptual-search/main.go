package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/databill86/dp-conceptual-search/internal/config"
	dbES "github.com/databill86/dp-conceptual-search/internal/db/elasticsearch"
	dbValkey "github.com/databill86/dp-conceptual-search/internal/db/valkey"
	"github.com/databill86/dp-conceptual-search/internal/domain"
	"github.com/databill86/dp-conceptual-search/internal/domain/field"
	"github.com/databill86/dp-conceptual-search/internal/domain/search/request"
	logpkg "github.com/databill86/dp-conceptual-search/internal/logger"
	"github.com/databill86/dp-conceptual-search/internal/metrics"
	"github.com/databill86/dp-conceptual-search/internal/repository/mlcache"
	chiTransport "github.com/databill86/dp-conceptual-search/internal/transport/chi"
	openaiML "github.com/databill86/dp-conceptual-search/internal/transport/openai"
	healthuc "github.com/databill86/dp-conceptual-search/internal/usecase/health"
	searchuc "github.com/databill86/dp-conceptual-search/internal/usecase/search"
	"github.com/databill86/dp-conceptual-search/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting conceptual search API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("es_addresses", cfg.Elasticsearch.Addresses),
		zap.String("index", cfg.Elasticsearch.Index),
	)

	metrics.RegisterMLMetrics()
	metrics.RegisterSearchMetrics()

	store, err := dbES.NewStore(dbES.Config{
		Addresses: cfg.Elasticsearch.Addresses,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
		Index:     cfg.Elasticsearch.Index,
		Timeout:   cfg.Elasticsearch.Timeout(),
	})
	if err != nil {
		logger.Fatal("Failed to create document store", zap.Error(err))
	}

	ctx := context.Background()

	// Cache is optional: a nil cache leaves the ML client undecorated.
	var cache *dbValkey.Store
	if cfg.Cache.Enabled {
		cache, err = dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cache.Close()

		if err := cache.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	model, checker := buildModel(cfg, cache, logger)

	searchSvc := searchuc.New(store, model, field.Default(cfg.ML.Dimensions), searchuc.Config{
		NumLabels:       cfg.ML.NumLabels,
		Threshold:       cfg.ML.Threshold,
		MLTimeout:       cfg.ML.Timeout(),
		MaxVisibleLinks: cfg.Search.MaxVisibleLinks,
		HighlightTag:    cfg.Search.HighlightTag,
		MinTokenSize:    cfg.Search.MinTokenSize,
		BoostMode:       cfg.Search.BoostMode,
		MinScore:        cfg.Search.MinScore,
		LexicalFallback: *cfg.Search.LexicalFallback,
		RequireVector:   cfg.Search.RequireVector,
	})

	// Pass nil interfaces, not typed nil pointers, for absent components.
	var cachePinger healthuc.CachePinger
	if cache != nil {
		cachePinger = cache
	}
	healthSvc := healthuc.New(store, cachePinger, checker)

	server := chiTransport.NewServer(searchSvc, healthSvc, request.Limits{
		DefaultPageSize: cfg.Search.ResultsPerPage,
		MaxPageSize:     cfg.Search.MaxRequestSize,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildModel assembles the ML chain: OpenAI -> Cached. Without an API key
// content searches run on the lexical baseline and both results are nil.
func buildModel(cfg config.Config, cache *dbValkey.Store, logger *zap.Logger) (searchuc.Model, healthuc.ModelChecker) {
	if cfg.ML.APIKey == "" {
		logger.Warn("ML provider not configured, semantic scoring disabled")
		return nil, nil
	}

	client := openaiML.NewClient(&openaiML.Config{
		APIKey:         cfg.ML.APIKey,
		BaseURL:        cfg.ML.BaseURL,
		EmbeddingModel: cfg.ML.EmbeddingModel,
		Dimensions:     cfg.ML.Dimensions,
		KeywordModel:   cfg.ML.KeywordModel,
		Logger:         logger,
	})
	logger.Info("ML client created",
		zap.String("embedding_model", cfg.ML.EmbeddingModel),
		zap.Int("dimensions", cfg.ML.Dimensions),
		zap.String("keyword_model", cfg.ML.KeywordModel),
	)

	var model domain.Model = client
	if cache != nil {
		namespace := fmt.Sprintf("%s:%d:%s", cfg.ML.EmbeddingModel, cfg.ML.Dimensions, cfg.ML.KeywordModel)
		model = mlcache.New(client, cache, cfg.Cache.TTL(), namespace, metrics.MLCacheTotal, logger)
	}
	return model, client
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.CodeInternal,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.Query().Get("q")),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
