// cmd/spendquery-server/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"spendquery/internal/common/cache"
	"spendquery/internal/common/config"
	"spendquery/internal/common/logger"
	"spendquery/internal/common/observability"
	"spendquery/internal/conversation"
	"spendquery/internal/engine"
	"spendquery/internal/ratelimit"
	"spendquery/internal/regulations"
	"spendquery/internal/spending"
	"spendquery/pkg/registry"

	sa "spendquery/internal/tools/search-awards"
	sr "spendquery/internal/tools/search-regulations"
	sbr "spendquery/internal/tools/spending-by-recipient"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// toolHandler is the common shape every tool exposes.
type toolHandler interface {
	Handle(ctx context.Context, rawInput []byte) (interface{}, error)
}

// handlerFunc adapts a typed tool handler to toolHandler.
type handlerFunc func(ctx context.Context, rawInput []byte) (interface{}, error)

func (f handlerFunc) Handle(ctx context.Context, rawInput []byte) (interface{}, error) {
	return f(ctx, rawInput)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting spendquery server...",
		zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.App.Name, os.Getenv("JAEGER_ENDPOINT"))
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis with retry (conversation history, optional) ---
	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = cache.NewRedis(cfg.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		zapLog.Info("Redis connected successfully")
	} else {
		zapLog.Info("Redis disabled, conversation history not persisted")
	}

	// --- Load regulation corpus ---
	corpus, err := regulations.Load(cfg.Corpus.Path, log)
	if err != nil {
		zapLog.Fatal("corpus load failed", zap.Error(err))
	}

	// --- Load tool registry ---
	toolRegistry, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("registry load failed", zap.Error(err))
	}
	zapLog.Info("Tool registry loaded", zap.Int("tools", len(toolRegistry.Tools)))

	// --- Wire the query pipeline ---
	limiter := ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSecond)
	spendingClient := spending.NewClient(cfg.API, cfg.Retry, limiter, log)
	store := conversation.NewStore(redisClient, config.GetDuration(cfg.Redis.TurnTTL), log)
	eng := engine.New(spendingClient, store, log, obs)

	// --- Register tool handlers ---
	handlers := make(map[string]toolHandler)

	if config.IsToolEnabled(cfg, sa.ToolName) {
		h := sa.NewHandler(sa.LoadConfig(cfg), eng, log, obs)
		handlers[sa.ToolName] = handlerFunc(func(ctx context.Context, raw []byte) (interface{}, error) {
			return h.Handle(ctx, raw)
		})
	}
	if config.IsToolEnabled(cfg, sbr.ToolName) {
		h := sbr.NewHandler(sbr.LoadConfig(cfg), eng, log, obs)
		handlers[sbr.ToolName] = handlerFunc(func(ctx context.Context, raw []byte) (interface{}, error) {
			return h.Handle(ctx, raw)
		})
	}
	if config.IsToolEnabled(cfg, sr.ToolName) {
		h := sr.NewHandler(sr.LoadConfig(cfg), corpus, log, obs)
		handlers[sr.ToolName] = handlerFunc(func(ctx context.Context, raw []byte) (interface{}, error) {
			return h.Handle(ctx, raw)
		})
	}
	zapLog.Info("Tool handlers registered", zap.Int("count", len(handlers)))

	// --- HTTP surface ---
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.HandleFunc("/tools/", newToolDispatcher(handlers, toolRegistry, log))
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: mux,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLog.Info("Server stopped")
}

// newToolDispatcher routes POST /tools/{name}, validating the body against
// the registry schema before invoking the handler.
func newToolDispatcher(handlers map[string]toolHandler, reg *registry.ToolRegistry, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		name := r.URL.Path[len("/tools/"):]
		handler, ok := handlers[name]
		if !ok {
			http.Error(w, fmt.Sprintf("unknown tool %q", name), http.StatusNotFound)
			return
		}

		var body json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "request body must be JSON", http.StatusBadRequest)
			return
		}

		if tool, found := reg.FindTool(name); found {
			if err := tool.ValidateInput(body); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		output, err := handler.Handle(r.Context(), body)
		if err != nil {
			log.Error("tool invocation failed", map[string]interface{}{
				"tool":  name,
				"error": err.Error(),
			})
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(output); err != nil {
			log.Error("response encoding failed", map[string]interface{}{
				"tool":  name,
				"error": err.Error(),
			})
		}
	}
}
