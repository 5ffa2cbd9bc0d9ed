package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	sfhttp "github.com/Strob0t/StoryForge/internal/adapter/http"
	"github.com/Strob0t/StoryForge/internal/adapter/mcp"
	sfnats "github.com/Strob0t/StoryForge/internal/adapter/nats"
	"github.com/Strob0t/StoryForge/internal/adapter/natskv"
	"github.com/Strob0t/StoryForge/internal/adapter/otel"
	"github.com/Strob0t/StoryForge/internal/adapter/ristretto"
	"github.com/Strob0t/StoryForge/internal/adapter/tiered"
	"github.com/Strob0t/StoryForge/internal/adapter/ws"
	"github.com/Strob0t/StoryForge/internal/config"
	"github.com/Strob0t/StoryForge/internal/middleware"
	"github.com/Strob0t/StoryForge/internal/port/cache"
	"github.com/Strob0t/StoryForge/internal/port/messagequeue"
	"github.com/Strob0t/StoryForge/internal/service"
)

const idempotencyTTL = 24 * time.Hour

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, WebSocket and MCP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	slog.Info("config loaded",
		"path", a.cfgPath,
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"log_level", cfg.Logging.Level,
	)

	// --- Telemetry ---
	shutdownOTEL, err := otel.Setup(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTEL(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()
	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	slog.Info("document store ready", "driver", cfg.Store.Driver)

	llm, gen := newGenerator(cfg)
	if gen == nil {
		slog.Warn("litellm url not set, generation disabled")
	}

	var queue *sfnats.Queue
	if cfg.NATS.URL != "" {
		queue, err = sfnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, change events disabled", "error", err)
			queue = nil
		} else {
			defer func() { _ = queue.Drain() }()
		}
	}

	layoutCache, closeLayout, err := newLayoutCache(ctx, cfg, queue)
	if err != nil {
		return err
	}
	defer closeLayout()
	idemCache, err := ristretto.New("idempotency", cfg.Cache.L1MaxSizeMB/4)
	if err != nil {
		return fmt.Errorf("idempotency cache: %w", err)
	}
	defer idemCache.Close()

	// --- Services ---
	hub := ws.NewHub(originHosts(cfg.Server.CORSOrigin)...)
	defer hub.Close()

	svc := service.NewStoryMapService(store, gen, cfg.Generator)
	svc.SetCache(layoutCache, cfg.Cache.LayoutTTL)
	svc.SetBroadcaster(hub)
	svc.SetMetrics(metrics)
	if queue != nil {
		svc.SetQueue(queue)
		cancelEvents, err := queue.Subscribe(ctx, messagequeue.SubjectStoryMapAll, logEvent)
		if err != nil {
			return fmt.Errorf("event subscriber: %w", err)
		}
		defer cancelEvents()
	}

	// --- HTTP ---
	handlers := &sfhttp.Handlers{StoryMaps: svc, Version: version}
	if llm != nil {
		handlers.Generator = llm
	}
	if queue != nil {
		handlers.Queue = queue
	}

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	opts := sfhttp.RouteOptions{
		RateLimiter:      limiter,
		IdempotencyCache: idemCache,
		IdempotencyTTL:   idempotencyTTL,
		WS:               hub.HandleWS,
	}
	if cfg.MCP.Enabled {
		opts.MCP = mcp.NewServer(mcp.ServerConfig{
			Name:    "storyforge",
			Version: version,
			APIKey:  cfg.MCP.APIKey,
		}, svc).Handler()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(sfhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(sfhttp.SecurityHeaders)
	r.Use(sfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(otel.HTTPMiddleware(cfg.OTEL.ServiceName))
	sfhttp.MountRoutes(r, handlers, opts)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout(cfg),
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		hub.Close()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		limiter.RunCleanup(gctx, cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
		return nil
	})
	return g.Wait()
}

// newLayoutCache builds the layout cache: an in-process L1, backed by a NATS
// KV bucket when a queue is available. The returned func releases the L1.
func newLayoutCache(ctx context.Context, cfg *config.Config, queue *sfnats.Queue) (cache.Cache, func(), error) {
	l1, err := ristretto.New("layout", cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return nil, nil, fmt.Errorf("l1 cache: %w", err)
	}
	var l2 cache.Cache
	if queue != nil {
		kv, err := queue.KeyValue(ctx, cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
		if err != nil {
			slog.Warn("layout l2 cache disabled", "bucket", cfg.Cache.L2Bucket, "error", err)
		} else {
			l2 = natskv.New(kv)
		}
	}
	return tiered.New(l1, l2, cfg.Cache.LayoutTTL), l1.Close, nil
}

// writeTimeout leaves room for a generation with one malformed retry.
func writeTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Generator.MalformedRetries+1)*cfg.Generator.Timeout + 10*time.Second
}

// originHosts turns the comma-separated CORS origins into WebSocket origin
// patterns, which match on host only.
func originHosts(origins string) []string {
	var out []string
	for _, o := range strings.Split(origins, ",") {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			o = u.Host
		}
		out = append(out, o)
	}
	return out
}

// logEvent records story map change events published by any instance.
func logEvent(ctx context.Context, subject string, data []byte) error {
	var p messagequeue.StoryMapPayload
	_ = json.Unmarshal(data, &p)
	slog.DebugContext(ctx, "story map event", "subject", subject, "doc_id", p.ID, "saved", p.Saved)
	return nil
}
