// ABOUTME: Top-level Gateway wiring the registry, router, store, cache, blobs, and jobs.
// ABOUTME: Owns the HTTP server lifecycle and ordered graceful shutdown.

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxmesh/voxmesh-gateway/internal/agent"
	"github.com/voxmesh/voxmesh-gateway/internal/blob"
	"github.com/voxmesh/voxmesh-gateway/internal/cache"
	"github.com/voxmesh/voxmesh-gateway/internal/config"
	"github.com/voxmesh/voxmesh-gateway/internal/jobs"
	"github.com/voxmesh/voxmesh-gateway/internal/pipeline"
	"github.com/voxmesh/voxmesh-gateway/internal/store"
)

// Gateway is the single process-wide instance tying everything
// together. Constructed once at startup and passed explicitly; the
// real-time state it holds is deliberately ephemeral.
type Gateway struct {
	cfg    *config.Config
	logger *slog.Logger

	store store.Store
	cache *cache.Cache
	blobs blob.ObjectStore
	jobs  *jobs.Queue

	agents   *agent.Manager
	presence *agent.Presence
	sessions *agent.Sessions
	router   *agent.Router

	upgrader   websocket.Upgrader
	httpServer *http.Server
}

// New constructs a Gateway from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	blobs, err := newObjectStore(cfg, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	manager := agent.NewManager(logger)
	presence := agent.NewPresence(manager, logger)
	sessions := agent.NewSessions(manager, logger)

	proc := newProcessor(cfg, logger)
	router := agent.NewRouter(agent.RouterConfig{
		Manager:          manager,
		Presence:         presence,
		Sessions:         sessions,
		Pipeline:         proc,
		SpeakingCooldown: cfg.Presence.SpeakingCooldown,
		PipelineTimeout:  cfg.Pipeline.Timeout,
		Logger:           logger,
	})

	queue := jobs.NewQueue(jobs.Config{
		Store:           st,
		Blobs:           blobs,
		Workers:         cfg.Jobs.Workers,
		QueueSize:       cfg.Jobs.QueueSize,
		CleanupInterval: cfg.Jobs.CleanupInterval,
		CleanupMaxAge:   cfg.Jobs.CleanupMaxAge,
		HealthInterval:  cfg.Jobs.HealthInterval,
		Logger:          logger,
	})

	g := &Gateway{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		cache:    cache.New(cfg.Cache.Size, cfg.Cache.TTL),
		blobs:    blobs,
		jobs:     queue,
		agents:   manager,
		presence: presence,
		sessions: sessions,
		router:   router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16384,
			WriteBufferSize: 16384,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	g.registerRoutes(mux)
	g.httpServer = &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: mux,
	}

	return g, nil
}

func newObjectStore(cfg *config.Config, logger *slog.Logger) (blob.ObjectStore, error) {
	if cfg.Storage.S3.Enabled {
		s3Store, err := blob.NewS3Store(context.Background(), blob.S3Config{
			Bucket:          cfg.Storage.S3.Bucket,
			Region:          cfg.Storage.S3.Region,
			AccessKeyID:     cfg.Storage.S3.AccessKeyID,
			SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing s3 storage: %w", err)
		}
		logger.Info("object storage: s3", "bucket", cfg.Storage.S3.Bucket, "region", cfg.Storage.S3.Region)
		return s3Store, nil
	}

	fsStore, err := blob.NewFSStore(cfg.Storage.LocalDir)
	if err != nil {
		return nil, fmt.Errorf("initializing local storage: %w", err)
	}
	logger.Info("object storage: local filesystem", "dir", cfg.Storage.LocalDir)
	return fsStore, nil
}

func newProcessor(cfg *config.Config, logger *slog.Logger) pipeline.Processor {
	if cfg.Pipeline.OpenAIAPIKey == "" {
		logger.Warn("no OpenAI API key configured, voice features disabled")
		return pipeline.Disabled{}
	}
	return pipeline.NewOpenAIProcessor(pipeline.OpenAIConfig{
		APIKey:             cfg.Pipeline.OpenAIAPIKey,
		TranscriptionModel: cfg.Pipeline.TranscriptionModel,
		ChatModel:          cfg.Pipeline.ChatModel,
		SpeechModel:        cfg.Pipeline.SpeechModel,
		SpeechVoice:        cfg.Pipeline.SpeechVoice,
	}, logger)
}

func (g *Gateway) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/", g.handleAgentSocket)

	mux.HandleFunc("/api/agents", g.handleListAgents)
	mux.HandleFunc("/api/sessions", g.handleListSessions)
	mux.HandleFunc("/api/items", g.handleItems)
	mux.HandleFunc("/api/items/", g.handleItemByID)
	mux.HandleFunc("/api/files", g.handleFiles)
	mux.HandleFunc("/api/files/", g.handleFileByID)

	mux.HandleFunc("/health", g.handleHealth)
	mux.HandleFunc("/health/ready", g.handleReady)

	if g.cfg.Metrics.Enabled {
		mux.Handle(g.cfg.Metrics.Path, promhttp.Handler())
	}
}

// Run starts the job queue and HTTP server and blocks until the
// context is cancelled or the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	g.jobs.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("http server listening", "addr", g.cfg.Server.HTTPAddr)
		if err := g.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		g.logger.Info("shutdown signal received")
		return g.Shutdown()
	case err := <-errCh:
		g.Shutdown()
		return fmt.Errorf("http server: %w", err)
	}
}

// Shutdown stops the server, drains the job queue, and closes the
// store. Presence and session state is ephemeral and needs no
// teardown.
func (g *Gateway) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	g.jobs.Stop()

	if err := g.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	return errors.Join(errs...)
}
