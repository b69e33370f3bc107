// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/yonagi/kiroku/internal/api"
	"github.com/yonagi/kiroku/internal/diary"
	"github.com/yonagi/kiroku/internal/discord"
	"github.com/yonagi/kiroku/internal/heic"
	"github.com/yonagi/kiroku/internal/index"
	"github.com/yonagi/kiroku/internal/notion"
	"github.com/yonagi/kiroku/internal/ogp"
	"github.com/yonagi/kiroku/internal/sse"
	"github.com/yonagi/kiroku/internal/status"
	"github.com/yonagi/kiroku/internal/urlrule"
	"github.com/yonagi/kiroku/pkg/config"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("diary_channel", cfg.Discord.DiaryChannelID),
		slog.Int("url_rules", len(cfg.Diary.URLRules)),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Compile URL rules. A broken rule set is a startup error; hot reloads
	// later keep the previous set instead.
	compiled, err := urlrule.Compile(cfg.Diary.URLRules, cfg.Diary.DefaultConvertTo)
	if err != nil {
		return fmt.Errorf("compile url rules: %w", err)
	}
	rules := urlrule.NewRules(compiled)

	var loc *time.Location
	if cfg.Diary.Timezone != "" {
		loc, err = time.LoadLocation(cfg.Diary.Timezone)
		if err != nil {
			return fmt.Errorf("load timezone: %w", err)
		}
	}

	// Notion client.
	doc := notion.NewClient(notion.ClientConfig{
		Token:         cfg.Notion.Token,
		DatabaseID:    cfg.Notion.DatabaseID,
		TitleProperty: cfg.Notion.TitleProperty,
		Tags:          cfg.Notion.Tags,
		Timeout:       cfg.Notion.Timeout,
	})

	// Optional OGP captions for bookmark blocks.
	var caption diary.CaptionFunc
	if cfg.Diary.OGP.Enabled {
		fetcher := ogp.NewFetcher(cfg.Diary.OGP.Timeout)
		caption = func(ctx context.Context, url string) string {
			meta, fetchErr := fetcher.Fetch(ctx, url)
			if fetchErr != nil {
				logger.Debug("ogp fetch failed",
					slog.String("url", url),
					slog.String("error", fetchErr.Error()))
				return ""
			}
			return meta.Caption()
		}
	}

	syncer := diary.NewSyncer(diary.SyncerConfig{
		Doc:      doc,
		Index:    db,
		Rules:    rules,
		Download: discord.NewHTTPDownloader(0),
		Convert:  heic.ConvertToJPEG,
		Caption:  caption,
		Location: loc,
		Logger:   logger,
	})

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	// Discord bot.
	bot, err := discord.New(cfg.Discord.BotConfig(cfg.Status.Broadcast), syncer, broker, logger)
	if err != nil {
		return fmt.Errorf("init discord bot: %w", err)
	}

	// Build API router.
	apiRouter := api.NewRouter(db, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(runCtx)

	// Start Discord gateway.
	g.Go(func() error {
		if err := bot.Run(gCtx); err != nil {
			return fmt.Errorf("discord bot error: %w", err)
		}
		return nil
	})

	// Hot-reload URL rules when the config file changes.
	if app.configPath != "" {
		configPath := app.configPath
		g.Go(func() error {
			recompile := func() (*urlrule.CompiledRules, error) {
				fresh := NewDefaultConfig()
				if loadErr := config.Load(configPath, fresh); loadErr != nil {
					return nil, loadErr
				}
				return urlrule.Compile(fresh.Diary.URLRules, fresh.Diary.DefaultConvertTo)
			}
			if watchErr := urlrule.Watch(gCtx, configPath, rules, recompile, logger); watchErr != nil {
				logger.Warn("rule watcher unavailable", slog.String("error", watchErr.Error()))
			}
			return nil
		})
	}

	// Periodic server status checks reported to the status channel.
	if cfg.Discord.StatusChannelID != "" && len(cfg.Discord.Servers) > 0 && cfg.Status.Interval > 0 {
		servers := make([]status.Server, len(cfg.Discord.Servers))
		for i, s := range cfg.Discord.Servers {
			servers[i] = status.Server{Name: s.Name, Addr: s.IP}
		}
		monitor := status.NewMonitor(servers, cfg.Status.Interval, cfg.Status.Timeout, logger)
		g.Go(func() error {
			monitor.Run(gCtx, bot.PostStatus)
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		cancel()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
