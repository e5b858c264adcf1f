package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/runixer/botapi/internal/bot"
	"github.com/runixer/botapi/internal/config"
	"github.com/runixer/botapi/internal/storage"
	"github.com/runixer/botapi/internal/web"
	"github.com/runixer/botapi/pkg/polling"
	"github.com/runixer/botapi/pkg/telegram"
)

// Services holds everything the echobot needs to run.
type Services struct {
	Client *telegram.Client
	Store  *storage.SQLiteStore // nil when database.path is empty
	Bot    *bot.Bot
	Poller *polling.Poller
	Web    *web.Server

	logger *slog.Logger
}

// Setup builds the client, the optional offset store, the bot, the poller
// and the ops server. It calls getMe, so an invalid token fails here.
//
// The caller is responsible for calling Close.
func Setup(ctx context.Context, logger *slog.Logger, cfg *config.Config, clientOpts ...telegram.Option) (*Services, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	opts := []telegram.Option{telegram.WithLogger(logger)}
	if cfg.Telegram.Host != "" {
		opts = append(opts, telegram.WithHost(cfg.Telegram.Host))
	}
	if cfg.Telegram.ProxyURL != "" {
		opts = append(opts, telegram.WithProxyURL(cfg.Telegram.ProxyURL))
	}
	opts = append(opts, clientOpts...)

	client, err := telegram.NewClient(cfg.Telegram.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}

	me, err := client.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get bot info: %w", err)
	}
	name := me.FirstName
	if name == "" {
		name = me.Username
	}
	logger.Info("Authorized", "bot_id", me.ID, "username", me.Username)

	s := &Services{Client: client, logger: logger}
	s.Bot = bot.NewBot(logger, client, name, me.Username)

	if cfg.Bot.RegisterCommands {
		if err := s.Bot.SetCommands(ctx); err != nil {
			logger.Warn("failed to register bot commands", "error", err)
		}
	}

	pollOpts := []polling.Option{
		polling.WithLogger(logger),
		polling.WithInterval(cfg.Polling.GetInterval()),
		polling.WithLongPollTimeout(cfg.Polling.Timeout),
		polling.WithLimit(cfg.Polling.Limit),
		polling.WithAllowedUpdates(cfg.Polling.AllowedUpdates...),
		polling.WithDevMode(cfg.Polling.DevMode),
	}

	if cfg.Database.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		store, err := storage.NewSQLiteStore(logger, cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open offset store: %w", err)
		}
		if err := store.Init(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to init offset store: %w", err)
		}
		s.Store = store

		botID, _, _ := strings.Cut(cfg.Telegram.Token, ":")
		pollOpts = append(pollOpts, polling.WithOffsetStore(store.Offsets(botID)))
	}

	s.Poller = polling.New(client, s.Bot, pollOpts...)
	s.Web = web.NewServer(logger, cfg.Server.ListenPort, s.Poller)
	return s, nil
}

// Run polls until ctx is cancelled, the loop fails in dev mode, or the ops
// server fails. It always stops the poller and waits for it before returning.
func (s *Services) Run(ctx context.Context) error {
	webCtx, cancelWeb := context.WithCancel(ctx)
	defer cancelWeb()

	webErr := make(chan error, 1)
	go func() { webErr <- s.Web.Start(webCtx) }()

	if _, err := s.Poller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}
	pollDone := make(chan error, 1)
	go func() { pollDone <- s.Poller.Wait() }()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down")
		s.stopPoller()
		return <-pollDone
	case err := <-pollDone:
		if err != nil {
			return fmt.Errorf("polling stopped: %w", err)
		}
		return nil
	case err := <-webErr:
		s.stopPoller()
		<-pollDone
		return fmt.Errorf("web server failed: %w", err)
	}
}

func (s *Services) stopPoller() {
	// The loop may already have exited on its own after ctx was cancelled.
	if err := s.Poller.Stop(); err != nil && !errors.Is(err, polling.ErrNotRunning) {
		s.logger.Warn("failed to stop polling", "error", err)
	}
}

// Close releases the offset store.
func (s *Services) Close() error {
	if s.Store == nil {
		return nil
	}
	return s.Store.Close()
}
