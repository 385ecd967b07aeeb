package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jdelaire/tgrambot/bot"
	"github.com/jdelaire/tgrambot/core"
	"github.com/jdelaire/tgrambot/core/configwatch"
	"github.com/jdelaire/tgrambot/core/event"
	"github.com/jdelaire/tgrambot/internal/config"
	"github.com/jdelaire/tgrambot/internal/gateway"
	"github.com/jdelaire/tgrambot/internal/keychain"
)

func main() {
	storeToken := flag.Bool("store-token", false, "read a bot token from stdin and store it in the keychain")
	flag.Parse()

	if err := run(*storeToken); err != nil {
		fmt.Fprintf(os.Stderr, "tgrambot: %v\n", err)
		os.Exit(1)
	}
}

func run(storeToken bool) error {
	cfg, err := config.Load(keychain.Token)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if storeToken {
		return storeTokenFrom(os.Stdin, cfg.Bot.Name)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	level := new(slog.LevelVar)
	lvl, _ := config.ParseLevel(cfg.Log.Level)
	level.Set(lvl)
	logger := newLogger(os.Stderr, cfg.Log.Format, level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if path := config.Path(); path != "" {
		w := configwatch.New(2*time.Second, logger)
		w.Watch(path, reloadLevel(level, logger))
		go w.Run(ctx)
	}

	b, err := bot.New(ctx, bot.Options{
		Token:        cfg.Bot.Token,
		Name:         cfg.Bot.Name,
		Webhook:      cfg.Bot.Webhook,
		BaseURL:      cfg.API.BaseURL,
		PollTimeout:  &cfg.Polling.Timeout,
		PollInterval: cfg.PollInterval(),
		WebhookAddr:  cfg.Webhook.Addr,
		SecretToken:  cfg.Webhook.SecretToken,
		PublicURL:    cfg.Webhook.PublicURL,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	if cfg.Gateway.URL != "" {
		fwd := gateway.NewForwarder(cfg.Gateway.URL, cfg.Gateway.Token, logger)
		defer fwd.Close()
		for _, t := range core.UpdateTypes {
			if err := b.On(t, nil, fwd.Handler(t)); err != nil {
				return err
			}
		}
		logger.Info("forwarding updates to gateway", "url", cfg.Gateway.URL)
	} else {
		for _, t := range core.UpdateTypes {
			if err := b.On(t, nil, logUpdate(logger)); err != nil {
				return err
			}
		}
	}

	logger.Info("tgrambot starting", "bot", b.Me().String("username"), "webhook", cfg.Bot.Webhook)
	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("tgrambot stopped")
	return nil
}

func newLogger(w io.Writer, format string, level slog.Leveler) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// reloadLevel applies log.level from a changed config file. Other settings
// need a restart.
func reloadLevel(level *slog.LevelVar, logger *slog.Logger) configwatch.ReloadFunc {
	return func(string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}
		l, err := config.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		if l != level.Level() {
			level.Set(l)
			logger.Info("log level changed", "level", l)
		}
		return nil
	}
}

func logUpdate(logger *slog.Logger) core.Handler {
	return func(ctx context.Context, e *event.Event) error {
		logger.Info("update received",
			"dispatch_id", core.DispatchID(ctx),
			"update_type", e.Name(),
			"update", fmt.Sprintf("%#v", e),
		)
		return nil
	}
}

func storeTokenFrom(r io.Reader, name string) error {
	fmt.Fprint(os.Stderr, "bot token: ")
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return errors.New("empty token")
	}
	if err := keychain.SetToken(name, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	fmt.Fprintln(os.Stderr, "token stored in keychain")
	return nil
}
