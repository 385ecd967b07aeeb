// Package bot wires a Telegram bot together: it authenticates the token,
// owns the handler registry and runs the configured update source.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jdelaire/tgrambot/adapters/botapi"
	"github.com/jdelaire/tgrambot/adapters/telegram_receiver"
	"github.com/jdelaire/tgrambot/adapters/telegram_webhook"
	"github.com/jdelaire/tgrambot/core"
	"github.com/jdelaire/tgrambot/core/event"
)

// ErrAuthentication is returned by New when the token is rejected by getMe.
var ErrAuthentication = errors.New("bot authentication failed")

const (
	defaultWebhookAddr = ":5000"
	defaultPollTimeout = 100
	pollSlack          = 15 * time.Second
)

// Options configures a Bot. Only Token is required.
type Options struct {
	Token string
	// Name namespaces the webhook route: /<Name>/webhook.
	Name string
	// Webhook selects webhook delivery instead of long polling.
	Webhook bool

	BaseURL    string
	HTTPClient *http.Client
	// PollTimeout is the getUpdates timeout in seconds; nil means 100 and
	// 0 selects short polling.
	PollTimeout    *int
	PollInterval   time.Duration
	AllowedUpdates []string

	WebhookAddr string
	SecretToken string
	// PublicURL, when set, is registered with setWebhook on Run.
	PublicURL string

	Logger *slog.Logger
}

// Bot is an authenticated bot with its handler registry.
type Bot struct {
	opts       Options
	client     *botapi.Client
	registry   *core.Registry
	dispatcher *core.Dispatcher
	me         *event.Event
	logger     *slog.Logger
}

// New checks the token with getMe and returns a bot ready for handler
// registration. An invalid token fails with ErrAuthentication.
func New(ctx context.Context, opts Options) (*Bot, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrAuthentication)
	}
	if opts.Webhook && opts.Name == "" {
		return nil, errors.New("webhook mode requires a bot name")
	}
	if opts.Name != "" {
		if err := telegram_webhook.ValidateName(opts.Name); err != nil {
			return nil, err
		}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.WebhookAddr == "" {
		opts.WebhookAddr = defaultWebhookAddr
	}
	if opts.Webhook && opts.PublicURL != "" && opts.SecretToken == "" {
		opts.SecretToken = uuid.NewString()
	}

	client := botapi.New(opts.Token)
	if opts.BaseURL != "" {
		client.WithBaseURL(opts.BaseURL)
	}
	switch {
	case opts.HTTPClient != nil:
		client.WithHTTPClient(opts.HTTPClient)
	case !opts.Webhook:
		// The long poll holds the request open for up to PollTimeout seconds.
		client.WithHTTPClient(&http.Client{Timeout: time.Duration(pollTimeout(opts))*time.Second + pollSlack})
	}

	registry := core.NewRegistry()
	b := &Bot{
		opts:       opts,
		client:     client,
		registry:   registry,
		dispatcher: core.NewDispatcher(registry, opts.Logger),
		logger:     opts.Logger,
	}

	me, err := b.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	b.me = me
	b.logger.Info("authenticated", "bot_id", me.Int("id"), "username", me.String("username"))
	return b, nil
}

func (b *Bot) authenticate(ctx context.Context) (*event.Event, error) {
	resp, err := b.client.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	var result map[string]any
	if err := resp.Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	return event.Materialize("BotInfo", result)
}

func pollTimeout(opts Options) int {
	if opts.PollTimeout != nil {
		return *opts.PollTimeout
	}
	return defaultPollTimeout
}

// Me is the getMe result captured at startup.
func (b *Bot) Me() *event.Event { return b.me }

// Client exposes the request builders.
func (b *Bot) Client() *botapi.Client { return b.client }

// Registry is the bot's handler registry.
func (b *Bot) Registry() *core.Registry { return b.registry }

// Dispatcher routes updates through the bot's registry.
func (b *Bot) Dispatcher() *core.Dispatcher { return b.dispatcher }

// WebhookPath is the route webhook mode serves.
func (b *Bot) WebhookPath() string { return "/" + b.opts.Name + "/webhook" }

// SecretToken is the webhook secret in effect, generated when PublicURL
// was given without one.
func (b *Bot) SecretToken() string { return b.opts.SecretToken }

// Run delivers updates until ctx is cancelled, by webhook or long polling
// depending on Options.Webhook. Registrations must be complete before Run.
func (b *Bot) Run(ctx context.Context) error {
	if b.opts.Webhook {
		return b.runWebhook(ctx)
	}
	return b.runPolling(ctx)
}

// Receiver builds the update source Run would start.
func (b *Bot) Receiver() core.Receiver {
	if b.opts.Webhook {
		return telegram_webhook.New(b.opts.WebhookAddr, b.opts.Name, b.dispatcher, b.logger).
			WithSecretToken(b.opts.SecretToken)
	}
	r := telegram_receiver.New(b.client, b.dispatcher, b.logger).
		WithAllowedUpdates(b.opts.AllowedUpdates)
	r.WithTimeout(pollTimeout(b.opts))
	if b.opts.PollInterval > 0 {
		r.WithInterval(b.opts.PollInterval)
	}
	return r
}

func (b *Bot) runPolling(ctx context.Context) error {
	b.logger.Info("running with long polling")
	// getUpdates is refused while a webhook is registered.
	if _, err := b.client.DeleteWebhook(ctx, nil); err != nil {
		b.logger.Warn("deleteWebhook failed", "error", err)
	}
	return b.Receiver().Start(ctx)
}

func (b *Bot) runWebhook(ctx context.Context) error {
	b.logger.Info("running with webhook", "addr", b.opts.WebhookAddr, "path", b.WebhookPath())
	if b.opts.PublicURL != "" {
		url := strings.TrimSuffix(b.opts.PublicURL, "/") + b.WebhookPath()
		opts := botapi.Params{"secret_token": b.opts.SecretToken}
		if len(b.opts.AllowedUpdates) > 0 {
			opts["allowed_updates"] = b.opts.AllowedUpdates
		}
		if _, err := b.client.SetWebhook(ctx, url, nil, opts); err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
		b.logger.Info("webhook registered", "url", url)
	}
	return b.Receiver().Start(ctx)
}
