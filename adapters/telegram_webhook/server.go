package telegram_webhook

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"time"

	"github.com/jdelaire/tgrambot/core"
	"github.com/jdelaire/tgrambot/core/policy"
	"github.com/jdelaire/tgrambot/core/ratelimit"
)

const (
	// SecretHeader carries the secret_token given to setWebhook.
	SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

	maxBodyBytes    = 10 << 20
	shutdownTimeout = 5 * time.Second
)

var validName = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateName reports whether name can be used as the /<name>/webhook
// path segment.
func ValidateName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid bot name %q: use letters, digits, '_', '.' or '-'", name)
	}
	return nil
}

// Dispatcher routes one raw update. *core.Dispatcher implements it.
type Dispatcher interface {
	DispatchEnvelope(ctx context.Context, env core.Envelope) error
}

var _ Dispatcher = (*core.Dispatcher)(nil)

// Server receives Telegram updates pushed to POST /<name>/webhook and
// dispatches each one before acknowledging it.
type Server struct {
	addr        string
	name        string
	secretToken string
	dispatcher  Dispatcher
	dedup       *policy.Policy
	limiter     *ratelimit.Limiter
	logger      *slog.Logger
}

// New creates a webhook server for the bot called name, which must pass
// ValidateName.
func New(addr, name string, dispatcher Dispatcher, logger *slog.Logger) *Server {
	return &Server{
		addr:       addr,
		name:       name,
		dispatcher: dispatcher,
		dedup:      policy.New(),
		limiter:    ratelimit.New(),
		logger:     logger,
	}
}

// WithSecretToken requires every delivery to carry token in SecretHeader.
func (s *Server) WithSecretToken(token string) *Server {
	s.secretToken = token
	return s
}

// Path is the route Telegram posts updates to.
func (s *Server) Path() string {
	return "/" + s.name + "/webhook"
}

// Handler returns the HTTP routes served by Start.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.Path(), s.handleWebhook)
	mux.HandleFunc("/health", handleHealth)
	return mux
}

// Start listens on the configured address. Blocks until ctx is cancelled,
// then shuts the HTTP server down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("webhook listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// Request contexts outlive ctx so in-flight dispatches finish during shutdown.
	base := context.WithoutCancel(ctx)
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}

	s.logger.Info("webhook server listening", "addr", ln.Addr().String(), "path", s.Path())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("webhook shutdown", "error", err)
		}
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("webhook serve: %w", err)
	}
	s.logger.Info("webhook server stopped")
	return nil
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.secretToken != "" {
		source := remoteHost(r)
		if err := s.limiter.Check(source); err != nil {
			s.logger.Warn("webhook: source locked out", "source", source, "error", err)
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.secretToken)) != 1 {
			s.limiter.RecordFailure(source)
			s.logger.Warn("webhook: secret token mismatch", "source", source)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		s.limiter.Reset(source)
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}

	env, err := core.ParseEnvelope(body)
	if err != nil {
		s.logger.Warn("webhook: invalid update", "error", err)
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}

	s.process(r.Context(), env)

	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "OK")
}

// process dispatches env once per update_id. Failures are logged; Telegram
// is acknowledged regardless so it does not redeliver.
func (s *Server) process(ctx context.Context, env core.Envelope) {
	id, hasID := env.UpdateID()
	if hasID {
		if err := s.dedup.Admit(id); err != nil {
			s.logger.Debug("webhook: skipping redelivered update", "update_id", id)
			return
		}
	}

	err := s.dispatcher.DispatchEnvelope(ctx, env)
	switch {
	case err == nil:
	case errors.Is(err, core.ErrMalformedEnvelope):
		s.logger.Warn("dropping malformed update", "update_id", id, "error", err)
	default:
		s.logger.Error("handler failed", "update_id", id, "error", err)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok")
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
