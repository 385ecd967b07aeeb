package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/jdelaire/tgrambot/core/event"
	"github.com/jdelaire/tgrambot/internal/keychain"
)

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "json", slog.LevelInfo).Info("hello", "k", 1)
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("json logger wrote %q", buf.String())
	}

	buf.Reset()
	newLogger(&buf, "text", slog.LevelInfo).Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("text logger wrote %q", buf.String())
	}
}

func TestReloadLevel(t *testing.T) {
	t.Setenv("TGRAMBOT_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "config.toml")
	os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0600)
	t.Setenv("TGRAMBOT_CONFIG", path)

	level := new(slog.LevelVar)
	reload := reloadLevel(level, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := reload(path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if level.Level() != slog.LevelDebug {
		t.Errorf("level = %v, want DEBUG", level.Level())
	}

	os.WriteFile(path, []byte("[log]\nlevel = \"loud\"\n"), 0600)
	if err := reload(path); err == nil {
		t.Error("reload accepted an invalid level")
	}
	if level.Level() != slog.LevelDebug {
		t.Errorf("level changed to %v after failed reload", level.Level())
	}
}

func TestLogUpdate(t *testing.T) {
	var buf bytes.Buffer
	h := logUpdate(slog.New(slog.NewTextHandler(&buf, nil)))

	e, _ := event.Materialize("message", map[string]any{"text": "hi"})
	if err := h(context.Background(), e); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !strings.Contains(buf.String(), "update_type=message") {
		t.Errorf("log line %q missing update type", buf.String())
	}
}

func TestStoreToken(t *testing.T) {
	keyring.MockInit()

	if err := storeTokenFrom(strings.NewReader("123:abc\n"), "mybot"); err != nil {
		t.Fatalf("storeTokenFrom: %v", err)
	}
	got, err := keychain.Token("mybot")
	if err != nil || got != "123:abc" {
		t.Errorf("stored token = %q, %v", got, err)
	}

	if err := storeTokenFrom(strings.NewReader("\n"), "mybot"); err == nil {
		t.Error("empty token accepted")
	}
}
