package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	configDir := filepath.Join(dir, ".adminui")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("setup: mkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte(body), 0644); err != nil {
		t.Fatalf("setup: write failed: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("non-existent file returns defaults", func(t *testing.T) {
		dir := t.TempDir()

		cfg, err := Load(dir)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		want := Default()
		if cfg.OffsetLeft != want.OffsetLeft || cfg.OffsetTop != want.OffsetTop {
			t.Errorf("offsets: got %d/%d, want %d/%d", cfg.OffsetLeft, cfg.OffsetTop, want.OffsetLeft, want.OffsetTop)
		}
		if cfg.ResizeDebounce.Duration != 150*time.Millisecond {
			t.Errorf("ResizeDebounce: got %v", cfg.ResizeDebounce)
		}
		if cfg.Messages.Loading != "Loading" {
			t.Errorf("Messages.Loading: got %q", cfg.Messages.Loading)
		}
	})

	t.Run("existing file overrides defaults", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, `{
  "base_url": "http://localhost:8080/admin/",
  "offset_left": 6,
  "resize_debounce": "300ms",
  "messages": {"error": "Fehler"}
}`)

		cfg, err := Load(dir)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.BaseURL != "http://localhost:8080/admin/" {
			t.Errorf("BaseURL: got %q", cfg.BaseURL)
		}
		if cfg.OffsetLeft != 6 || cfg.OffsetTop != 2 {
			t.Errorf("offsets: got %d/%d, want 6/2", cfg.OffsetLeft, cfg.OffsetTop)
		}
		if cfg.ResizeDebounce.Duration != 300*time.Millisecond {
			t.Errorf("ResizeDebounce: got %v", cfg.ResizeDebounce)
		}
		if cfg.Messages.Error != "Fehler" || cfg.Messages.Loading != "Loading" {
			t.Errorf("Messages: got %+v", cfg.Messages)
		}
	})

	t.Run("invalid JSON returns error", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "not valid json{")

		if _, err := Load(dir); err == nil {
			t.Fatal("Load should fail for invalid JSON")
		}
	})

	t.Run("invalid duration returns error", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, `{"request_timeout": "soon"}`)

		if _, err := Load(dir); err == nil {
			t.Fatal("Load should fail for an invalid duration")
		}
	})
}

func TestLoadEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"offset_left": 6, "env_files": [".env"]}`)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ADMINUI_BASE_URL=http://from-file/\nADMINUI_OFFSET_TOP=5\n"), 0644); err != nil {
		t.Fatalf("setup: write failed: %v", err)
	}
	t.Setenv("ADMINUI_OFFSET_TOP", "7")
	t.Setenv("ADMINUI_REQUEST_TIMEOUT", "5s")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BaseURL != "http://from-file/" {
		t.Errorf("BaseURL: got %q, want value from .env", cfg.BaseURL)
	}
	if cfg.OffsetTop != 7 {
		t.Errorf("OffsetTop: got %d, process environment should win", cfg.OffsetTop)
	}
	if cfg.OffsetLeft != 6 {
		t.Errorf("OffsetLeft: got %d, file value should survive", cfg.OffsetLeft)
	}
	if cfg.RequestTimeout.Duration != 5*time.Second {
		t.Errorf("RequestTimeout: got %v", cfg.RequestTimeout)
	}
}

func TestLoadMissingEnvFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"env_files": ["missing.env"]}`)

	if _, err := Load(dir); err == nil {
		t.Fatal("Load should fail for a missing env file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.BaseURL = "http://example.com/admin/"
	cfg.OffsetLeft = 8

	if err := Save(dir, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.BaseURL != cfg.BaseURL || got.OffsetLeft != 8 || got.ResizeDebounce != cfg.ResizeDebounce {
		t.Errorf("round trip: got %+v", got)
	}
}

func TestStack(t *testing.T) {
	cfg := Default()
	cfg.OffsetLeft, cfg.OffsetTop = 3, 1

	s := cfg.Stack()
	if s.Left != 3 || s.Top != 1 || s.ResizeDebounce != 150*time.Millisecond {
		t.Errorf("Stack() = %+v", s)
	}
	if s.Messages != cfg.Messages {
		t.Errorf("Stack().Messages = %+v", s.Messages)
	}
}
