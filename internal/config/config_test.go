package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "fragnav" {
		t.Errorf("expected Name=fragnav, got %s", cfg.Name)
	}
	if cfg.Navigator.ContainerID != "main-content" {
		t.Errorf("expected container main-content, got %s", cfg.Navigator.ContainerID)
	}
	if cfg.Site.InitialLocation != "./views/home.html" {
		t.Errorf("expected initial location ./views/home.html, got %s", cfg.Site.InitialLocation)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("FRAGNAV_BASE_URL", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "fragnav.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Site.BaseURL != DefaultConfig().Site.BaseURL {
		t.Errorf("expected default base url, got %s", cfg.Site.BaseURL)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("FRAGNAV_BASE_URL", "")
	t.Setenv("FRAGNAV_LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "conf", "fragnav.yaml")

	cfg := DefaultConfig()
	cfg.Site.BaseURL = "http://gallery.test/"
	cfg.Navigator.Transition = "10ms"
	cfg.Logging.Categories = map[string]bool{"fetch": false}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Site.BaseURL != "http://gallery.test/" {
		t.Errorf("expected BaseURL=http://gallery.test/, got %s", loaded.Site.BaseURL)
	}
	if loaded.GetTransition() != 10*time.Millisecond {
		t.Errorf("expected 10ms transition, got %v", loaded.GetTransition())
	}
	if loaded.Logging.IsCategoryEnabled("fetch") {
		t.Error("fetch category should be disabled after round trip")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fragnav.yaml")
	if err := os.WriteFile(path, []byte("navigator:\n  transition: 50ms\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GetTransition() != 50*time.Millisecond {
		t.Errorf("expected 50ms, got %v", cfg.GetTransition())
	}
	if cfg.Navigator.ContainerID != "main-content" {
		t.Errorf("expected default container to survive partial load, got %q", cfg.Navigator.ContainerID)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fragnav.yaml")
	if err := os.WriteFile(path, []byte("navigator: [unterminated"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Site.BaseURL = "views/"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for relative base url")
	}

	cfg = DefaultConfig()
	cfg.Notifications.ContainerID = cfg.Navigator.ContainerID
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for shared container")
	}

	cfg = DefaultConfig()
	cfg.Logging.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for invalid level")
	}
}

func TestConfig_DurationHelpersFallBack(t *testing.T) {
	cfg := &Config{}
	if cfg.GetTransition() != 300*time.Millisecond {
		t.Errorf("GetTransition fallback = %v", cfg.GetTransition())
	}
	if cfg.GetNotificationDuration() != 5*time.Second {
		t.Errorf("GetNotificationDuration fallback = %v", cfg.GetNotificationDuration())
	}
	if cfg.GetHideTransition() != 150*time.Millisecond {
		t.Errorf("GetHideTransition fallback = %v", cfg.GetHideTransition())
	}
	if cfg.GetWelcomeDelay() != time.Second {
		t.Errorf("GetWelcomeDelay fallback = %v", cfg.GetWelcomeDelay())
	}
	cfg.Navigator.Transition = "-1s"
	if cfg.GetTransition() != 300*time.Millisecond {
		t.Errorf("negative transition should fall back, got %v", cfg.GetTransition())
	}
}

func TestConfig_ShellPath(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.ShellPath(); got != filepath.Join("public", "index.html") {
		t.Errorf("ShellPath=%q", got)
	}
	cfg.Site.Shell = "/srv/site/index.html"
	if got := cfg.ShellPath(); got != "/srv/site/index.html" {
		t.Errorf("absolute ShellPath=%q", got)
	}
}
