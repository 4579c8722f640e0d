package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Fatalf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.DefaultWindowDays != 7 || cfg.DefaultCooldownSecs != 3600 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.EnableFeedCron {
		t.Fatal("feed cron should default to enabled")
	}
}

func TestLoadRequiresAPIKeyAndSecret(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("JWT_SECRET", "secret")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for empty OPENAI_API_KEY")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DEFAULT_WINDOW_DAYS", "14")
	t.Setenv("ENABLE_FEED_CRON", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DefaultWindowDays != 14 {
		t.Fatalf("window days = %d, want 14", cfg.DefaultWindowDays)
	}
	if cfg.EnableFeedCron {
		t.Fatal("feed cron should be disabled")
	}
}
