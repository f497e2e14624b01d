package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != 7870 {
		t.Errorf("Port = %d, want 7870", cfg.Port)
	}
	if cfg.NavTimeout != 30*time.Second {
		t.Errorf("NavTimeout = %v, want 30s", cfg.NavTimeout)
	}
	if cfg.PassiveWait != 6*time.Second {
		t.Errorf("PassiveWait = %v, want 6s", cfg.PassiveWait)
	}
	if cfg.InteractWait != 8*time.Second {
		t.Errorf("InteractWait = %v, want 8s", cfg.InteractWait)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %v, want 250ms", cfg.PollInterval)
	}
	if cfg.PollTimeout != 5*time.Second {
		t.Errorf("PollTimeout = %v, want 5s", cfg.PollTimeout)
	}
	if cfg.ViewportWidth != 1366 || cfg.ViewportHeight != 768 {
		t.Errorf("viewport = %dx%d, want 1366x768", cfg.ViewportWidth, cfg.ViewportHeight)
	}
	if !cfg.Headless {
		t.Error("Headless = false, want true")
	}
	if !cfg.BlockHeavy {
		t.Error("BlockHeavy = false, want true")
	}
	if cfg.UserAgent == "" {
		t.Error("UserAgent is empty")
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fallback time.Duration
		want     time.Duration
	}{
		{"unset uses fallback", "", 6 * time.Second, 6 * time.Second},
		{"plain integer means seconds", "10", time.Second, 10 * time.Second},
		{"duration string", "250ms", time.Second, 250 * time.Millisecond},
		{"garbage uses fallback", "soon", 5 * time.Second, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_DURATION", tt.value)
			}
			got := getEnvDuration("TEST_DURATION", tt.fallback)
			if got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}
