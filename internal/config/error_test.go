package config

import (
	"strings"
	"testing"
)

func TestConfigError_Error_Empty(t *testing.T) {
	e := &ConfigError{Path: "/etc/fafo/config.toml"}
	got := e.Error()
	if got != "" {
		t.Errorf("expected empty string for no errors, got %q", got)
	}
}

func TestConfigError_Error_MissingVars(t *testing.T) {
	e := &ConfigError{
		Path:    "/etc/fafo/config.toml",
		Missing: []string{"BACKEND_URL", "SECRET"},
	}
	got := e.Error()
	if !strings.Contains(got, "missing environment variables") {
		t.Errorf("expected 'missing environment variables', got %q", got)
	}
	if !strings.Contains(got, "BACKEND_URL") || !strings.Contains(got, "SECRET") {
		t.Errorf("expected var names in error, got %q", got)
	}
	if !strings.Contains(got, "/etc/fafo/config.toml") {
		t.Errorf("expected path in error, got %q", got)
	}
}

func TestConfigError_Error_UnknownKeys(t *testing.T) {
	e := &ConfigError{Unknown: []string{"playback.quality"}}
	got := e.Error()
	if !strings.Contains(got, "unknown keys: playback.quality") {
		t.Errorf("expected unknown keys section, got %q", got)
	}
}

func TestConfigError_Error_Both(t *testing.T) {
	e := &ConfigError{
		Path:    "/etc/fafo/config.toml",
		Missing: []string{"BACKEND_URL"},
		Errors:  []string{"log.level: invalid"},
	}
	got := e.Error()
	if !strings.Contains(got, "missing environment variables") {
		t.Errorf("expected missing vars section, got %q", got)
	}
	if !strings.Contains(got, "validation failed") {
		t.Errorf("expected validation section, got %q", got)
	}
	if !e.HasErrors() {
		t.Error("expected HasErrors")
	}
}
