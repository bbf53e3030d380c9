package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port == "" {
		t.Error("Port should have a default")
	}
	if cfg.FrameRateHz <= 0 {
		t.Errorf("FrameRateHz = %d, want a positive default", cfg.FrameRateHz)
	}
	if cfg.ShowfileDir == "" {
		t.Error("ShowfileDir should have a default")
	}
}

func TestLoad_CustomEnvironment(t *testing.T) {
	// Set custom environment variables using t.Setenv (auto cleanup)
	t.Setenv("PORT", "8080")
	t.Setenv("ENV", "production")
	t.Setenv("SHOWFILE_DIR", "/shows/opening-night")
	t.Setenv("FRAME_RATE", "30")
	t.Setenv("SACN_ENABLED", "false")
	t.Setenv("SACN_PRIORITY", "150")
	t.Setenv("SACN_CID_PATH", "/var/lib/lumen/cid")
	t.Setenv("GDTF_CACHE_SIZE", "16")
	t.Setenv("COMMAND_QUEUE_LEN", "512")
	t.Setenv("NON_INTERACTIVE", "true")
	t.Setenv("CORS_ORIGIN", "http://example.com")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Expected Port to be '8080', got '%s'", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("Expected Env to be 'production', got '%s'", cfg.Env)
	}
	if cfg.ShowfileDir != "/shows/opening-night" {
		t.Errorf("Expected ShowfileDir to be '/shows/opening-night', got '%s'", cfg.ShowfileDir)
	}
	if cfg.FrameRateHz != 30 {
		t.Errorf("Expected FrameRateHz to be 30, got %d", cfg.FrameRateHz)
	}
	if cfg.SacnEnabled != false {
		t.Errorf("Expected SacnEnabled to be false, got %v", cfg.SacnEnabled)
	}
	if cfg.SacnPriority != 150 {
		t.Errorf("Expected SacnPriority to be 150, got %d", cfg.SacnPriority)
	}
	if cfg.SacnCidPath != "/var/lib/lumen/cid" {
		t.Errorf("Expected SacnCidPath to be '/var/lib/lumen/cid', got '%s'", cfg.SacnCidPath)
	}
	if cfg.GdtfCacheSize != 16 {
		t.Errorf("Expected GdtfCacheSize to be 16, got %d", cfg.GdtfCacheSize)
	}
	if cfg.CommandQueueLen != 512 {
		t.Errorf("Expected CommandQueueLen to be 512, got %d", cfg.CommandQueueLen)
	}
	if cfg.NonInteractive != true {
		t.Errorf("Expected NonInteractive to be true, got %v", cfg.NonInteractive)
	}
	if cfg.CORSOrigin != "http://example.com" {
		t.Errorf("Expected CORSOrigin to be 'http://example.com', got '%s'", cfg.CORSOrigin)
	}
}

func TestFrameInterval(t *testing.T) {
	tests := []struct {
		rate     int
		expected time.Duration
	}{
		{25, 40 * time.Millisecond},
		{50, 20 * time.Millisecond},
		{0, 40 * time.Millisecond},  // fallback
		{-1, 40 * time.Millisecond}, // fallback
	}

	for _, tt := range tests {
		cfg := &Config{FrameRateHz: tt.rate}
		if got := cfg.FrameInterval(); got != tt.expected {
			t.Errorf("FrameInterval() with rate %d = %v, want %v", tt.rate, got, tt.expected)
		}
	}
}

func TestIsDevelopment(t *testing.T) {
	tests := []struct {
		env      string
		expected bool
	}{
		{"development", true},
		{"production", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := &Config{Env: tt.env}
			if got := cfg.IsDevelopment(); got != tt.expected {
				t.Errorf("IsDevelopment() = %v, want %v for env '%s'", got, tt.expected, tt.env)
			}
		})
	}
}

func TestIsProduction(t *testing.T) {
	tests := []struct {
		env      string
		expected bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := &Config{Env: tt.env}
			if got := cfg.IsProduction(); got != tt.expected {
				t.Errorf("IsProduction() = %v, want %v for env '%s'", got, tt.expected, tt.env)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	// Test with existing env var
	t.Setenv("TEST_GET_ENV", "custom_value")

	result := getEnv("TEST_GET_ENV", "default")
	if result != "custom_value" {
		t.Errorf("Expected 'custom_value', got '%s'", result)
	}

	// Test with non-existing env var (use a unique key that won't be set)
	result = getEnv("NON_EXISTING_VAR_12345_UNIQUE", "default_value")
	if result != "default_value" {
		t.Errorf("Expected 'default_value', got '%s'", result)
	}
}

func TestGetEnvInt(t *testing.T) {
	// Test with valid int
	t.Setenv("TEST_INT_VAR", "42")

	result := getEnvInt("TEST_INT_VAR", 10)
	if result != 42 {
		t.Errorf("Expected 42, got %d", result)
	}

	// Test with invalid int (should return default)
	t.Setenv("TEST_INVALID_INT", "not_a_number")

	result = getEnvInt("TEST_INVALID_INT", 10)
	if result != 10 {
		t.Errorf("Expected default 10 for invalid int, got %d", result)
	}

	// Test with non-existing env var
	result = getEnvInt("NON_EXISTING_INT_VAR_12345_UNIQUE", 100)
	if result != 100 {
		t.Errorf("Expected default 100, got %d", result)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		expected     bool
		setEnv       bool
	}{
		{"true_string", "true", false, true, true},
		{"false_string", "false", true, false, true},
		{"1_string", "1", false, true, true},
		{"0_string", "0", true, false, true},
		{"invalid_string_returns_default", "invalid", true, true, true},
		{"non_existing_returns_default_true", "", true, true, false},
		{"non_existing_returns_default_false", "", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Use a unique env key for each test
			envKey := "TEST_BOOL_VAR_" + tt.name + "_UNIQUE"
			if tt.setEnv {
				t.Setenv(envKey, tt.envValue)
			}

			result := getEnvBool(envKey, tt.defaultValue)
			if result != tt.expected {
				t.Errorf("getEnvBool(%s, %v) = %v, want %v", envKey, tt.defaultValue, result, tt.expected)
			}
		})
	}
}

func TestGetEnvInt_ZeroValue(t *testing.T) {
	t.Setenv("TEST_ZERO_INT", "0")

	result := getEnvInt("TEST_ZERO_INT", 10)
	if result != 0 {
		t.Errorf("Expected 0, got %d", result)
	}
}
