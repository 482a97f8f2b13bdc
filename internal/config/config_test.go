package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// mockKeychain is a test double for the keychain interface.
type mockKeychain struct {
	value string
	err   error
}

func (m mockKeychain) Get(service, account string) (string, error) {
	return m.value, m.err
}

// memBackend is an in-memory ConfigBackend.
type memBackend struct {
	data map[string]any
}

func newMemBackend(kv map[string]any) *memBackend {
	if kv == nil {
		kv = make(map[string]any)
	}
	return &memBackend{data: kv}
}

func (b *memBackend) GetString(key string) (string, bool, error) {
	v, ok := b.data[key]
	if !ok {
		return "", false, nil
	}
	s, _ := v.(string)
	return s, true, nil
}

func (b *memBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.data[key]
	if !ok {
		return 0, false, nil
	}
	i, ok := v.(int)
	if !ok {
		return 0, true, errors.New("not an int")
	}
	return i, true, nil
}

func (b *memBackend) SetString(key, val string) error { b.data[key] = val; return nil }
func (b *memBackend) SetInt(key string, val int) error  { b.data[key] = val; return nil }
func (b *memBackend) Delete(key string) error           { delete(b.data, key); return nil }

// clearEnv blanks every BIDWISE_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
}

// TestDefaults verifies all default values are applied with an empty backend.
func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMemBackend(nil), mockKeychain{err: errors.New("none")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:5000" {
		t.Errorf("API.BaseURL = %q, want http://localhost:5000", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("API.Timeout = %s, want 30s", cfg.API.Timeout)
	}
	if cfg.API.Token != "" {
		t.Errorf("API.Token = %q, want empty", cfg.API.Token)
	}
	if cfg.Server.Addr() != "127.0.0.1:5000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr())
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Storage.DataDir == "" {
		t.Error("Storage.DataDir is empty")
	}
}

// TestBackendValues verifies values from the platform backend replace defaults.
func TestBackendValues(t *testing.T) {
	clearEnv(t)

	b := newMemBackend(map[string]any{
		"api.base_url":     "https://procurement.example.org/api",
		"api.timeout":      "5s",
		"server.port":      8080,
		"storage.data_dir": "/tmp/bidwise-test",
	})
	cfg, err := loadWith(b, mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "https://procurement.example.org/api" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("API.Timeout = %s, want 5s", cfg.API.Timeout)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.DataDir != "/tmp/bidwise-test" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
}

// TestEnvOverride verifies that environment variables override backend values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("BIDWISE_API_BASE_URL", "http://env.example:9000")
	t.Setenv("BIDWISE_SERVER_PORT", "9001")
	t.Setenv("BIDWISE_API_TIMEOUT", "2s")

	b := newMemBackend(map[string]any{"api.base_url": "http://file.example:8000"})
	cfg, err := loadWith(b, mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "http://env.example:9000" {
		t.Errorf("API.BaseURL = %q, want env value", cfg.API.BaseURL)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("Server.Port = %d, want 9001", cfg.Server.Port)
	}
	if cfg.API.Timeout != 2*time.Second {
		t.Errorf("API.Timeout = %s, want 2s", cfg.API.Timeout)
	}
}

// TestInvalidEnvKeepsDefault verifies unparsable env values are ignored.
func TestInvalidEnvKeepsDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("BIDWISE_SERVER_PORT", "not-a-number")
	t.Setenv("BIDWISE_API_TIMEOUT", "soon")

	cfg, err := loadWith(newMemBackend(nil), mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want default 5000", cfg.Server.Port)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("API.Timeout = %s, want default", cfg.API.Timeout)
	}
}

func TestTokenSources(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		keychain mockKeychain
		want     string
	}{
		{"keychain", "", mockKeychain{value: "kc-token\n"}, "kc-token"},
		{"env wins", "env-token", mockKeychain{value: "kc-token"}, "env-token"},
		{"none", "", mockKeychain{err: errors.New("not found")}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("BIDWISE_API_TOKEN", tt.env)

			cfg, err := loadWith(newMemBackend(nil), keychainFunc(tt.keychain))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.API.Token != tt.want {
				t.Errorf("API.Token = %q, want %q", cfg.API.Token, tt.want)
			}
		})
	}
}

// keychainFunc trims like the real store does.
type keychainFunc mockKeychain

func (k keychainFunc) Get(service, account string) (string, error) {
	if service != "bidwise" || account != "api_token" {
		return "", errors.New("unexpected lookup " + service + "/" + account)
	}
	return strings.TrimSpace(k.value), k.err
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"relative url", func(c *Config) { c.API.BaseURL = "/api" }, "api.base_url"},
		{"ftp url", func(c *Config) { c.API.BaseURL = "ftp://host" }, "http or https"},
		{"no host", func(c *Config) { c.API.BaseURL = "http://" }, "missing host"},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }, "api.timeout"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}

	if err := defaults().Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadRejectsInvalidBaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("BIDWISE_API_BASE_URL", "localhost:5000")

	if _, err := loadWith(newMemBackend(nil), mockKeychain{}); err == nil {
		t.Fatal("expected error for scheme-less base URL")
	}
}

func TestSetKey(t *testing.T) {
	tests := []struct {
		key, value string
		wantErr    string
	}{
		{"server.port", "8080", ""},
		{"server.port", "eighty", "invalid integer"},
		{"api.timeout", "10s", ""},
		{"api.timeout", "ten", "invalid duration"},
		{"api.base_url", "https://example.org", ""},
		{"api.base_url", "example.org", "invalid value"},
		{"api.token", "secret", "cannot set secret"},
		{"no.such.key", "x", "unknown config key"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			b := newMemBackend(nil)
			err := setKey(b, tt.key, tt.value)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if _, ok := b.data[tt.key]; !ok {
					t.Errorf("%s not written", tt.key)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("setKey = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestShowAllHidesSecrets(t *testing.T) {
	cfg := defaults()
	cfg.API.Token = "do-not-print"

	for _, info := range ShowAll(cfg) {
		if info.Key == "api.token" || info.Value == "do-not-print" {
			t.Errorf("secret exposed: %+v", info)
		}
	}
	if got := len(ShowAll(cfg)); got != len(ValidKeys()) {
		t.Errorf("ShowAll returned %d keys, ValidKeys %d", got, len(ValidKeys()))
	}
}
