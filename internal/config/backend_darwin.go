//go:build darwin

package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const defaultsDomain = "com.bidwise.app"

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "bidwise-data"
	}
	return filepath.Join(home, "Library", "Application Support", "bidwise")
}

// darwinBackend shells out to defaults(1) for the com.bidwise.app domain.
type darwinBackend struct {
	domain string
}

func newPlatformBackend() ConfigBackend {
	return &darwinBackend{domain: defaultsDomain}
}

func (b *darwinBackend) defaults(verb, key string, extra ...string) (string, error) {
	args := append([]string{verb, b.domain, key}, extra...)
	out, err := exec.Command("defaults", args...).CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// GetString reports ok=false when the key is absent (defaults exits 1).
func (b *darwinBackend) GetString(key string) (string, bool, error) {
	out, err := b.defaults("read", key)
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return out, true, nil
	case errors.As(err, &exitErr) && exitErr.ExitCode() == 1:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("defaults read %s: %w: %s", key, err, out)
	}
}

func (b *darwinBackend) GetInt(key string) (int, bool, error) {
	raw, ok, err := b.GetString(key)
	if !ok || err != nil {
		return 0, ok, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	return n, true, nil
}

func (b *darwinBackend) SetString(key, val string) error {
	return b.write(key, "-string", val)
}

func (b *darwinBackend) SetInt(key string, val int) error {
	return b.write(key, "-int", strconv.Itoa(val))
}

func (b *darwinBackend) write(key, typeFlag, val string) error {
	if out, err := b.defaults("write", key, typeFlag, val); err != nil {
		return fmt.Errorf("defaults write %s: %w: %s", key, err, out)
	}
	return nil
}

func (b *darwinBackend) Delete(key string) error {
	_, err := b.defaults("delete", key)
	return err
}
