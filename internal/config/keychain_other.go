//go:build !darwin

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// secrets maps service -> account -> value.
type secrets map[string]map[string]string

func secretsFilePath() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", "bidwise", "secrets.json")
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "bidwise", "secrets.json")
}

func keychainGet(service, account string) ([]byte, error) {
	var s secrets
	if err := readJSONFile(secretsFilePath(), &s); err != nil {
		return nil, fmt.Errorf("reading secrets: %w", err)
	}
	val, ok := s[service][account]
	if !ok {
		return nil, fmt.Errorf("no secret for %s/%s", service, account)
	}
	return []byte(val), nil
}

func keychainSet(service, account, value string) error {
	path := secretsFilePath()
	var s secrets
	if err := readJSONFile(path, &s); err != nil {
		return fmt.Errorf("reading secrets: %w", err)
	}
	if s == nil {
		s = secrets{}
	}
	if s[service] == nil {
		s[service] = map[string]string{}
	}
	s[service][account] = value
	return writeJSONFile(path, s)
}
