package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oaustech/docportal/internal/workflow"
)

// errNotLoggedIn is returned when no session file exists
var errNotLoggedIn = errors.New("not logged in")

// sessionFile is the on-disk form of a session
type sessionFile struct {
	Server  string           `yaml:"server"`
	Session workflow.Session `yaml:"session"`
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "portalctl", "session.yaml")
}

func saveSession(path string, sf sessionFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	data, err := yaml.Marshal(sf)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// loadSession reads the session and rejects it once expired. Expiry is checked here,
// before every command, never inferred from a failed call.
func loadSession(path string, now time.Time) (sessionFile, error) {
	var sf sessionFile
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return sf, errNotLoggedIn
	}
	if err != nil {
		return sf, fmt.Errorf("read session: %w", err)
	}
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return sf, fmt.Errorf("decode session %s: %w", path, err)
	}
	if sf.Session.Token == "" {
		return sf, errNotLoggedIn
	}
	if err := sf.Session.Check(now); err != nil {
		return sf, err
	}
	return sf, nil
}

func removeSession(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
