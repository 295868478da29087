// Package credstore persists the Anthropic OAuth refresh token the "auth
// login" command obtains, behind one of three interchangeable backends.
//
// The keyring backend wraps github.com/zalando/go-keyring for OS-native
// secret storage; env and file backends cover headless and container
// deployments where no keyring is available.
package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

// StorageType selects which backend NewStore builds.
type StorageType string

const (
	StorageTypeEnv     StorageType = "env"
	StorageTypeFile    StorageType = "file"
	StorageTypeKeyring StorageType = "keyring"
)

// Config is the "auth" section of internal/config.Config.
type Config struct {
	Storage        StorageType `koanf:"storage" validate:"omitempty,oneof=env file keyring"`
	EnvVar         string      `koanf:"env_var"`
	FilePath       string      `koanf:"file_path"`
	KeyringService string      `koanf:"keyring_service"`
	KeyringUser    string      `koanf:"keyring_user"`
}

// Store reads and writes the single Anthropic refresh token this adapter
// authenticates with. Writing an empty string clears the stored token
// (used by "auth logout").
type Store interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, token string) error
}

// NewStore builds the Store selected by c.Storage, defaulting to the file
// backend when Storage is unset.
func (c Config) NewStore() (Store, error) {
	switch c.Storage {
	case StorageTypeEnv, "":
		if c.Storage == "" {
			return newFileStore(c.FilePath)
		}
		return envStore{varName: defaultString(c.EnvVar, "ANTHROPIC_OAUTH_TOKEN")}, nil
	case StorageTypeFile:
		return newFileStore(c.FilePath)
	case StorageTypeKeyring:
		return keyringStore{
			service: defaultString(c.KeyringService, "claude-route"),
			user:    defaultString(c.KeyringUser, "anthropic-oauth"),
		}, nil
	default:
		return nil, fmt.Errorf("credstore: unknown storage type %q", c.Storage)
	}
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// envStore is read-only: the token lives in the process environment and
// this adapter has no way to persist a write back to it.
type envStore struct {
	varName string
}

func (s envStore) Read(ctx context.Context) (string, error) {
	return os.Getenv(s.varName), nil
}

func (s envStore) Write(ctx context.Context, token string) error {
	return fmt.Errorf("credstore: cannot write to env storage (read-only); configure file or keyring storage")
}

type fileToken struct {
	RefreshToken string `json:"refresh_token"`
}

type fileStore struct {
	path string
}

func newFileStore(path string) (fileStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fileStore{}, fmt.Errorf("credstore: resolve default token file path: %w", err)
		}
		path = filepath.Join(home, ".config", "claude-route", "credentials.json")
	}
	return fileStore{path: path}, nil
}

func (s fileStore) Read(ctx context.Context) (string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("credstore: read %s: %w", s.path, err)
	}
	var tok fileToken
	if err := json.Unmarshal(raw, &tok); err != nil {
		return "", fmt.Errorf("credstore: decode %s: %w", s.path, err)
	}
	return tok.RefreshToken, nil
}

func (s fileStore) Write(ctx context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("credstore: create directory for %s: %w", s.path, err)
	}
	raw, err := json.Marshal(fileToken{RefreshToken: token})
	if err != nil {
		return fmt.Errorf("credstore: encode token: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("credstore: write %s: %w", s.path, err)
	}
	return nil
}

type keyringStore struct {
	service string
	user    string
}

func (s keyringStore) Read(ctx context.Context) (string, error) {
	token, err := keyring.Get(s.service, s.user)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", nil
		}
		return "", fmt.Errorf("credstore: keyring get: %w", err)
	}
	return token, nil
}

func (s keyringStore) Write(ctx context.Context, token string) error {
	if token == "" {
		if err := keyring.Delete(s.service, s.user); err != nil && err != keyring.ErrNotFound {
			return fmt.Errorf("credstore: keyring delete: %w", err)
		}
		return nil
	}
	if err := keyring.Set(s.service, s.user, token); err != nil {
		return fmt.Errorf("credstore: keyring set: %w", err)
	}
	return nil
}
