package credstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestEnvStore_ReadWrite(t *testing.T) {
	t.Setenv("CLAUDE_ROUTE_TEST_TOKEN", "abc123")

	s := envStore{varName: "CLAUDE_ROUTE_TEST_TOKEN"}

	got, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "abc123" {
		t.Fatalf("Read() = %q, want abc123", got)
	}

	if err := s.Write(context.Background(), "new"); err == nil {
		t.Fatal("Write() on envStore should fail, got nil error")
	}
}

func TestEnvStore_ReadUnset(t *testing.T) {
	s := envStore{varName: "CLAUDE_ROUTE_TEST_TOKEN_UNSET"}

	got, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "" {
		t.Fatalf("Read() = %q, want empty string", got)
	}
}

func TestFileStore_ReadWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "credentials.json")

	s, err := newFileStore(path)
	if err != nil {
		t.Fatalf("newFileStore: %v", err)
	}

	if err := s.Write(context.Background(), "refresh-token-1"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "refresh-token-1" {
		t.Fatalf("Read() = %q, want refresh-token-1", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestFileStore_ReadMissingFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	s, err := newFileStore(filepath.Join(dir, "credentials.json"))
	if err != nil {
		t.Fatalf("newFileStore: %v", err)
	}

	got, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "" {
		t.Fatalf("Read() = %q, want empty string for missing file", got)
	}
}

func TestFileStore_WriteEmptyClears(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")
	s, err := newFileStore(path)
	if err != nil {
		t.Fatalf("newFileStore: %v", err)
	}

	if err := s.Write(context.Background(), "token"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Write(context.Background(), ""); err != nil {
		t.Fatalf("Write(empty): %v", err)
	}

	got, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "" {
		t.Fatalf("Read() = %q, want empty string after clearing", got)
	}
}

func TestNewFileStore_DefaultsToHomeConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	s, err := newFileStore("")
	if err != nil {
		t.Fatalf("newFileStore: %v", err)
	}

	want := filepath.Join(home, ".config", "claude-route", "credentials.json")
	if s.path != want {
		t.Fatalf("path = %q, want %q", s.path, want)
	}
}

func TestConfig_NewStore(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    StorageType
		wantErr bool
	}{
		{
			name: "unset storage defaults to file",
			cfg:  Config{},
			want: StorageTypeFile,
		},
		{
			name: "explicit file",
			cfg:  Config{Storage: StorageTypeFile, FilePath: filepath.Join(t.TempDir(), "creds.json")},
			want: StorageTypeFile,
		},
		{
			name: "explicit env",
			cfg:  Config{Storage: StorageTypeEnv, EnvVar: "CLAUDE_ROUTE_TEST_TOKEN"},
			want: StorageTypeEnv,
		},
		{
			name: "explicit keyring",
			cfg:  Config{Storage: StorageTypeKeyring},
			want: StorageTypeKeyring,
		},
		{
			name:    "unknown storage type",
			cfg:     Config{Storage: "carrier-pigeon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := tt.cfg.NewStore()
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewStore() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewStore: %v", err)
			}

			switch tt.want {
			case StorageTypeFile:
				if _, ok := store.(fileStore); !ok {
					t.Fatalf("NewStore() = %T, want fileStore", store)
				}
			case StorageTypeEnv:
				if _, ok := store.(envStore); !ok {
					t.Fatalf("NewStore() = %T, want envStore", store)
				}
			case StorageTypeKeyring:
				if _, ok := store.(keyringStore); !ok {
					t.Fatalf("NewStore() = %T, want keyringStore", store)
				}
			}
		})
	}
}

func TestConfig_NewStoreEnvDefaultsVarName(t *testing.T) {
	store, err := Config{Storage: StorageTypeEnv}.NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	s, ok := store.(envStore)
	if !ok {
		t.Fatalf("NewStore() = %T, want envStore", store)
	}
	if s.varName != "ANTHROPIC_OAUTH_TOKEN" {
		t.Errorf("varName = %q, want ANTHROPIC_OAUTH_TOKEN", s.varName)
	}
}

func TestConfig_NewStoreKeyringDefaultsServiceAndUser(t *testing.T) {
	store, err := Config{Storage: StorageTypeKeyring}.NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	s, ok := store.(keyringStore)
	if !ok {
		t.Fatalf("NewStore() = %T, want keyringStore", store)
	}
	if s.service != "claude-route" {
		t.Errorf("service = %q, want claude-route", s.service)
	}
	if s.user != "anthropic-oauth" {
		t.Errorf("user = %q, want anthropic-oauth", s.user)
	}
}
