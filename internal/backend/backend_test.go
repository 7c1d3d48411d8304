package backend

import (
	"context"
	"path/filepath"
	"testing"

	"chitieu/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	got, err := FromAppConfig(&config.Config{
		DataBackend:  "remote",
		APIBaseURL:   "http://localhost:3001/api",
		APIToken:     "tok",
		SQLiteDBPath: "ignored.db",
	})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if got.Type != RemoteBackend || got.APIBaseURL != "http://localhost:3001/api" || got.APIToken != "tok" {
		t.Errorf("FromAppConfig() = %+v", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"remote", Config{Type: RemoteBackend, APIBaseURL: "http://api"}, false},
		{"remote without url", Config{Type: RemoteBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	want := []string{"memory", "sqlite", "remote"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestFactory_CreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	mem, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
	if err != nil || mem.Store == nil || mem.SQLite != nil || mem.Remote != nil {
		t.Fatalf("memory backend = %+v, %v", mem, err)
	}
	if err := mem.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	sq, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "db", "x.db")})
	if err != nil {
		t.Fatalf("sqlite backend error = %v", err)
	}
	if sq.SQLite == nil || sq.Store == nil {
		t.Errorf("sqlite backend = %+v", sq)
	}
	if err := sq.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	remote, err := f.CreateBackend(ctx, Config{Type: RemoteBackend, APIBaseURL: "http://localhost:3001/api", APIToken: "tok"})
	if err != nil || remote.Remote == nil {
		t.Fatalf("remote backend = %+v, %v", remote, err)
	}
	if tok, err := remote.Remote.Session().Token(); err != nil || tok != "tok" {
		t.Errorf("token = %q, %v; want tok", tok, err)
	}

	if _, err := f.CreateBackend(ctx, Config{Type: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
