package backend

import (
	"context"

	"chitieu/internal/apiclient"
	"chitieu/internal/ledger"
	"chitieu/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store and the concrete adapter behind it, for
// callers that need more than ledger.Store.
type BackendResult struct {
	Store ledger.Store
	// SQLite is set for the sqlite backend; the sync worker needs its
	// sync-status queries.
	SQLite *storage.SQLiteRepository
	// Remote is set for the remote backend; the server also parses and chats.
	Remote  *apiclient.Client
	Cleanup CleanupFunc
}

// Close runs Cleanup when there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Remote API specific
	APIBaseURL string
	APIToken   string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	RemoteBackend BackendType = "remote"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, RemoteBackend:
		return true
	default:
		return false
	}
}
