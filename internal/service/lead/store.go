package lead

import (
	"context"
	"fmt"
	"strings"
)

// Store hands out request-scoped sessions over a storage backend.
type Store interface {
	// Open acquires a session. Callers must Close it on every path.
	Open(ctx context.Context) (Session, error)
	Close() error
}

// Session is the storage a single request works through.
type Session interface {
	// Insert writes l and returns its storage-assigned id. Ids are unique
	// and increase with each insert.
	Insert(ctx context.Context, l *Lead) (int64, error)
	// Update rewrites every field of the lead with l.ID.
	Update(ctx context.Context, l *Lead) error
	// ListAll returns every lead, newest id first.
	ListAll(ctx context.Context) ([]Lead, error)
	Close() error
}

// StoreOptions carries backend-specific settings for OpenStore.
type StoreOptions struct {
	// CredentialsFile is a service account JSON used by firestore:// URLs.
	CredentialsFile string
}

// OpenStore selects a backend by the scheme of databaseURL:
// sqlite:// and file: (SQLite), postgres:// and postgresql:// (Postgres),
// firestore://<project> (Firestore) and memory:// (in process).
func OpenStore(ctx context.Context, databaseURL string, opts StoreOptions) (Store, error) {
	scheme, rest, ok := strings.Cut(databaseURL, ":")
	if !ok {
		return nil, fmt.Errorf("database url %q has no scheme", databaseURL)
	}
	switch strings.ToLower(scheme) {
	case "sqlite":
		return OpenSQLStore(ctx, sqlitePath(strings.TrimPrefix(rest, "//")))
	case "file":
		return OpenSQLStore(ctx, databaseURL)
	case "postgres", "postgresql":
		return OpenPostgresStore(ctx, databaseURL)
	case "firestore":
		project := strings.Trim(strings.TrimPrefix(rest, "//"), "/")
		return OpenFirestoreStore(ctx, project, opts.CredentialsFile)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported database scheme %q", scheme)
	}
}

// sqlitePath maps the remainder of a sqlite:// URL to a file path:
// "/./leads.db" and "./leads.db" are relative, "//abs/leads.db" and
// "/abs/leads.db" are absolute.
func sqlitePath(p string) string {
	if strings.HasPrefix(p, "/.") || strings.HasPrefix(p, "//") {
		return p[1:]
	}
	return p
}
