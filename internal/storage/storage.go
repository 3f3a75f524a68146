// Package storage materializes guessed tables into relational backends.
//
// The surface is intentionally minimal: create the table a guessed schema
// describes and bulk-insert tokenized rows into it. Each backend implements
// these semantics in its own idiomatic way (pgx batching, database/sql with
// driver placeholders, etc). Backends self-register from an init() in their
// package; importing storage/all pulls in every backend.
package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"csvguess/internal/schema"
)

// Config is the minimal configuration needed to create a Repository.
//
// Edge cases:
//   - Kind must be non-empty and must match a registered backend kind.
//   - DSN is passed through to the backend factory; validation is
//     backend-specific.
type Config struct {
	Kind string
	DSN  string
}

// Repository is a backend-agnostic handle on one database.
type Repository interface {
	// Close releases backend resources (connections, pools). Callers treat
	// Close as "call once".
	Close()

	// EnsureTable creates the table when missing, one column per schema
	// entry with a backend-appropriate native type.
	EnsureTable(ctx context.Context, table string, columns schema.Schema) error

	// InsertRows bulk-inserts tokenized rows, converting each value to its
	// column's native type. Absent values insert as NULL. Returns the
	// number of rows inserted.
	InsertRows(ctx context.Context, table string, columns schema.Schema, rows [][]*string) (int64, error)
}

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "postgres", "sqlite").
//
// Call Register from an init() function in a backend package; the kind
// string becomes the lookup key used by New.
//
// Panics:
//   - If kind is empty.
//   - If f is nil.
//   - If kind is already registered. Failing fast avoids ambiguous backend
//     selection.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Repository using the registered backend factory.
//
// Concurrency:
//   - Safe for concurrent use with Register. New takes a read lock while
//     selecting the factory.
//
// Errors:
//   - Returns an error if cfg.Kind is empty or unsupported.
//   - Returns whatever error the registered factory returns.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing config.Kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("storage: unsupported kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// Kinds returns the registered backend kinds, for CLI help text.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	return out
}

// NormalizeName converts an arbitrary guessed column or table name into a
// safe SQL identifier: lowered, separators collapsed to single underscores,
// everything outside [a-z0-9_] dropped, and a leading digit prefixed.
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))

	lastUnderscore := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '-' || r == '.' || r == '/' || r == '\\' || r == ':' || r == ';':
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_':
			b.WriteRune(r)
			lastUnderscore = r == '_'
		default:
			// dropped
		}
	}

	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "col"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "c_" + out
	}
	return out
}

// RowArgs converts one tokenized row to native argument values aligned with
// the schema. nil stays nil (SQL NULL); short rows pad with NULLs.
//
// Errors:
//   - A value that does not parse under its column's type fails the whole
//     row with the column name in the error. Rows come from the same sample
//     the schema was inferred from, so this indicates a caller bug, not bad
//     input data.
func RowArgs(columns schema.Schema, row []*string) ([]any, error) {
	args := make([]any, len(columns))
	for i, col := range columns {
		if i >= len(row) || row[i] == nil {
			continue
		}
		v := *row[i]

		switch col.Type.Kind {
		case schema.TypeLong:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: column %s: %q is not a long", col.Name, v)
			}
			args[i] = n
		case schema.TypeDouble:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: column %s: %q is not a double", col.Name, v)
			}
			args[i] = f
		case schema.TypeBoolean:
			b, ok := parseBooleanWord(v)
			if !ok {
				return nil, fmt.Errorf("storage: column %s: %q is not a boolean", col.Name, v)
			}
			args[i] = b
		case schema.TypeTimestamp:
			t, err := parseTimestamp(v, col.Type.Format)
			if err != nil {
				return nil, fmt.Errorf("storage: column %s: %w", col.Name, err)
			}
			args[i] = t
		default:
			args[i] = v
		}
	}
	return args, nil
}

func parseBooleanWord(s string) (value, ok bool) {
	switch strings.ToLower(s) {
	case "true", "t", "yes", "y":
		return true, true
	case "false", "f", "no", "n":
		return false, true
	default:
		return false, false
	}
}
