// Package history records past summarize requests. Entries live in a JSON
// file by default or in a Redis list when several processes share them.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxEntries is the default number of entries kept by every backend.
const MaxEntries = 100

// Backend names accepted by Open.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown history backend")

// Entry is one completed summarize request.
type Entry struct {
	ID         string    `json:"id"`
	Document   string    `json:"document"`
	Query      string    `json:"query,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	NodeCount  int       `json:"node_count"`
	WholeGraph bool      `json:"whole_graph,omitempty"`
	Details    string    `json:"details"`
	Summary    string    `json:"summary"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewEntry stamps an entry with a fresh ID and the current time.
func NewEntry(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return e
}

// Store persists entries.
type Store interface {
	Append(ctx context.Context, e Entry) error
	// List returns up to limit entries, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend    string
	Path       string
	MaxEntries int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string
	TTL           time.Duration
}

// Open creates the backend named by opts.Backend. Empty means file.
func Open(opts Options) (Store, error) {
	keep := opts.MaxEntries
	if keep <= 0 {
		keep = MaxEntries
	}

	switch opts.Backend {
	case "", BackendFile:
		return OpenFile(opts.Path, keep)
	case BackendRedis:
		ropts := []Option{WithMaxEntries(keep), WithTTL(opts.TTL)}
		if opts.RedisKey != "" {
			ropts = append(ropts, WithKey(opts.RedisKey))
		}
		return NewRedis(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, ropts...), nil
	case BackendNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("%w: %s (valid: file, redis, none)", ErrUnknownBackend, opts.Backend)
	}
}

// Nop discards entries.
type Nop struct{}

func (Nop) Append(context.Context, Entry) error { return nil }

func (Nop) List(context.Context, int) ([]Entry, error) { return nil, nil }

func (Nop) Close() error { return nil }
