// Package sessionstore persists the active conversation session id of a chat
// widget. A Backend is a durable key/value store shared by many widgets; a
// Store binds one backend to the fixed key of one browser profile and exposes
// the load/save/clear contract the widget consumes.
//
// Loading never fails from the caller's point of view: an unavailable or
// corrupt backend reads as "no session".
package sessionstore

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by backends when no value is stored under a key.
var ErrNotFound = errors.New("session key not found")

// Backend is a durable key/value store.
type Backend interface {
	// Get returns the value under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Key scopes the fixed storage name to one browser profile.
func Key(name, profileID string) string {
	if profileID == "" {
		return name
	}
	return name + ":" + profileID
}

// Store is the session store of a single widget.
type Store struct {
	backend Backend
	key     string
	log     zerolog.Logger
}

// New binds backend to key.
func New(backend Backend, key string, log zerolog.Logger) *Store {
	return &Store{backend: backend, key: key, log: log.With().Str("session_key", key).Logger()}
}

// Load returns the persisted session id, or "" when none is stored or the
// backend cannot be read. It does not validate the id against the server.
func (s *Store) Load(ctx context.Context) string {
	v, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn().Err(err).Msg("session store unreadable; treating as no session")
		}
		return ""
	}
	return strings.TrimSpace(v)
}

// Save persists id, replacing any prior value.
func (s *Store) Save(ctx context.Context, id string) error {
	return s.backend.Set(ctx, s.key, id)
}

// Clear removes the persisted id.
func (s *Store) Clear(ctx context.Context) error {
	return s.backend.Delete(ctx, s.key)
}
