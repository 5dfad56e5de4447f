package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jakechorley/mesctl/pkg/core/model"
)

// Store persists the session context between command invocations.
// Get returns an empty session, never nil, when nothing has been stored yet.
type Store interface {
	Get(ctx context.Context) (*model.Session, error)
	Set(ctx context.Context, s *model.Session) error
	Clear(ctx context.Context) error
}

// Intent kinds handed from one command to the next
const (
	IntentMove = "move"
)

// New returns an empty session with a fresh ID
func New() *model.Session {
	return &model.Session{ID: uuid.New().String()}
}

// Update loads the session, applies fn and stores the result
func Update(ctx context.Context, store Store, fn func(s *model.Session)) (*model.Session, error) {
	s, err := store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	fn(s)
	s.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := store.Set(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return s, nil
}

// FormatIntent encodes an intent and its argument, e.g. "move:A3"
func FormatIntent(kind, arg string) string {
	return kind + ":" + arg
}

// ParseIntent splits an intent into its kind and argument
func ParseIntent(intent string) (kind, arg string, ok bool) {
	kind, arg, ok = strings.Cut(intent, ":")
	if !ok || kind == "" {
		return "", "", false
	}
	return kind, arg, true
}

// TakeIntent returns the pending intent of the given kind and clears it
func TakeIntent(ctx context.Context, store Store, kind string) (string, bool, error) {
	s, err := store.Get(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to load session: %w", err)
	}
	k, arg, ok := ParseIntent(s.Intent)
	if !ok || k != kind {
		return "", false, nil
	}
	if _, err := Update(ctx, store, func(s *model.Session) { s.Intent = "" }); err != nil {
		return "", false, err
	}
	return arg, true, nil
}

// Tokens adapts a Store into a bearer-token provider for the MES client
type Tokens struct {
	Store Store
}

// Token returns the stored token, or "" when none is stored
func (t Tokens) Token(ctx context.Context) (string, error) {
	s, err := t.Store.Get(ctx)
	if err != nil {
		return "", err
	}
	return s.Token, nil
}
