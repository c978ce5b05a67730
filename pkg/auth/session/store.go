// Package session persists the authenticated credential pair of a session:
// the serialized current user and its access token.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/athengaudio/storefront/pkg/kv"
	"github.com/google/uuid"
)

const (
	currentUserSuffix = "currentUser"
	authTokenSuffix   = "auth_token"
)

// Store reads and writes the credential pair for a session namespace.
type Store struct {
	kv kv.Store
}

// Snapshot is the persisted state of one session. Either half may be absent
// when storage was edited or partially written.
type Snapshot struct {
	User  []byte
	Token string
}

// Complete reports whether both halves of the pair are present.
func (s Snapshot) Complete() bool {
	return len(s.User) > 0 && s.Token != ""
}

// NewStore constructs a session store over the provided backend.
func NewStore(store kv.Store) (*Store, error) {
	if store == nil {
		return nil, fmt.Errorf("kv store is required")
	}
	return &Store{kv: store}, nil
}

// UserKey is the key holding the serialized principal.
func UserKey(namespace string) string {
	return namespace + ":" + currentUserSuffix
}

// TokenKey is the key holding the access token.
func TokenKey(namespace string) string {
	return namespace + ":" + authTokenSuffix
}

// NewID produces a session namespace. The same value is used as the JWT jti.
func NewID() string {
	return uuid.NewString()
}

// Save writes the user and token together.
func (s *Store) Save(ctx context.Context, namespace string, user []byte, token string) error {
	if err := validNamespace(namespace); err != nil {
		return err
	}
	return s.kv.SetMulti(ctx, map[string][]byte{
		UserKey(namespace):  user,
		TokenKey(namespace): []byte(token),
	})
}

// SaveUser rewrites only the principal, keeping the current token.
func (s *Store) SaveUser(ctx context.Context, namespace string, user []byte) error {
	if err := validNamespace(namespace); err != nil {
		return err
	}
	return s.kv.Set(ctx, UserKey(namespace), user, 0)
}

// Load returns whatever halves of the pair are stored.
func (s *Store) Load(ctx context.Context, namespace string) (Snapshot, error) {
	if err := validNamespace(namespace); err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	user, err := s.kv.Get(ctx, UserKey(namespace))
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return Snapshot{}, err
	}
	snap.User = user

	token, err := s.kv.Get(ctx, TokenKey(namespace))
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return Snapshot{}, err
	}
	snap.Token = string(token)
	return snap, nil
}

// Clear removes both keys in a single delete.
func (s *Store) Clear(ctx context.Context, namespace string) error {
	if err := validNamespace(namespace); err != nil {
		return err
	}
	return s.kv.Del(ctx, UserKey(namespace), TokenKey(namespace))
}

// HasSession reports whether the namespace still holds a complete pair.
func (s *Store) HasSession(ctx context.Context, namespace string) (bool, error) {
	snap, err := s.Load(ctx, namespace)
	if err != nil {
		return false, err
	}
	return snap.Complete(), nil
}

func validNamespace(namespace string) error {
	if strings.TrimSpace(namespace) == "" {
		return fmt.Errorf("session namespace is required")
	}
	return nil
}
