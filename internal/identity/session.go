package identity

import (
	"context"

	pkgerrors "github.com/shopvista/storefront/pkg/errors"
	"github.com/shopvista/storefront/pkg/localstore"
)

// sessionKey is the local store key holding the signed-in email.
const sessionKey = "currentUserEmail"

type sessionStorage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Subscribe(key string, fn localstore.Subscriber)
}

// Session is the single process-wide identity. At most one user is signed in
// at a time; the value survives restarts. Concurrent processes sharing the
// store race on it and the last write wins.
type Session struct {
	store sessionStorage
}

// NewSession wires the session to its backing store.
func NewSession(store sessionStorage) (*Session, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "session storage required")
	}
	return &Session{store: store}, nil
}

// Current returns the signed-in email, empty when signed out.
func (s *Session) Current(ctx context.Context) (string, error) {
	email, ok, err := s.store.Get(ctx, sessionKey)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	if !ok {
		return "", nil
	}
	return email, nil
}

// Subscribe registers fn for sign-in and sign-out events. fn receives the new
// identity, empty on sign-out.
func (s *Session) Subscribe(fn func(email string)) {
	if fn == nil {
		return
	}
	s.store.Subscribe(sessionKey, func(value string, ok bool) {
		if !ok {
			value = ""
		}
		fn(value)
	})
}

func (s *Session) set(ctx context.Context, email string) error {
	if err := s.store.Put(ctx, sessionKey, email); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist session")
	}
	return nil
}

func (s *Session) clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, sessionKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear session")
	}
	return nil
}
