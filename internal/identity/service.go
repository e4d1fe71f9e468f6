package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopvista/storefront/pkg/config"
	pkgerrors "github.com/shopvista/storefront/pkg/errors"
	"github.com/shopvista/storefront/pkg/security"
)

const (
	usersKey    = "users"
	profilesKey = "userProfiles"

	minPasswordLen = 6
)

// Profile is the editable account detail set, keyed by email.
type Profile struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Service defines account, session and profile operations.
type Service interface {
	Register(ctx context.Context, email, password, confirm string) error
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	Current(ctx context.Context) (string, error)
	Subscribe(fn func(email string))
	ChangePassword(ctx context.Context, current, next, confirm string) error
	Profile(ctx context.Context) (*Profile, error)
	UpdateProfile(ctx context.Context, name, address, phone string) (*Profile, error)
	Signup(ctx context.Context, email string) error
}

type storage interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	PutJSON(ctx context.Context, key string, v any) error
}

type notifier interface {
	Add(ctx context.Context, message string) error
}

type service struct {
	store     storage
	session   *Session
	inbox     notifier
	passwords config.PasswordConfig

	mu sync.Mutex
}

// NewService wires accounts to their backing store, the session and the inbox.
func NewService(store storage, session *Session, inbox notifier, passwords config.PasswordConfig) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "account storage required")
	}
	if session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "session required")
	}
	if inbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification inbox required")
	}
	return &service{store: store, session: session, inbox: inbox, passwords: passwords}, nil
}

// Register creates an account. It does not sign the user in; login is a
// separate step.
func (s *service) Register(ctx context.Context, email, password, confirm string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" || confirm == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "all fields are required")
	}
	if password != confirm {
		return pkgerrors.New(pkgerrors.CodeValidation, "passwords do not match")
	}
	if len(password) < minPasswordLen {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	if _, exists := users[email]; exists {
		return pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
	}

	hash, err := security.HashPassword(password, s.passwords)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	users[email] = hash
	if err := s.persistUsers(ctx, users); err != nil {
		return err
	}

	return s.inbox.Add(ctx, "Account created successfully. You can now log in.")
}

// Login verifies credentials and makes email the current identity. Unknown
// emails and wrong passwords fail identically.
func (s *service) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	hash, exists := users[email]
	if !exists {
		return pkgerrors.New(pkgerrors.CodeUnauthenticated, "invalid email or password")
	}
	match, err := security.VerifyPassword(password, hash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !match {
		return pkgerrors.New(pkgerrors.CodeUnauthenticated, "invalid email or password")
	}

	if err := s.session.set(ctx, email); err != nil {
		return err
	}
	return s.inbox.Add(ctx, fmt.Sprintf("Welcome back, %s!", email))
}

// Logout clears the current identity. Logging out while signed out is a
// silent no-op.
func (s *service) Logout(ctx context.Context) error {
	current, err := s.session.Current(ctx)
	if err != nil {
		return err
	}
	if current == "" {
		return nil
	}
	if err := s.session.clear(ctx); err != nil {
		return err
	}
	return s.inbox.Add(ctx, "You have been logged out.")
}

func (s *service) Current(ctx context.Context) (string, error) {
	return s.session.Current(ctx)
}

func (s *service) Subscribe(fn func(email string)) {
	s.session.Subscribe(fn)
}

// ChangePassword rotates the signed-in account's password after verifying the
// current one.
func (s *service) ChangePassword(ctx context.Context, current, next, confirm string) error {
	email, err := s.session.Current(ctx)
	if err != nil {
		return err
	}
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthenticated, "login required to change password")
	}

	if current == "" || next == "" || confirm == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "all fields are required")
	}
	if next != confirm {
		return pkgerrors.New(pkgerrors.CodeValidation, "passwords do not match")
	}
	if len(next) < minPasswordLen {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if next == current {
		return pkgerrors.New(pkgerrors.CodeValidation, "new password must be different from the current one")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	hash, exists := users[email]
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	match, err := security.VerifyPassword(current, hash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !match {
		return pkgerrors.New(pkgerrors.CodeValidation, "current password is incorrect")
	}

	newHash, err := security.HashPassword(next, s.passwords)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	users[email] = newHash
	if err := s.persistUsers(ctx, users); err != nil {
		return err
	}

	return s.inbox.Add(ctx, "Your password has been updated.")
}

// Profile returns the signed-in account's details. An account that never
// saved a profile gets empty fields.
func (s *service) Profile(ctx context.Context) (*Profile, error) {
	email, err := s.session.Current(ctx)
	if err != nil {
		return nil, err
	}
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "login required to view profile")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.loadProfiles(ctx)
	if err != nil {
		return nil, err
	}
	profile := profiles[email]
	return &profile, nil
}

// UpdateProfile replaces the signed-in account's details. Partial updates are
// not supported; every field must be present.
func (s *service) UpdateProfile(ctx context.Context, name, address, phone string) (*Profile, error) {
	email, err := s.session.Current(ctx)
	if err != nil {
		return nil, err
	}
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "login required to update profile")
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(address) == "" || strings.TrimSpace(phone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name, address and phone are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.loadProfiles(ctx)
	if err != nil {
		return nil, err
	}
	profile := Profile{Name: name, Address: address, Phone: phone}
	profiles[email] = profile
	if err := s.store.PutJSON(ctx, profilesKey, profiles); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist profiles")
	}

	if err := s.inbox.Add(ctx, "Profile updated successfully."); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Signup records a free trial request. No account is created; the inbox gets
// the confirmation the marketing page shows.
func (s *service) Signup(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	return s.inbox.Add(ctx, fmt.Sprintf("Thanks for signing up! A free trial invite is on its way to %s.", email))
}

func (s *service) loadUsers(ctx context.Context) (map[string]string, error) {
	users := map[string]string{}
	ok, err := s.store.GetJSON(ctx, usersKey, &users)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load users")
	}
	if !ok || users == nil {
		return map[string]string{}, nil
	}
	return users, nil
}

func (s *service) persistUsers(ctx context.Context, users map[string]string) error {
	if err := s.store.PutJSON(ctx, usersKey, users); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist users")
	}
	return nil
}

func (s *service) loadProfiles(ctx context.Context) (map[string]Profile, error) {
	profiles := map[string]Profile{}
	ok, err := s.store.GetJSON(ctx, profilesKey, &profiles)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profiles")
	}
	if !ok || profiles == nil {
		return map[string]Profile{}, nil
	}
	return profiles, nil
}
