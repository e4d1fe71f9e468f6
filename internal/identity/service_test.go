package identity

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopvista/storefront/pkg/config"
	pkgerrors "github.com/shopvista/storefront/pkg/errors"
	"github.com/shopvista/storefront/pkg/localstore"
)

type fakeStorage struct {
	docs map[string]string
	subs map[string][]localstore.Subscriber
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{docs: map[string]string{}, subs: map[string][]localstore.Subscriber{}}
}

func (f *fakeStorage) Get(ctx context.Context, key string) (string, bool, error) {
	raw, ok := f.docs[key]
	return raw, ok, nil
}

func (f *fakeStorage) Put(ctx context.Context, key, value string) error {
	f.docs[key] = value
	for _, fn := range f.subs[key] {
		fn(value, true)
	}
	return nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	delete(f.docs, key)
	for _, fn := range f.subs[key] {
		fn("", false)
	}
	return nil
}

func (f *fakeStorage) Subscribe(key string, fn localstore.Subscriber) {
	f.subs[key] = append(f.subs[key], fn)
}

func (f *fakeStorage) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, ok := f.docs[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, nil
	}
	return true, nil
}

func (f *fakeStorage) PutJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return f.Put(ctx, key, string(raw))
}

type fakeInbox struct {
	messages []string
}

func (f *fakeInbox) Add(ctx context.Context, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

// Tiny argon parameters keep hashing fast under test; the clamps in
// pkg/security raise them to their minimums.
func newTestService(t *testing.T) (Service, *fakeStorage, *fakeInbox) {
	t.Helper()
	store := newFakeStorage()
	session, err := NewSession(store)
	if err != nil {
		t.Fatalf("unexpected session error: %v", err)
	}
	inbox := &fakeInbox{}
	svc, err := NewService(store, session, inbox, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return svc, store, inbox
}

func register(t *testing.T, svc Service, email, password string) {
	t.Helper()
	if err := svc.Register(context.Background(), email, password, password); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name                     string
		email, password, confirm string
		code                     pkgerrors.Code
	}{
		{"missing email", "", "secret1", "secret1", pkgerrors.CodeValidation},
		{"missing confirm", "ana@example.com", "secret1", "", pkgerrors.CodeValidation},
		{"mismatch", "ana@example.com", "secret1", "secret2", pkgerrors.CodeValidation},
		{"too short", "ana@example.com", "abc", "abc", pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Register(ctx, tc.email, tc.password, tc.confirm)
			if !pkgerrors.HasCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestService_RegisterDuplicate(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "ana@example.com", "secret1")

	err := svc.Register(context.Background(), "ana@example.com", "other12", "other12")
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestService_RegisterDoesNotSignIn(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "ana@example.com", "secret1")

	current, err := svc.Current(context.Background())
	if err != nil {
		t.Fatalf("unexpected current error: %v", err)
	}
	if current != "" {
		t.Fatalf("register must not sign in, got %q", current)
	}
}

func TestService_LoginLogout(t *testing.T) {
	svc, _, inbox := newTestService(t)
	ctx := context.Background()
	register(t, svc, "ana@example.com", "secret1")

	if err := svc.Login(ctx, "ana@example.com", "secret1"); err != nil {
		t.Fatalf("unexpected login error: %v", err)
	}
	current, _ := svc.Current(ctx)
	if current != "ana@example.com" {
		t.Fatalf("expected signed-in identity, got %q", current)
	}

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("unexpected logout error: %v", err)
	}
	current, _ = svc.Current(ctx)
	if current != "" {
		t.Fatalf("expected signed-out identity, got %q", current)
	}

	notifications := len(inbox.messages)
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("repeat logout must be a no-op, got %v", err)
	}
	if len(inbox.messages) != notifications {
		t.Fatal("signed-out logout must not notify")
	}
}

func TestService_LoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "ana@example.com", "secret1")

	if err := svc.Login(ctx, "ana@example.com", "wrong"); !pkgerrors.HasCode(err, pkgerrors.CodeUnauthenticated) {
		t.Fatalf("expected unauthenticated for wrong password, got %v", err)
	}
	if err := svc.Login(ctx, "ghost@example.com", "secret1"); !pkgerrors.HasCode(err, pkgerrors.CodeUnauthenticated) {
		t.Fatalf("expected unauthenticated for unknown email, got %v", err)
	}
	if current, _ := svc.Current(ctx); current != "" {
		t.Fatalf("failed login must not sign in, got %q", current)
	}
}

func TestService_ChangePassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "ana@example.com", "secret1")
	if err := svc.Login(ctx, "ana@example.com", "secret1"); err != nil {
		t.Fatalf("unexpected login error: %v", err)
	}

	if err := svc.ChangePassword(ctx, "wrong", "newpass", "newpass"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation for wrong current password, got %v", err)
	}
	if err := svc.ChangePassword(ctx, "secret1", "secret1", "secret1"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation for unchanged password, got %v", err)
	}

	if err := svc.ChangePassword(ctx, "secret1", "newpass", "newpass"); err != nil {
		t.Fatalf("unexpected change password error: %v", err)
	}

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("unexpected logout error: %v", err)
	}
	if err := svc.Login(ctx, "ana@example.com", "secret1"); !pkgerrors.HasCode(err, pkgerrors.CodeUnauthenticated) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if err := svc.Login(ctx, "ana@example.com", "newpass"); err != nil {
		t.Fatalf("new password must work, got %v", err)
	}
}

func TestService_ChangePasswordRequiresLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.ChangePassword(context.Background(), "a", "newpass", "newpass")
	if !pkgerrors.HasCode(err, pkgerrors.CodeUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestService_ProfileRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "ana@example.com", "secret1")
	if err := svc.Login(ctx, "ana@example.com", "secret1"); err != nil {
		t.Fatalf("unexpected login error: %v", err)
	}

	profile, err := svc.Profile(ctx)
	if err != nil {
		t.Fatalf("unexpected profile error: %v", err)
	}
	if profile.Name != "" {
		t.Fatalf("expected empty profile, got %+v", profile)
	}

	if _, err := svc.UpdateProfile(ctx, "Ana", "", "555-0100"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation for missing address, got %v", err)
	}

	updated, err := svc.UpdateProfile(ctx, "Ana", "1 Main St", "555-0100")
	if err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if updated.Address != "1 Main St" {
		t.Fatalf("unexpected profile %+v", updated)
	}

	profile, err = svc.Profile(ctx)
	if err != nil {
		t.Fatalf("unexpected profile error: %v", err)
	}
	if profile.Name != "Ana" || profile.Phone != "555-0100" {
		t.Fatalf("profile not persisted: %+v", profile)
	}
}

func TestSession_Subscribe(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "ana@example.com", "secret1")

	var events []string
	svc.Subscribe(func(email string) {
		events = append(events, email)
	})

	if err := svc.Login(ctx, "ana@example.com", "secret1"); err != nil {
		t.Fatalf("unexpected login error: %v", err)
	}
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("unexpected logout error: %v", err)
	}

	if len(events) != 2 || events[0] != "ana@example.com" || events[1] != "" {
		t.Fatalf("unexpected session events %v", events)
	}
}

func TestService_Signup(t *testing.T) {
	svc, _, inbox := newTestService(t)
	if err := svc.Signup(context.Background(), "ana@example.com"); err != nil {
		t.Fatalf("unexpected signup error: %v", err)
	}
	if len(inbox.messages) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(inbox.messages))
	}
	if err := svc.Signup(context.Background(), " "); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatal("expected validation for blank email")
	}
}
