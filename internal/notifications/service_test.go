package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	pkgerrors "github.com/shopvista/storefront/pkg/errors"
)

type fakeStorage struct {
	docs    map[string]string
	getErr  error
	putErr  error
	putHits int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{docs: map[string]string{}}
}

func (f *fakeStorage) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if f.getErr != nil {
		return false, f.getErr
	}
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
	if f.putErr != nil {
		return f.putErr
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.putHits++
	f.docs[key] = string(raw)
	return nil
}

func newServiceAt(store *fakeStorage, now time.Time) *service {
	svc, _ := NewService(store)
	typed := svc.(*service)
	typed.now = func() time.Time { return now }
	return typed
}

func TestService_AddPrependsUnread(t *testing.T) {
	store := newFakeStorage()
	now := time.Date(2026, time.March, 5, 14, 7, 0, 0, time.UTC)
	svc := newServiceAt(store, now)

	if err := svc.Add(context.Background(), "Order placed."); err != nil {
		t.Fatalf("unexpected add error: %v", err)
	}
	if err := svc.Add(context.Background(), "Item removed."); err != nil {
		t.Fatalf("unexpected add error: %v", err)
	}

	items, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(items))
	}
	if items[0].Message != "Item removed." {
		t.Fatalf("expected newest first, got %q", items[0].Message)
	}
	if items[0].Read || items[1].Read {
		t.Fatal("new notifications must be unread")
	}
	if items[0].Date != "Mar 5, 2026" {
		t.Fatalf("unexpected date %q", items[0].Date)
	}
	if items[0].Time != "02:07 PM" {
		t.Fatalf("unexpected time %q", items[0].Time)
	}
}

func TestService_AddBumpsCollidingIDs(t *testing.T) {
	store := newFakeStorage()
	now := time.Date(2026, time.March, 5, 14, 7, 0, 0, time.UTC)
	svc := newServiceAt(store, now)

	for i := 0; i < 3; i++ {
		if err := svc.Add(context.Background(), "ping"); err != nil {
			t.Fatalf("unexpected add error: %v", err)
		}
	}

	items, _ := svc.List(context.Background())
	seen := map[int64]bool{}
	for _, item := range items {
		if seen[item.ID] {
			t.Fatalf("duplicate id %d", item.ID)
		}
		seen[item.ID] = true
	}
	if items[0].ID <= items[1].ID || items[1].ID <= items[2].ID {
		t.Fatalf("ids must strictly increase per insertion: %d %d %d", items[2].ID, items[1].ID, items[0].ID)
	}
}

func TestService_AddRequiresMessage(t *testing.T) {
	svc := newServiceAt(newFakeStorage(), time.Now())
	err := svc.Add(context.Background(), "")
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_MarkRead(t *testing.T) {
	store := newFakeStorage()
	svc := newServiceAt(store, time.Now())
	if err := svc.Add(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected add error: %v", err)
	}
	items, _ := svc.List(context.Background())

	if err := svc.MarkRead(context.Background(), items[0].ID); err != nil {
		t.Fatalf("unexpected mark read error: %v", err)
	}
	items, _ = svc.List(context.Background())
	if !items[0].Read {
		t.Fatal("expected notification to be read")
	}

	writes := store.putHits
	if err := svc.MarkRead(context.Background(), items[0].ID); err != nil {
		t.Fatalf("unexpected repeat mark read error: %v", err)
	}
	if store.putHits != writes {
		t.Fatal("marking an already-read notification must not rewrite the inbox")
	}
}

func TestService_MarkReadAbsentID(t *testing.T) {
	store := newFakeStorage()
	svc := newServiceAt(store, time.Now())
	if err := svc.MarkRead(context.Background(), 42); err != nil {
		t.Fatalf("expected absent id to be a no-op, got %v", err)
	}
	if store.putHits != 0 {
		t.Fatal("absent id must not write")
	}
}

func TestService_UnreadCount(t *testing.T) {
	svc := newServiceAt(newFakeStorage(), time.Now())
	for _, msg := range []string{"a", "b", "c"} {
		if err := svc.Add(context.Background(), msg); err != nil {
			t.Fatalf("unexpected add error: %v", err)
		}
	}
	items, _ := svc.List(context.Background())
	if err := svc.MarkRead(context.Background(), items[1].ID); err != nil {
		t.Fatalf("unexpected mark read error: %v", err)
	}

	count, err := svc.UnreadCount(context.Background())
	if err != nil {
		t.Fatalf("unexpected count error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 unread, got %d", count)
	}
}

func TestService_ClearAll(t *testing.T) {
	svc := newServiceAt(newFakeStorage(), time.Now())
	if err := svc.Add(context.Background(), "a"); err != nil {
		t.Fatalf("unexpected add error: %v", err)
	}
	if err := svc.ClearAll(context.Background()); err != nil {
		t.Fatalf("unexpected clear error: %v", err)
	}
	items, _ := svc.List(context.Background())
	if len(items) != 0 {
		t.Fatalf("expected empty inbox, got %d items", len(items))
	}
}

func TestService_StorageFailure(t *testing.T) {
	store := newFakeStorage()
	store.getErr = errors.New("boom")
	svc := newServiceAt(store, time.Now())
	_, err := svc.List(context.Background())
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
