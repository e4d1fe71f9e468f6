package notifications

import (
	"context"
	"sync"
	"time"

	pkgerrors "github.com/shopvista/storefront/pkg/errors"
)

// storageKey is the local store key holding the whole inbox document.
const storageKey = "notifications"

const (
	dateLayout = "Jan 2, 2006"
	timeLayout = "03:04 PM"
)

// Notification is one inbox entry. IDs are creation timestamps in unix
// milliseconds, bumped on collision so they stay unique within a process.
type Notification struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Read    bool   `json:"read"`
}

// Service defines the inbox operations. The list is ordered newest first.
type Service interface {
	Add(ctx context.Context, message string) error
	List(ctx context.Context) ([]Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id int64) error
	ClearAll(ctx context.Context) error
}

type storage interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	PutJSON(ctx context.Context, key string, v any) error
}

type service struct {
	store storage
	now   func() time.Time

	mu     sync.Mutex
	lastID int64
}

// NewService wires the inbox to its backing store.
func NewService(store storage) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inbox storage required")
	}
	return &service{store: store, now: time.Now}, nil
}

// Add prepends a new unread notification stamped with the current local date
// and time.
func (s *service) Add(ctx context.Context, message string) error {
	if message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification message required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	items, err := s.load(ctx)
	if err != nil {
		return err
	}

	items = append([]Notification{{
		ID:      id,
		Message: message,
		Date:    now.Format(dateLayout),
		Time:    now.Format(timeLayout),
		Read:    false,
	}}, items...)

	return s.persist(ctx, items)
}

func (s *service) List(ctx context.Context) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *service) UnreadCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, item := range items {
		if !item.Read {
			count++
		}
	}
	return count, nil
}

// MarkRead flags a notification as read. Marking an already-read or absent id
// changes nothing and reports success.
func (s *service) MarkRead(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return err
	}

	for i := range items {
		if items[i].ID != id {
			continue
		}
		if items[i].Read {
			return nil
		}
		items[i].Read = true
		return s.persist(ctx, items)
	}
	return nil
}

// ClearAll empties the inbox.
func (s *service) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx, []Notification{})
}

// load reads the stored inbox. A missing or undecodable document is an empty
// inbox, never an error.
func (s *service) load(ctx context.Context) ([]Notification, error) {
	var items []Notification
	ok, err := s.store.GetJSON(ctx, storageKey, &items)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notifications")
	}
	if !ok || items == nil {
		return []Notification{}, nil
	}
	return items, nil
}

func (s *service) persist(ctx context.Context, items []Notification) error {
	if err := s.store.PutJSON(ctx, storageKey, items); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist notifications")
	}
	return nil
}
