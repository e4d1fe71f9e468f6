package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shopvista/storefront/pkg/config"
	"github.com/shopvista/storefront/pkg/logger"
)

// Store is a durable string-keyed JSON value store. Writes are synchronous and
// atomic per key; the last writer wins. No merge or conflict resolution exists.
type Store struct {
	conn *gorm.DB

	mu   sync.Mutex
	subs map[string][]Subscriber
}

// Subscriber observes changes to a single key. ok is false when the key was
// removed.
type Subscriber func(value string, ok bool)

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

type entry struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (entry) TableName() string {
	return "kv_entries"
}

// Open boots the store at the configured path, creating the schema if needed.
func Open(ctx context.Context, cfg config.StorageConfig, logg *logger.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}

	if err := conn.WithContext(ctx).AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("migrating local store: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "local store opened")
	}

	return &Store{conn: conn, subs: map[string][]Subscriber{}}, nil
}

// Get returns the raw value for key. ok is false when the key is absent.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var row entry
	err := s.conn.WithContext(ctx).First(&row, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return row.Value, true, nil
}

// Put writes value under key, replacing any prior value, and notifies
// subscribers for that key.
func (s *Store) Put(ctx context.Context, key, value string) error {
	row := entry{Key: key, Value: value}
	err := s.conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return err
	}
	s.notify(key, value, true)
	return nil
}

// Delete removes key. Removing an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.conn.WithContext(ctx).Delete(&entry{}, "key = ?", key).Error; err != nil {
		return err
	}
	s.notify(key, "", false)
	return nil
}

// GetJSON decodes the value under key into dest. A missing key or a value
// that fails to decode both report ok=false: corrupt state degrades to absent
// rather than propagating.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, nil
	}
	return true, nil
}

// PutJSON encodes v and writes it under key.
func (s *Store) PutJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(ctx, key, string(raw))
}

// Subscribe registers fn for changes to key. Callbacks run synchronously on
// the writing goroutine, after the write has been persisted.
func (s *Store) Subscribe(key string, fn Subscriber) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[key] = append(s.subs[key], fn)
}

func (s *Store) notify(key, value string, ok bool) {
	s.mu.Lock()
	subs := append([]Subscriber(nil), s.subs[key]...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(value, ok)
	}
}

// Ping verifies the datasource is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close shuts down the pooled connections.
func (s *Store) Close() error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
