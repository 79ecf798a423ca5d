// Package dedup tracks lead identifiers that have already been exported so
// repeat deliveries of the same lead are rejected.
package dedup

import (
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store is the pluggable identifier set behind the gate. Admit performs an
// atomic check-and-insert: true on first occurrence, false on any repeat.
type Store interface {
	Admit(id string) (bool, error)
}

// Gate applies the duplicate policy on top of a Store. An empty id bypasses
// the gate entirely: such records are always accepted and never recorded.
type Gate struct {
	store Store
}

// NewGate wraps a store in a gate.
func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// Admit reports whether a lead id should be processed. Repeats are rejected
// regardless of payload differences. Store failures log and admit; a broken
// dedup backend must not stop lead flow.
func (g *Gate) Admit(id string) bool {
	if id == "" {
		return true
	}
	accepted, err := g.store.Admit(id)
	if err != nil {
		log.Printf("Dedup store error for lead id %s: %v. Admitting lead.", id, err)
		return true
	}
	return accepted
}

// MemoryStore keeps seen ids in memory for the process lifetime only. It is
// NOT durable: a restart forgets every id it has accepted. Check-and-insert
// happens under one lock acquisition so two concurrent deliveries of the
// same id cannot both be admitted.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

// Admit records the id and reports whether it was new.
func (s *MemoryStore) Admit(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.seen[id]; exists {
		return false, nil
	}
	s.seen[id] = struct{}{}
	return true, nil
}

// ProcessedLead is one exported lead id in the persistent store.
type ProcessedLead struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
}

// TableName keeps the table name stable across gorm naming changes.
func (ProcessedLead) TableName() string {
	return "processed_leads"
}

// GormStore is the durable Store variant, backed by a SQLite database so
// accepted ids survive restarts.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens (or creates) the SQLite database at path and migrates
// the processed_leads table.
func NewGormStore(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open dedup database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&ProcessedLead{}); err != nil {
		return nil, fmt.Errorf("failed to migrate dedup schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Admit inserts the id with conflict-do-nothing; the affected row count
// tells first occurrence from repeat in one statement.
func (s *GormStore) Admit(id string) (bool, error) {
	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&ProcessedLead{ID: id, CreatedAt: time.Now().UTC()})
	if result.Error != nil {
		return false, fmt.Errorf("failed to record lead id %s: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}
