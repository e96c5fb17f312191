package ratetables

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoSnapshot is returned when the store has never been loaded.
var ErrNoSnapshot = errors.New("no rate tables loaded")

// Snapshot is one published version of the tables. It is never modified
// after it is published.
type Snapshot struct {
	ID       uuid.UUID `json:"id"`
	Version  string    `json:"version"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loadedAt"`
	Tables   *Tables   `json:"-"`
}

// Store publishes snapshots to concurrent readers. Readers take the current
// pointer once per calculation so a reload mid-request is not observed.
type Store struct {
	current atomic.Pointer[Snapshot]
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.Mutex
	listeners []func(*Snapshot)
}

// NewStore returns an empty store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger, now: time.Now}
}

// Current returns the published snapshot.
func (s *Store) Current() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// Replace publishes a compiled copy of t as a new snapshot. Later changes
// to t are not seen by readers.
func (s *Store) Replace(t *Tables, source string) (*Snapshot, error) {
	if t == nil {
		return nil, fmt.Errorf("rate tables are nil")
	}
	published, err := t.clone()
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		ID:       uuid.New(),
		Version:  published.Version,
		Source:   source,
		LoadedAt: s.now().UTC(),
		Tables:   published,
	}
	previous := s.current.Swap(snap)

	fields := []zap.Field{
		zap.String("op", "ratetables.Replace"),
		zap.String("snapshot", snap.ID.String()),
		zap.String("version", snap.Version),
		zap.String("source", source),
	}
	if previous != nil {
		fields = append(fields, zap.String("previousVersion", previous.Version))
	}
	s.logger.Info("published rate tables", fields...)

	s.mu.Lock()
	listeners := append([]func(*Snapshot){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
	return snap, nil
}

// clone returns a compiled deep copy of t through the JSON document form.
func (t *Tables) clone() (*Tables, error) {
	doc, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("copying rate tables: %w", err)
	}
	return LoadBytes(doc, FormatJSON)
}

// OnPublish registers fn to run after every snapshot Replace publishes,
// including reloads triggered by Watch.
func (s *Store) OnPublish(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// LoadFile loads path and publishes it.
func (s *Store) LoadFile(path string) (*Snapshot, error) {
	t, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return s.Replace(t, path)
}
