package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/quantmind-br/sri-ingest/internal/storage"
	"github.com/quantmind-br/sri-ingest/internal/utils"
)

// Store holds the run state in memory and persists it as one indented JSON
// document through a storage backend.
type Store struct {
	backend  storage.Backend
	key      string
	state    RunState
	mu       sync.RWMutex
	dirty    bool
	logger   *utils.Logger
	now      utils.Clock
	location *time.Location
}

// StoreOptions configures a Store
type StoreOptions struct {
	Backend  storage.Backend
	Key      string
	Logger   *utils.Logger
	Clock    utils.Clock
	Location *time.Location
}

// NewStore creates a Store with empty state. Call Load to read the persisted document.
func NewStore(opts StoreOptions) *Store {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewNopLogger()
	}
	return &Store{
		backend:  opts.Backend,
		key:      opts.Key,
		state:    RunState{},
		logger:   opts.Logger,
		now:      opts.Clock,
		location: opts.Location,
	}
}

// Load replaces the in-memory state with the persisted document.
// On ErrStateNotFound or ErrStateCorrupted the in-memory state is left empty.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = RunState{}
	s.dirty = false

	data, err := s.backend.Read(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrStateNotFound
	}
	if err != nil {
		return err
	}

	var loaded RunState
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("%w: %v", ErrStateCorrupted, err)
	}
	for k, v := range loaded {
		if v.LastStatus == "" {
			v.LastStatus = StatusUnknown
		}
		loaded[k] = v
	}
	if loaded == nil {
		loaded = RunState{}
	}

	s.state = loaded
	s.logger.Debug().
		Int("years", len(loaded)).
		Str("location", s.backend.Location(s.key)).
		Msg("State loaded")
	return nil
}

// Save writes the whole document if anything changed since the last save
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	data = append(data, '\n')

	if err := s.backend.Write(ctx, s.key, data, storage.ContentTypeJSON); err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	s.dirty = false
	s.logger.Debug().
		Int("years", len(s.state)).
		Str("location", s.backend.Location(s.key)).
		Msg("State saved")
	return nil
}

// Get returns a copy of the record for year, or a fresh record with status
// "unknown" when the year has never been seen. Get never mutates the state.
func (s *Store) Get(year int) YearState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ys, ok := s.state[Key(year)]
	if !ok {
		return NewYearState()
	}
	return ys.Clone()
}

// Upsert applies p to the record for year and stamps last_checked_ts.
// The timestamp never moves backwards even if the clock does.
func (s *Store) Upsert(year int, p Patch) YearState {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(year)
	ys, ok := s.state[key]
	if !ok {
		ys = NewYearState()
	}

	ys.LastMetadataUpdate = clonePtr(p.LastMetadataUpdate)
	if p.Status != "" {
		ys.LastStatus = p.Status
	}
	ts := s.checkedTimestamp(ys.LastCheckedTS)
	ys.LastCheckedTS = &ts
	if p.FilePath != "" {
		v := p.FilePath
		ys.LastFilePath = &v
	}
	if p.SHA256 != "" {
		v := p.SHA256
		ys.LastSHA256 = &v
	}

	s.state[key] = ys
	s.dirty = true
	return ys.Clone()
}

func (s *Store) checkedTimestamp(previous *string) string {
	now := s.now()
	if previous != nil {
		if prev, err := utils.ParseISOTimestamp(*previous, s.location); err == nil && prev.After(now) {
			return *previous
		}
	}
	return utils.ISOTimestamp(now, s.location)
}

// Snapshot returns a deep copy of the whole state
func (s *Store) Snapshot() RunState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(RunState, len(s.state))
	for k, v := range s.state {
		out[k] = v.Clone()
	}
	return out
}

// Years returns the recorded years in ascending order. Non-numeric keys are ignored.
func (s *Store) Years() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	years := make([]int, 0, len(s.state))
	for k := range s.state {
		if y, err := strconv.Atoi(k); err == nil {
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}

// Location returns where the state document lives
func (s *Store) Location() string {
	return s.backend.Location(s.key)
}

// IsDirty reports whether there are unsaved changes
func (s *Store) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}
