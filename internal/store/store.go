// Package store is the farm data store: the single in-memory source of truth
// for fields, crop cycles, pest reports, preset catalogs and the user
// profile. At Open it probes the remote document store once and binds to
// exactly one persistence port for its lifetime:
//
//   - cloud: memory mirrors live remote snapshots and writes go only to the
//     remote;
//   - local: memory is mutated synchronously and each changed slice is
//     written to on-device storage after a short debounce.
//
// Reads are synchronous. Mutations never return errors; failures are
// logged and swallowed.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/farmhand/farmhand/internal/catalog"
	"github.com/farmhand/farmhand/internal/kv"
	"github.com/farmhand/farmhand/internal/models"
	"github.com/farmhand/farmhand/internal/remote"
)

// Mode is the persistence mode chosen at Open.
type Mode string

const (
	ModeCloud Mode = "cloud"
	ModeLocal Mode = "local"
)

// Slice names one independently persisted part of the state.
type Slice string

const (
	SliceFields      Slice = "fields"
	SliceCycles      Slice = "cycles"
	SlicePestReports Slice = "pest_reports"
	SliceCropPresets Slice = "crop_presets"
	SlicePestPresets Slice = "pest_presets"
	SliceProfile     Slice = "profile"
)

// Local storage keys.
const (
	keyProfile     = "farm_user"
	keyFields      = "farm_fields"
	keyCycles      = "farm_cycles"
	keyPestReports = "farm_pest_reports"
	keyCropPresets = "farm_crop_presets"
	keyPestPresets = "farm_pest_presets"
)

// Change is emitted on the change feed whenever a slice changes in memory.
type Change struct {
	Slice Slice     `json:"slice"`
	At    time.Time `json:"at"`
}

// Options configures Open.
type Options struct {
	// Remote is the cloud backend. Nil selects local mode.
	Remote remote.DocumentStore
	// Local is on-device storage. Nil keeps local mode in memory only.
	Local *kv.Store
	// Debounce delays local writes of a changed slice. Zero writes through.
	Debounce time.Duration
	Logger   *zap.Logger
	// Now and NewID default to time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

// Store is the farm data store. It is safe for concurrent use.
type Store struct {
	log   *zap.Logger
	now   func() time.Time
	newID func() string

	mu          sync.RWMutex
	fields      *collection[models.Field]
	cycles      *collection[models.CropCycle]
	pestReports *collection[models.PestReport]
	cropPresets *collection[models.CropPreset]
	pestPresets *collection[models.Pest]
	profile     models.UserProfile

	mode    Mode
	backend string
	port    port

	feedMu sync.Mutex
	subs   map[chan Change]struct{}
}

// Open builds the store, decides connectivity, and loads initial state. The
// returned error only reports a broken bundled catalog; an unreachable
// remote falls back to local mode.
func Open(ctx context.Context, opts Options) (*Store, error) {
	s := &Store{
		log:         opts.Logger,
		now:         opts.Now,
		newID:       opts.NewID,
		fields:      newFields(),
		cycles:      newCycles(),
		pestReports: newPestReports(),
		cropPresets: newCropPresets(),
		pestPresets: newPestPresets(),
		subs:        make(map[chan Change]struct{}),
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	if opts.Remote != nil {
		err := opts.Remote.Probe(ctx)
		if err == nil {
			rp, werr := openRemote(ctx, s, opts.Remote)
			if werr == nil {
				s.mode, s.backend, s.port = ModeCloud, opts.Remote.Name(), rp
				s.log.Info("store: cloud mode", zap.String("backend", opts.Remote.Name()))
				return s, nil
			}
			err = werr
		}
		s.log.Warn("store: remote unavailable, using local storage",
			zap.String("backend", opts.Remote.Name()),
			zap.Bool("schema_missing", errors.Is(err, remote.ErrSchemaMissing)),
			zap.Error(err))
	}

	s.mu.Lock()
	err := s.loadLocalDefaults()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.port = openLocal(s, opts.Local, opts.Debounce)
	s.mode, s.backend = ModeLocal, "local"
	if opts.Local == nil {
		s.log.Warn("store: no local storage configured, changes will not survive a restart")
	}
	return s, nil
}

// loadBundled seeds the preset catalogs and default profile.
func (s *Store) loadBundled() error {
	crops, err := catalog.CropPresets()
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	pests, err := catalog.Pests()
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	profile, err := catalog.DefaultProfile(s.now())
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	s.cropPresets.set(crops)
	s.pestPresets.set(pests)
	s.profile = profile
	return nil
}

// loadLocalDefaults resets memory to what a fresh local install starts
// with: bundled catalogs, demo fields and cycles, and no pest reports.
func (s *Store) loadLocalDefaults() error {
	if err := s.loadBundled(); err != nil {
		return err
	}
	fields, err := catalog.DemoFields()
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	cycles, err := catalog.DemoCycles()
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	s.fields.set(fields)
	s.cycles.set(cycles)
	s.pestReports.set(nil)
	return nil
}

// Close stops remote subscriptions or writes pending local changes.
func (s *Store) Close() error {
	err := s.port.close()
	s.feedMu.Lock()
	for ch := range s.subs {
		close(ch)
		delete(s.subs, ch)
	}
	s.feedMu.Unlock()
	return err
}

// Flush writes pending local changes now. It is a no-op in cloud mode.
func (s *Store) Flush() error {
	return s.port.flush()
}

// Mode reports the persistence mode chosen at Open.
func (s *Store) Mode() Mode { return s.mode }

// CloudConnected reports whether the store is bound to the remote.
func (s *Store) CloudConnected() bool { return s.mode == ModeCloud }

// Backend names the active backend: the remote's name or "local".
func (s *Store) Backend() string { return s.backend }

// Fields returns all fields.
func (s *Store) Fields() []models.Field {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fields.all()
}

// Field returns the field with id.
func (s *Store) Field(id string) (models.Field, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fields.get(id)
}

// Cycles returns all crop cycles, including those of deleted fields.
func (s *Store) Cycles() []models.CropCycle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycles.all()
}

// Cycle returns the crop cycle with id.
func (s *Store) Cycle(id string) (models.CropCycle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycles.get(id)
}

// CyclesForField returns the cycles planted on fieldID.
func (s *Store) CyclesForField(fieldID string) []models.CropCycle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycles.filter(func(c models.CropCycle) bool { return c.FieldID == fieldID })
}

// PestReports returns all pest reports.
func (s *Store) PestReports() []models.PestReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pestReports.all()
}

// PestReport returns the pest report with id.
func (s *Store) PestReport(id string) (models.PestReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pestReports.get(id)
}

// CropPresets returns the crop preset catalog.
func (s *Store) CropPresets() []models.CropPreset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cropPresets.all()
}

// PestPresets returns the pest catalog.
func (s *Store) PestPresets() []models.Pest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pestPresets.all()
}

// Profile returns the user profile.
func (s *Store) Profile() models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Subscribe returns a channel of changes and a function that cancels the
// subscription. Changes are dropped for a subscriber whose buffer is full.
// The channel is closed on cancel or Close.
func (s *Store) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 16)
	s.feedMu.Lock()
	s.subs[ch] = struct{}{}
	s.feedMu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.feedMu.Lock()
			defer s.feedMu.Unlock()
			if _, ok := s.subs[ch]; ok {
				delete(s.subs, ch)
				close(ch)
			}
		})
	}
}

func (s *Store) emit(sl Slice) {
	c := Change{Slice: sl, At: s.now()}
	s.feedMu.Lock()
	defer s.feedMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

func (s *Store) sliceFor(key string) slice {
	switch key {
	case keyFields:
		return s.fields
	case keyCycles:
		return s.cycles
	case keyPestReports:
		return s.pestReports
	case keyCropPresets:
		return s.cropPresets
	case keyPestPresets:
		return s.pestPresets
	}
	return nil
}

// encodeKey serializes the slice stored under a local key.
func (s *Store) encodeKey(key string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if key == keyProfile {
		raw, err := json.Marshal(s.profile)
		if err != nil {
			return nil, fmt.Errorf("store: encode profile: %w", err)
		}
		return raw, nil
	}
	sl := s.sliceFor(key)
	if sl == nil {
		return nil, fmt.Errorf("store: unknown key %q", key)
	}
	return sl.encode()
}

func (s *Store) allKeys() []string {
	return []string{keyProfile, keyFields, keyCycles, keyPestReports, keyCropPresets, keyPestPresets}
}
