package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/farmhand/farmhand/internal/kv"
	"github.com/farmhand/farmhand/internal/models"
	"github.com/farmhand/farmhand/internal/remote"
)

// port is where mutations go. Exactly one implementation is bound at Open;
// mutation methods never branch on the mode themselves.
type port interface {
	// put creates or overwrites the whole document id.
	put(ctx context.Context, sl slice, id string, doc any)
	// merge applies p to the existing document id.
	merge(ctx context.Context, sl slice, id string, p models.Patch)
	remove(ctx context.Context, sl slice, id string)
	saveProfile(ctx context.Context, p models.UserProfile)
	flush() error
	close() error
}

// localPort mutates memory synchronously and persists changed slices.
type localPort struct {
	s       *Store
	persist *persister
}

func openLocal(s *Store, store *kv.Store, debounce time.Duration) *localPort {
	if store != nil {
		s.mu.Lock()
		for _, key := range s.allKeys() {
			s.rehydrate(store, key)
		}
		s.mu.Unlock()
	}
	return &localPort{s: s, persist: newPersister(store, debounce, s.encodeKey, s.log)}
}

// rehydrate replaces one slice with its stored value when there is one.
// Callers hold s.mu.
func (s *Store) rehydrate(store *kv.Store, key string) {
	raw, err := store.GetRaw(key)
	if errors.Is(err, kv.ErrNotFound) {
		return
	}
	if err != nil {
		s.log.Warn("store: read local storage, using defaults", zap.String("key", key), zap.Error(err))
		return
	}
	if key == keyProfile {
		var p models.UserProfile
		if err := json.Unmarshal(raw, &p); err != nil {
			s.log.Warn("store: corrupt local profile, using default", zap.Error(err))
			return
		}
		s.profile = p
		return
	}
	if err := s.sliceFor(key).decode(raw); err != nil {
		s.log.Warn("store: corrupt local slice, using defaults", zap.String("key", key), zap.Error(err))
	}
}

func (p *localPort) put(_ context.Context, sl slice, id string, doc any) {
	p.s.mu.Lock()
	err := sl.upsertDoc(doc)
	p.s.mu.Unlock()
	if err != nil {
		p.s.log.Error("store: put", zap.String("slice", string(sl.name())), zap.String("id", id), zap.Error(err))
		return
	}
	p.changed(sl.name(), sl.kvKey())
}

func (p *localPort) merge(_ context.Context, sl slice, id string, patch models.Patch) {
	p.s.mu.Lock()
	err := sl.patch(id, patch)
	p.s.mu.Unlock()
	if errors.Is(err, errNoSuchItem) {
		p.s.log.Debug("store: merge into missing item ignored", zap.String("slice", string(sl.name())), zap.String("id", id))
		return
	}
	if err != nil {
		p.s.log.Error("store: merge", zap.String("slice", string(sl.name())), zap.String("id", id), zap.Error(err))
		return
	}
	p.changed(sl.name(), sl.kvKey())
}

func (p *localPort) remove(_ context.Context, sl slice, id string) {
	p.s.mu.Lock()
	ok := sl.delete(id)
	p.s.mu.Unlock()
	if ok {
		p.changed(sl.name(), sl.kvKey())
	}
}

func (p *localPort) saveProfile(_ context.Context, prof models.UserProfile) {
	p.s.mu.Lock()
	p.s.profile = prof
	p.s.mu.Unlock()
	p.changed(SliceProfile, keyProfile)
}

func (p *localPort) changed(sl Slice, key string) {
	p.s.emit(sl)
	p.persist.schedule(key)
}

func (p *localPort) flush() error { return p.persist.flush() }
func (p *localPort) close() error { return p.persist.close() }

// remotePort writes to the remote only; memory follows via snapshots.
// Writes ignore the caller's cancellation: once issued they complete, as
// local writes do.
type remotePort struct {
	s     *Store
	rs    remote.DocumentStore
	stops []func()
}

// openRemote loads bundled defaults, reads the profile once, and subscribes
// to every watched collection. On failure the started subscriptions are
// stopped again.
func openRemote(ctx context.Context, s *Store, rs remote.DocumentStore) (*remotePort, error) {
	s.mu.Lock()
	err := s.loadBundled()
	s.fields.set(nil)
	s.cycles.set(nil)
	s.pestReports.set(nil)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	p := &remotePort{s: s, rs: rs}
	doc, err := rs.Get(ctx, remote.Users, remote.CurrentUser)
	switch {
	case err == nil:
		var prof models.UserProfile
		if err := json.Unmarshal(doc.Data, &prof); err != nil {
			s.log.Warn("store: corrupt remote profile, using default", zap.Error(err))
		} else {
			s.mu.Lock()
			s.profile = prof
			s.mu.Unlock()
		}
	case errors.Is(err, remote.ErrNotFound):
	default:
		s.log.Error("store: read remote profile", zap.Error(err))
	}

	for _, sl := range []slice{s.fields, s.cycles, s.pestReports, s.cropPresets, s.pestPresets} {
		sl := sl
		stop, err := rs.Watch(ctx, sl.remoteName(),
			func(docs []remote.Document) { s.applySnapshot(sl, docs) },
			func(err error) {
				s.log.Error("store: subscription ended", zap.String("collection", sl.remoteName()), zap.Error(err))
			})
		if err != nil {
			p.close()
			return nil, fmt.Errorf("store: watch %s: %w", sl.remoteName(), err)
		}
		p.stops = append(p.stops, stop)
	}
	return p, nil
}

func (s *Store) applySnapshot(sl slice, docs []remote.Document) {
	s.mu.Lock()
	changed, err := sl.applySnapshot(docs)
	s.mu.Unlock()
	if err != nil {
		s.log.Warn("store: skipped undecodable documents", zap.String("collection", sl.remoteName()), zap.Error(err))
	}
	if changed {
		s.emit(sl.name())
	}
}

func (p *remotePort) put(ctx context.Context, sl slice, id string, doc any) {
	ctx = context.WithoutCancel(ctx)
	raw, err := json.Marshal(doc)
	if err != nil {
		p.s.log.Error("store: encode document", zap.String("collection", sl.remoteName()), zap.String("id", id), zap.Error(err))
		return
	}
	if err := p.rs.Set(ctx, sl.remoteName(), id, raw); err != nil {
		p.s.log.Error("store: remote write failed", zap.String("op", "set"), zap.String("collection", sl.remoteName()), zap.String("id", id), zap.Error(err))
	}
}

func (p *remotePort) merge(ctx context.Context, sl slice, id string, patch models.Patch) {
	ctx = context.WithoutCancel(ctx)
	if err := p.rs.Update(ctx, sl.remoteName(), id, patch.Sanitized()); err != nil {
		p.s.log.Error("store: remote write failed", zap.String("op", "update"), zap.String("collection", sl.remoteName()), zap.String("id", id), zap.Error(err))
	}
}

func (p *remotePort) remove(ctx context.Context, sl slice, id string) {
	ctx = context.WithoutCancel(ctx)
	if err := p.rs.Delete(ctx, sl.remoteName(), id); err != nil {
		p.s.log.Error("store: remote write failed", zap.String("op", "delete"), zap.String("collection", sl.remoteName()), zap.String("id", id), zap.Error(err))
	}
}

// saveProfile writes the whole profile; users is not subscribed, so memory
// is updated here once the write succeeds.
func (p *remotePort) saveProfile(ctx context.Context, prof models.UserProfile) {
	ctx = context.WithoutCancel(ctx)
	raw, err := json.Marshal(prof)
	if err != nil {
		p.s.log.Error("store: encode profile", zap.Error(err))
		return
	}
	if err := p.rs.Set(ctx, remote.Users, remote.CurrentUser, raw); err != nil {
		p.s.log.Error("store: remote write failed", zap.String("op", "set"), zap.String("collection", remote.Users), zap.Error(err))
		return
	}
	p.s.mu.Lock()
	p.s.profile = prof
	p.s.mu.Unlock()
	p.s.emit(SliceProfile)
}

func (p *remotePort) flush() error { return nil }

func (p *remotePort) close() error {
	for _, stop := range p.stops {
		stop()
	}
	p.stops = nil
	return nil
}
