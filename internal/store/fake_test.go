package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/farmhand/farmhand/internal/remote"
)

// fakeRemote is an in-memory remote.DocumentStore that delivers snapshots
// synchronously: Watch sends the initial contents before returning and
// every write sends a fresh snapshot to that collection's watchers.
type fakeRemote struct {
	probeErr error
	writeErr error

	mu       sync.Mutex
	docs     map[string]map[string]json.RawMessage
	watchers map[string][]*fakeWatch
	writes   int
}

type fakeWatch struct {
	fn      remote.SnapshotFunc
	stopped bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		docs:     make(map[string]map[string]json.RawMessage),
		watchers: make(map[string][]*fakeWatch),
	}
}

func (f *fakeRemote) Name() string { return "fake" }

func (f *fakeRemote) Probe(context.Context) error { return f.probeErr }

func (f *fakeRemote) Get(_ context.Context, coll, id string) (remote.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.docs[coll][id]
	if !ok {
		return remote.Document{}, remote.ErrNotFound
	}
	return remote.Document{ID: id, Data: data}, nil
}

func (f *fakeRemote) Set(_ context.Context, coll, id string, data json.RawMessage) error {
	f.mu.Lock()
	f.writes++
	if f.writeErr != nil {
		f.mu.Unlock()
		return f.writeErr
	}
	if f.docs[coll] == nil {
		f.docs[coll] = make(map[string]json.RawMessage)
	}
	f.docs[coll][id] = append(json.RawMessage(nil), data...)
	f.mu.Unlock()
	f.notify(coll)
	return nil
}

func (f *fakeRemote) Update(_ context.Context, coll, id string, patch map[string]any) error {
	f.mu.Lock()
	f.writes++
	if f.writeErr != nil {
		f.mu.Unlock()
		return f.writeErr
	}
	data, ok := f.docs[coll][id]
	if !ok {
		f.mu.Unlock()
		return remote.ErrNotFound
	}
	merged, err := remote.MergeJSON(data, patch)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	f.docs[coll][id] = merged
	f.mu.Unlock()
	f.notify(coll)
	return nil
}

func (f *fakeRemote) Delete(_ context.Context, coll, id string) error {
	f.mu.Lock()
	f.writes++
	if f.writeErr != nil {
		f.mu.Unlock()
		return f.writeErr
	}
	delete(f.docs[coll], id)
	f.mu.Unlock()
	f.notify(coll)
	return nil
}

func (f *fakeRemote) Watch(_ context.Context, coll string, fn remote.SnapshotFunc, _ func(error)) (func(), error) {
	w := &fakeWatch{fn: fn}
	f.mu.Lock()
	f.watchers[coll] = append(f.watchers[coll], w)
	f.mu.Unlock()
	fn(f.snapshot(coll))
	return func() {
		f.mu.Lock()
		w.stopped = true
		f.mu.Unlock()
	}, nil
}

func (f *fakeRemote) Close() error { return nil }

// push delivers docs to coll's watchers without storing them, as a remote
// listener would when another client rewrites the collection.
func (f *fakeRemote) push(coll string, docs []remote.Document) {
	for _, w := range f.active(coll) {
		w.fn(docs)
	}
}

func (f *fakeRemote) notify(coll string) {
	docs := f.snapshot(coll)
	for _, w := range f.active(coll) {
		w.fn(docs)
	}
}

func (f *fakeRemote) active(coll string) []*fakeWatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fakeWatch
	for _, w := range f.watchers[coll] {
		if !w.stopped {
			out = append(out, w)
		}
	}
	return out
}

func (f *fakeRemote) activeWatchers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, ws := range f.watchers {
		for _, w := range ws {
			if !w.stopped {
				n++
			}
		}
	}
	return n
}

func (f *fakeRemote) snapshot(coll string) []remote.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	docs := make([]remote.Document, 0, len(f.docs[coll]))
	for id, data := range f.docs[coll] {
		docs = append(docs, remote.Document{ID: id, Data: data})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

func (f *fakeRemote) raw(coll, id string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.docs[coll][id]
	if !ok {
		return nil, errors.New("missing")
	}
	m := map[string]any{}
	err := json.Unmarshal(data, &m)
	return m, err
}

func (f *fakeRemote) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}
