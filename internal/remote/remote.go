// Package remote defines the document-store port the farm store syncs with
// when a cloud backend is reachable. Implementations live in subpackages.
package remote

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection names shared by every backend.
const (
	Fields      = "fields"
	Cycles      = "cycles"
	PestReports = "pest_reports"
	CropPresets = "presets_crops"
	PestPresets = "presets_pests"
	Users       = "users"
	CurrentUser = "current_user"
)

// Watched lists the collections the farm store subscribes to.
var Watched = []string{Fields, Cycles, PestReports, CropPresets, PestPresets}

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("remote: document not found")
	// ErrSchemaMissing is returned by Probe when the backend is reachable
	// but has not been provisioned for farmhand.
	ErrSchemaMissing = errors.New("remote: schema missing")
)

// Document is one stored document. Data is the JSON body; the ID is not
// necessarily repeated inside it.
type Document struct {
	ID   string
	Data json.RawMessage
}

// SnapshotFunc receives the full contents of a collection each time it
// changes. The first call carries the initial contents.
type SnapshotFunc func(docs []Document)

// DocumentStore is a remote, collection-oriented document database.
type DocumentStore interface {
	// Name identifies the backend in logs and status output.
	Name() string
	// Probe checks connectivity and provisioning.
	Probe(ctx context.Context) error
	Get(ctx context.Context, collection, id string) (Document, error)
	// Set creates or overwrites a whole document.
	Set(ctx context.Context, collection, id string, data json.RawMessage) error
	// Update merges top-level attributes into an existing document. A nil
	// value removes the attribute. Missing documents yield ErrNotFound.
	Update(ctx context.Context, collection, id string, patch map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	// Watch streams snapshots of collection until stop is called or ctx ends.
	// onError receives errors that end the stream. After stop returns
	// onSnapshot is not called again; stop must not be called from inside
	// onSnapshot.
	Watch(ctx context.Context, collection string, onSnapshot SnapshotFunc, onError func(error)) (stop func(), err error)
	Close() error
}

// Provisioner is implemented by backends whose schema can be created by
// farmhand itself (fh seed).
type Provisioner interface {
	Provision(ctx context.Context) error
}

// MergeJSON applies patch to the JSON object data the way Update does.
// Backends without native partial updates use it.
func MergeJSON(data json.RawMessage, patch map[string]any) (json.RawMessage, error) {
	m := map[string]any{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
	}
	for k, v := range patch {
		if v == nil {
			delete(m, k)
			continue
		}
		m[k] = v
	}
	return json.Marshal(m)
}
