package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/farmhand/farmhand/internal/models"
	"github.com/farmhand/farmhand/internal/remote"
)

var errNoSuchItem = errors.New("store: no such item")

// slice is the type-erased view of a collection the ports and the persister
// work with. Callers hold Store.mu.
type slice interface {
	name() Slice
	remoteName() string
	kvKey() string
	upsertDoc(doc any) error
	patch(id string, p models.Patch) error
	delete(id string) bool
	encode() (json.RawMessage, error)
	decode(raw json.RawMessage) error
	applySnapshot(docs []remote.Document) (changed bool, err error)
}

// collection is an ordered, id-keyed list of T. Items are cloned on the way
// in and on the way out so callers never share memory with the store.
type collection[T any] struct {
	slice  Slice
	remote string
	key    string
	items  []T

	idOf  func(T) string
	setID func(*T, string)
	clone func(T) T
	// keepOnEmpty ignores empty snapshots (bundled catalogs).
	keepOnEmpty bool
}

func (c *collection[T]) name() Slice        { return c.slice }
func (c *collection[T]) remoteName() string { return c.remote }
func (c *collection[T]) kvKey() string      { return c.key }

func (c *collection[T]) index(id string) int {
	for i, v := range c.items {
		if c.idOf(v) == id {
			return i
		}
	}
	return -1
}

func (c *collection[T]) get(id string) (T, bool) {
	if i := c.index(id); i >= 0 {
		return c.clone(c.items[i]), true
	}
	var zero T
	return zero, false
}

func (c *collection[T]) all() []T {
	out := make([]T, len(c.items))
	for i, v := range c.items {
		out[i] = c.clone(v)
	}
	return out
}

func (c *collection[T]) filter(keep func(T) bool) []T {
	out := []T{}
	for _, v := range c.items {
		if keep(v) {
			out = append(out, c.clone(v))
		}
	}
	return out
}

// set replaces the contents wholesale.
func (c *collection[T]) set(items []T) {
	c.items = make([]T, len(items))
	for i, v := range items {
		c.items[i] = c.clone(v)
	}
}

// upsert replaces the item with v's id in place, or appends v.
func (c *collection[T]) upsert(v T) {
	v = c.clone(v)
	if i := c.index(c.idOf(v)); i >= 0 {
		c.items[i] = v
		return
	}
	c.items = append(c.items, v)
}

func (c *collection[T]) upsertDoc(doc any) error {
	v, ok := doc.(T)
	if !ok {
		return fmt.Errorf("store: %s: unexpected document type %T", c.slice, doc)
	}
	c.upsert(v)
	return nil
}

func (c *collection[T]) patch(id string, p models.Patch) error {
	i := c.index(id)
	if i < 0 {
		return errNoSuchItem
	}
	merged, err := models.Apply(c.items[i], p)
	if err != nil {
		return err
	}
	c.setID(&merged, id)
	c.items[i] = c.clone(merged)
	return nil
}

func (c *collection[T]) delete(id string) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i:i], c.items[i+1:]...)
	return true
}

func (c *collection[T]) encode() (json.RawMessage, error) {
	items := c.items
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("store: encode %s: %w", c.slice, err)
	}
	return raw, nil
}

func (c *collection[T]) decode(raw json.RawMessage) error {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("store: decode %s: %w", c.slice, err)
	}
	c.set(items)
	return nil
}

// applySnapshot replaces the contents with docs. The document id always
// wins over any id inside the body. Undecodable documents are skipped and
// reported in err; the rest still apply.
func (c *collection[T]) applySnapshot(docs []remote.Document) (bool, error) {
	if len(docs) == 0 && c.keepOnEmpty {
		return false, nil
	}
	var errs []error
	items := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := json.Unmarshal(d.Data, &v); err != nil {
			errs = append(errs, fmt.Errorf("store: decode %s/%s: %w", c.remote, d.ID, err))
			continue
		}
		c.setID(&v, d.ID)
		items = append(items, v)
	}
	c.set(items)
	return true, errors.Join(errs...)
}

func newFields() *collection[models.Field] {
	return &collection[models.Field]{
		slice:  SliceFields,
		remote: remote.Fields,
		key:    keyFields,
		idOf:   func(f models.Field) string { return f.ID },
		setID:  func(f *models.Field, id string) { f.ID = id },
		clone: func(f models.Field) models.Field {
			if f.Coordinates != nil {
				ll := *f.Coordinates
				f.Coordinates = &ll
			}
			return f
		},
	}
}

func newCycles() *collection[models.CropCycle] {
	return &collection[models.CropCycle]{
		slice:  SliceCycles,
		remote: remote.Cycles,
		key:    keyCycles,
		idOf:   func(c models.CropCycle) string { return c.ID },
		setID:  func(c *models.CropCycle, id string) { c.ID = id },
		clone:  models.CropCycle.Clone,
	}
}

func newPestReports() *collection[models.PestReport] {
	return &collection[models.PestReport]{
		slice:  SlicePestReports,
		remote: remote.PestReports,
		key:    keyPestReports,
		idOf:   func(r models.PestReport) string { return r.ID },
		setID:  func(r *models.PestReport, id string) { r.ID = id },
		clone:  func(r models.PestReport) models.PestReport { return r },
	}
}

func newCropPresets() *collection[models.CropPreset] {
	return &collection[models.CropPreset]{
		slice:  SliceCropPresets,
		remote: remote.CropPresets,
		key:    keyCropPresets,
		idOf:   func(p models.CropPreset) string { return p.ID },
		setID:  func(p *models.CropPreset, id string) { p.ID = id },
		clone: func(p models.CropPreset) models.CropPreset {
			p.DefaultTasks = append([]models.PresetTask(nil), p.DefaultTasks...)
			return p
		},
		keepOnEmpty: true,
	}
}

func newPestPresets() *collection[models.Pest] {
	return &collection[models.Pest]{
		slice:  SlicePestPresets,
		remote: remote.PestPresets,
		key:    keyPestPresets,
		idOf:   func(p models.Pest) string { return p.ID },
		setID:  func(p *models.Pest, id string) { p.ID = id },
		clone: func(p models.Pest) models.Pest {
			p.AffectedCrops = append([]string(nil), p.AffectedCrops...)
			return p
		},
		keepOnEmpty: true,
	}
}
