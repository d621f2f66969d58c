// Package sqldoc implements remote.DocumentStore on a SQL database through
// GORM. Each collection keeps a revision counter that is bumped in the same
// transaction as every write; watchers poll the counter and re-read the
// collection when it moves.
package sqldoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farmhand/farmhand/internal/db"
	"github.com/farmhand/farmhand/internal/models"
	"github.com/farmhand/farmhand/internal/remote"
)

// DefaultPollInterval is used when Options.PollInterval is zero.
const DefaultPollInterval = 2 * time.Second

// Options configures a Store.
type Options struct {
	PollInterval time.Duration
	Logger       *zap.Logger
}

// Store is a SQL-backed remote.DocumentStore.
type Store struct {
	db   *gorm.DB
	poll time.Duration
	log  *zap.Logger

	mu      sync.Mutex
	closed  bool
	cancels []context.CancelFunc
	wg      sync.WaitGroup
}

var _ remote.DocumentStore = (*Store)(nil)
var _ remote.Provisioner = (*Store)(nil)

// New wraps an open database.
func New(gdb *gorm.DB, opts Options) *Store {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Store{db: gdb, poll: opts.PollInterval, log: opts.Logger}
}

// Name implements remote.DocumentStore.
func (s *Store) Name() string { return "mysql" }

// Probe pings the server and checks that the document tables exist.
func (s *Store) Probe(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("sqldoc: probe: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("sqldoc: probe: %w", err)
	}
	m := s.db.WithContext(ctx).Migrator()
	for _, model := range db.DocumentModels() {
		if !m.HasTable(model) {
			return remote.ErrSchemaMissing
		}
	}
	return nil
}

// Provision creates the document tables.
func (s *Store) Provision(ctx context.Context) error {
	return db.MigrateDocuments(s.db.WithContext(ctx))
}

// Get implements remote.DocumentStore.
func (s *Store) Get(ctx context.Context, collection, id string) (remote.Document, error) {
	var row models.Document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return remote.Document{}, remote.ErrNotFound
	}
	if err != nil {
		return remote.Document{}, fmt.Errorf("sqldoc: get %s/%s: %w", collection, id, err)
	}
	return remote.Document{ID: row.DocID, Data: json.RawMessage(row.Data)}, nil
}

// Set implements remote.DocumentStore.
func (s *Store) Set(ctx context.Context, collection, id string, data json.RawMessage) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsert(tx, collection, id, data); err != nil {
			return err
		}
		return bump(tx, collection)
	})
	if err != nil {
		return fmt.Errorf("sqldoc: set %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update implements remote.DocumentStore.
func (s *Store) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Document
		err := tx.Where("collection = ? AND doc_id = ?", collection, id).Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return remote.ErrNotFound
		}
		if err != nil {
			return err
		}
		merged, err := remote.MergeJSON(json.RawMessage(row.Data), patch)
		if err != nil {
			return err
		}
		if err := upsert(tx, collection, id, merged); err != nil {
			return err
		}
		return bump(tx, collection)
	})
	if errors.Is(err, remote.ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("sqldoc: update %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete implements remote.DocumentStore.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("collection = ? AND doc_id = ?", collection, id).Delete(&models.Document{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return bump(tx, collection)
	})
	if err != nil {
		return fmt.Errorf("sqldoc: delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Watch delivers the current contents of collection before returning, then
// polls for changes every PollInterval. stop returns once polling has
// ended.
func (s *Store) Watch(ctx context.Context, collection string, onSnapshot remote.SnapshotFunc, onError func(error)) (func(), error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("sqldoc: watch %s: store closed", collection)
	}
	s.mu.Unlock()

	rev, err := s.revision(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("sqldoc: watch %s: %w", collection, err)
	}
	docs, err := s.list(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("sqldoc: watch %s: %w", collection, err)
	}
	onSnapshot(docs)

	wctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return nil, fmt.Errorf("sqldoc: watch %s: store closed", collection)
	}
	s.cancels = append(s.cancels, cancel)
	s.wg.Add(1)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer s.wg.Done()
		defer close(done)
		s.pollLoop(wctx, collection, rev, onSnapshot, onError)
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
		<-done
	}, nil
}

func (s *Store) pollLoop(ctx context.Context, collection string, rev int64, onSnapshot remote.SnapshotFunc, onError func(error)) {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		cur, err := s.revision(ctx, collection)
		if err == nil && cur != rev {
			var docs []remote.Document
			docs, err = s.list(ctx, collection)
			if err == nil {
				rev = cur
				onSnapshot(docs)
			}
		}
		if err == nil {
			failures = 0
			continue
		}
		if ctx.Err() != nil {
			return
		}
		failures++
		s.log.Warn("sqldoc: poll failed", zap.String("collection", collection), zap.Int("failures", failures), zap.Error(err))
		if failures >= maxPollFailures {
			if onError != nil {
				onError(fmt.Errorf("sqldoc: watch %s: %w", collection, err))
			}
			return
		}
	}
}

const maxPollFailures = 5

// Close stops every watcher and waits for them to exit. The database handle
// belongs to the caller.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	cancels := s.cancels
	s.cancels = nil
	s.mu.Unlock()
	for _, c := range cancels {
		c()
	}
	s.wg.Wait()
	return nil
}

func (s *Store) revision(ctx context.Context, collection string) (int64, error) {
	var rev models.CollectionRevision
	err := s.db.WithContext(ctx).Where("collection = ?", collection).Take(&rev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rev.Revision, nil
}

func (s *Store) list(ctx context.Context, collection string) ([]remote.Document, error) {
	var rows []models.Document
	if err := s.db.WithContext(ctx).Where("collection = ?", collection).Order("doc_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]remote.Document, len(rows))
	for i, r := range rows {
		docs[i] = remote.Document{ID: r.DocID, Data: json.RawMessage(r.Data)}
	}
	return docs, nil
}

func upsert(tx *gorm.DB, collection, id string, data json.RawMessage) error {
	row := models.Document{Collection: collection, DocID: id, Data: []byte(data)}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
}

func bump(tx *gorm.DB, collection string) error {
	rev := models.CollectionRevision{Collection: collection, Revision: 1}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "collection"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"revision":   gorm.Expr("revision + 1"),
			"updated_at": time.Now(),
		}),
	}).Create(&rev).Error
}
