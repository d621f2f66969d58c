// Package redisdoc implements remote.DocumentStore on Redis. A collection is
// a hash of id to JSON document; every write publishes the collection name
// on a change channel that watchers subscribe to.
package redisdoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/farmhand/farmhand/internal/remote"
)

// Options configures a Store.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key, e.g. "farmhand".
	Prefix string
	Logger *zap.Logger
}

// Store is a Redis-backed remote.DocumentStore.
type Store struct {
	rdb    *redis.Client
	prefix string
	log    *zap.Logger

	mu   sync.Mutex
	subs []*redis.PubSub
	wg   sync.WaitGroup
}

var _ remote.DocumentStore = (*Store)(nil)
var _ remote.Provisioner = (*Store)(nil)

// New creates a client for opts.Addr. No connection is made until first use.
func New(opts Options) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewWithClient(rdb, opts.Prefix, opts.Logger)
}

// NewWithClient wraps an existing client. Close closes it.
func NewWithClient(rdb *redis.Client, prefix string, log *zap.Logger) *Store {
	if prefix == "" {
		prefix = "farmhand"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{rdb: rdb, prefix: prefix, log: log}
}

// Name implements remote.DocumentStore.
func (s *Store) Name() string { return "redis" }

func (s *Store) collectionKey(collection string) string {
	return s.prefix + ":" + collection
}

func (s *Store) schemaKey() string  { return s.prefix + ":schema" }
func (s *Store) changesKey() string { return s.prefix + ":changes" }

// Probe pings the server and checks for the schema marker written by
// Provision.
func (s *Store) Probe(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redisdoc: probe: %w", err)
	}
	n, err := s.rdb.Exists(ctx, s.schemaKey()).Result()
	if err != nil {
		return fmt.Errorf("redisdoc: probe: %w", err)
	}
	if n == 0 {
		return remote.ErrSchemaMissing
	}
	return nil
}

// Provision writes the schema marker.
func (s *Store) Provision(ctx context.Context) error {
	if err := s.rdb.Set(ctx, s.schemaKey(), "1", 0).Err(); err != nil {
		return fmt.Errorf("redisdoc: provision: %w", err)
	}
	return nil
}

// Get implements remote.DocumentStore.
func (s *Store) Get(ctx context.Context, collection, id string) (remote.Document, error) {
	raw, err := s.rdb.HGet(ctx, s.collectionKey(collection), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return remote.Document{}, remote.ErrNotFound
	}
	if err != nil {
		return remote.Document{}, fmt.Errorf("redisdoc: get %s/%s: %w", collection, id, err)
	}
	return remote.Document{ID: id, Data: raw}, nil
}

// Set implements remote.DocumentStore.
func (s *Store) Set(ctx context.Context, collection, id string, data json.RawMessage) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, s.collectionKey(collection), id, []byte(data))
		p.Publish(ctx, s.changesKey(), collection)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisdoc: set %s/%s: %w", collection, id, err)
	}
	return nil
}

const maxUpdateRetries = 5

// Update merges patch under an optimistic WATCH on the collection hash.
func (s *Store) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	key := s.collectionKey(collection)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, key, id).Bytes()
		if errors.Is(err, redis.Nil) {
			return remote.ErrNotFound
		}
		if err != nil {
			return err
		}
		merged, err := remote.MergeJSON(raw, patch)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, id, []byte(merged))
			p.Publish(ctx, s.changesKey(), collection)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < maxUpdateRetries; i++ {
		err = s.rdb.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if errors.Is(err, remote.ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("redisdoc: update %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete implements remote.DocumentStore.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	n, err := s.rdb.HDel(ctx, s.collectionKey(collection), id).Result()
	if err != nil {
		return fmt.Errorf("redisdoc: delete %s/%s: %w", collection, id, err)
	}
	if n > 0 {
		if err := s.rdb.Publish(ctx, s.changesKey(), collection).Err(); err != nil {
			return fmt.Errorf("redisdoc: delete %s/%s: %w", collection, id, err)
		}
	}
	return nil
}

// Watch subscribes to the change channel, delivers the current contents of
// collection, and re-reads the hash whenever a change for it is published.
// stop returns once the watcher has exited.
func (s *Store) Watch(ctx context.Context, collection string, onSnapshot remote.SnapshotFunc, onError func(error)) (func(), error) {
	sub := s.rdb.Subscribe(ctx, s.changesKey())
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("redisdoc: watch %s: %w", collection, err)
	}
	docs, err := s.list(ctx, collection)
	if err != nil {
		sub.Close()
		return nil, fmt.Errorf("redisdoc: watch %s: %w", collection, err)
	}
	onSnapshot(docs)

	wctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.wg.Add(1)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer s.wg.Done()
		defer close(done)
		ch := sub.Channel()
		for {
			select {
			case <-wctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if msg.Payload != collection {
					continue
				}
				docs, err := s.list(wctx, collection)
				if err != nil {
					if wctx.Err() != nil {
						return
					}
					s.log.Error("redisdoc: read collection", zap.String("collection", collection), zap.Error(err))
					if onError != nil {
						onError(fmt.Errorf("redisdoc: watch %s: %w", collection, err))
					}
					return
				}
				onSnapshot(docs)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			sub.Close()
		})
		<-done
	}, nil
}

// Close ends every subscription and closes the client.
func (s *Store) Close() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()
	for _, sub := range subs {
		sub.Close()
	}
	s.wg.Wait()
	if err := s.rdb.Close(); err != nil {
		return fmt.Errorf("redisdoc: close: %w", err)
	}
	return nil
}

func (s *Store) list(ctx context.Context, collection string) ([]remote.Document, error) {
	all, err := s.rdb.HGetAll(ctx, s.collectionKey(collection)).Result()
	if err != nil {
		return nil, err
	}
	return sortedDocuments(all), nil
}

// sortedDocuments orders hash entries by id; HGETALL has no stable order.
func sortedDocuments(all map[string]string) []remote.Document {
	docs := make([]remote.Document, 0, len(all))
	for id, data := range all {
		docs = append(docs, remote.Document{ID: id, Data: json.RawMessage(data)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}
