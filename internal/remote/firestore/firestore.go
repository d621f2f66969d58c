// Package firestore implements remote.DocumentStore on Cloud Firestore via
// the Firebase Admin SDK, using live query snapshots for Watch.
package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	gfs "cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/farmhand/farmhand/internal/remote"
)

// Options addresses a Firebase project.
type Options struct {
	ProjectID       string
	CredentialsFile string
	Logger          *zap.Logger
}

// Store is a Firestore-backed remote.DocumentStore.
type Store struct {
	client *gfs.Client
	log    *zap.Logger

	mu      sync.Mutex
	cancels []context.CancelFunc
	wg      sync.WaitGroup
}

var _ remote.DocumentStore = (*Store)(nil)

// New initializes the Firebase app and its Firestore client. Without a
// credentials file Application Default Credentials are used.
func New(ctx context.Context, opts Options) (*Store, error) {
	var copts []option.ClientOption
	if opts.CredentialsFile != "" {
		copts = append(copts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: opts.ProjectID}, copts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: init app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore: client: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{client: client, log: log}, nil
}

// Name implements remote.DocumentStore.
func (s *Store) Name() string { return "firestore" }

// Probe reads at most one field document. A project without a Firestore
// database answers NotFound, reported as remote.ErrSchemaMissing.
func (s *Store) Probe(ctx context.Context) error {
	_, err := s.client.Collection(remote.Fields).Limit(1).Documents(ctx).GetAll()
	if isNotFound(err) {
		return remote.ErrSchemaMissing
	}
	if err != nil {
		return fmt.Errorf("firestore: probe: %w", err)
	}
	return nil
}

// Get implements remote.DocumentStore.
func (s *Store) Get(ctx context.Context, collection, id string) (remote.Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if isNotFound(err) {
		return remote.Document{}, remote.ErrNotFound
	}
	if err != nil {
		return remote.Document{}, fmt.Errorf("firestore: get %s/%s: %w", collection, id, err)
	}
	return toDocument(snap)
}

// Set implements remote.DocumentStore.
func (s *Store) Set(ctx context.Context, collection, id string, data json.RawMessage) error {
	m, err := decodeData(data)
	if err != nil {
		return fmt.Errorf("firestore: set %s/%s: %w", collection, id, err)
	}
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, m); err != nil {
		return fmt.Errorf("firestore: set %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update implements remote.DocumentStore.
func (s *Store) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, updates(patch))
	if isNotFound(err) {
		return remote.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("firestore: update %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete implements remote.DocumentStore.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore: delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Watch listens to collection's query snapshots in a goroutine. stop
// returns once the listener has exited.
func (s *Store) Watch(ctx context.Context, collection string, onSnapshot remote.SnapshotFunc, onError func(error)) (func(), error) {
	wctx, cancel := context.WithCancel(ctx)
	it := s.client.Collection(collection).Snapshots(wctx)

	s.mu.Lock()
	s.cancels = append(s.cancels, cancel)
	s.wg.Add(1)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer s.wg.Done()
		defer close(done)
		defer it.Stop()
		for {
			qs, err := it.Next()
			if err != nil {
				if wctx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				s.log.Error("firestore: snapshot listener failed", zap.String("collection", collection), zap.Error(err))
				if onError != nil {
					onError(fmt.Errorf("firestore: watch %s: %w", collection, err))
				}
				return
			}
			snaps, err := qs.Documents.GetAll()
			if err != nil {
				s.log.Warn("firestore: read snapshot", zap.String("collection", collection), zap.Error(err))
				continue
			}
			docs := make([]remote.Document, 0, len(snaps))
			for _, snap := range snaps {
				d, err := toDocument(snap)
				if err != nil {
					s.log.Warn("firestore: skip undecodable document", zap.String("collection", collection), zap.String("id", snap.Ref.ID), zap.Error(err))
					continue
				}
				docs = append(docs, d)
			}
			onSnapshot(docs)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
		<-done
	}, nil
}

// Close stops all listeners and closes the client.
func (s *Store) Close() error {
	s.mu.Lock()
	cancels := s.cancels
	s.cancels = nil
	s.mu.Unlock()
	for _, c := range cancels {
		c()
	}
	s.wg.Wait()
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("firestore: close: %w", err)
	}
	return nil
}

func toDocument(snap *gfs.DocumentSnapshot) (remote.Document, error) {
	raw, err := json.Marshal(snap.Data())
	if err != nil {
		return remote.Document{}, fmt.Errorf("firestore: encode %s: %w", snap.Ref.ID, err)
	}
	return remote.Document{ID: snap.Ref.ID, Data: raw}, nil
}

// decodeData turns a JSON object into the map form the client library
// stores. Numbers stay float64, which Firestore keeps as doubles.
func decodeData(data json.RawMessage) (map[string]any, error) {
	m := map[string]any{}
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// updates converts a patch into field updates; nil deletes the field.
func updates(patch map[string]any) []gfs.Update {
	out := make([]gfs.Update, 0, len(patch))
	for k, v := range patch {
		if v == nil {
			v = gfs.Delete
		}
		out = append(out, gfs.Update{FieldPath: gfs.FieldPath{k}, Value: v})
	}
	return out
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var se interface{ GRPCStatus() *status.Status }
	if errors.As(err, &se) {
		return se.GRPCStatus().Code() == codes.NotFound
	}
	return status.Code(err) == codes.NotFound
}
