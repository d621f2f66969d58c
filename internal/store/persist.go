package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/farmhand/farmhand/internal/kv"
)

// persister writes slices to local storage, debounced per key: a burst of
// changes to one slice produces one write, delay after the last change.
type persister struct {
	kv     *kv.Store
	delay  time.Duration
	encode func(key string) (json.RawMessage, error)
	log    *zap.Logger

	mu      sync.Mutex
	idle    *sync.Cond
	timers  map[string]*time.Timer
	writing int
	closed  bool
}

func newPersister(store *kv.Store, delay time.Duration, encode func(string) (json.RawMessage, error), log *zap.Logger) *persister {
	p := &persister{
		kv:     store,
		delay:  delay,
		encode: encode,
		log:    log,
		timers: make(map[string]*time.Timer),
	}
	p.idle = sync.NewCond(&p.mu)
	return p
}

// schedule arranges for key to be written. With no delay, or once closed,
// the write happens before schedule returns.
func (p *persister) schedule(key string) {
	if p.kv == nil {
		return
	}
	p.mu.Lock()
	if p.delay <= 0 || p.closed {
		p.mu.Unlock()
		p.write(key)
		return
	}
	defer p.mu.Unlock()
	if t, ok := p.timers[key]; ok {
		t.Reset(p.delay)
		return
	}
	p.timers[key] = time.AfterFunc(p.delay, func() { p.fire(key) })
}

func (p *persister) fire(key string) {
	p.mu.Lock()
	if _, ok := p.timers[key]; !ok {
		p.mu.Unlock()
		return
	}
	delete(p.timers, key)
	p.writing++
	p.mu.Unlock()

	p.write(key)

	p.mu.Lock()
	p.writing--
	p.idle.Broadcast()
	p.mu.Unlock()
}

func (p *persister) write(key string) error {
	raw, err := p.encode(key)
	if err == nil {
		err = p.kv.SetRaw(key, raw)
	}
	if err != nil {
		p.log.Error("store: local write failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("store: persist %s: %w", key, err)
	}
	return nil
}

// flush cancels pending timers, waits for in-flight writes, and writes every
// pending key now.
func (p *persister) flush() error {
	if p.kv == nil {
		return nil
	}
	p.mu.Lock()
	pending := make([]string, 0, len(p.timers))
	for key, t := range p.timers {
		t.Stop()
		pending = append(pending, key)
	}
	clear(p.timers)
	for p.writing > 0 {
		p.idle.Wait()
	}
	p.mu.Unlock()

	var errs []error
	for _, key := range pending {
		if err := p.write(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// close flushes and switches to write-through for any later change.
func (p *persister) close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return p.flush()
}

// pending reports the keys waiting for their debounce to elapse.
func (p *persister) pending() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.timers))
	for k := range p.timers {
		keys = append(keys, k)
	}
	return keys
}
