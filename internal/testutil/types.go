// Package testutil provides shared fixture types and constructors for
// the container's tests.
package testutil

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Common test errors
var (
	ErrTest        = errors.New("test error")
	ErrIntentional = errors.New("intentional error")
	ErrConstructor = errors.New("constructor error")
)

// Clock is a minimal time source interface.
type Clock interface {
	Now() time.Time
}

// FrozenClock always reports the same instant.
type FrozenClock struct {
	ID      string
	Instant time.Time
}

func NewFrozenClock() Clock {
	return &FrozenClock{
		ID:      uuid.NewString(),
		Instant: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (c *FrozenClock) Now() time.Time { return c.Instant }

// SystemClock reports the real time.
type SystemClock struct{}

func NewSystemClock() Clock { return &SystemClock{} }

func (SystemClock) Now() time.Time { return time.Now() }

// KeyStore is a small string store interface.
type KeyStore interface {
	Put(key, value string)
	Lookup(key string) (string, bool)
}

// MemoryKeyStore implements KeyStore in memory. Each instance carries a
// uuid so identity assertions can tell instances apart.
type MemoryKeyStore struct {
	ID string

	mu   sync.Mutex
	data map[string]string
}

func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{
		ID:   uuid.NewString(),
		data: make(map[string]string),
	}
}

func (s *MemoryKeyStore) Put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *MemoryKeyStore) Lookup(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// AuditSink records audit lines.
type AuditSink interface {
	Record(line string)
	Lines() []string
}

// MemoryAudit implements AuditSink in memory.
type MemoryAudit struct {
	mu    sync.Mutex
	lines []string
}

func NewMemoryAudit() AuditSink { return &MemoryAudit{} }

func (a *MemoryAudit) Record(line string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lines = append(a.lines, line)
}

func (a *MemoryAudit) Lines() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.lines))
	copy(out, a.lines)
	return out
}

// Codec is used by ordered multi-binding tests.
type Codec interface {
	Name() string
}

type JSONCodec struct{}

func NewJSONCodec() Codec { return JSONCodec{} }

func (JSONCodec) Name() string { return "json" }

type GobCodec struct{}

func NewGobCodec() Codec { return GobCodec{} }

func (GobCodec) Name() string { return "gob" }

type TextCodec struct{}

func NewTextCodec() Codec { return TextCodec{} }

func (TextCodec) Name() string { return "text" }

// Notifier depends on a Clock and a KeyStore; its constructor is used
// to exercise injected providers.
type Notifier struct {
	ID    string
	Clock Clock
	Store *MemoryKeyStore
}

func NewNotifier(clock Clock, store *MemoryKeyStore) *Notifier {
	return &Notifier{
		ID:    uuid.NewString(),
		Clock: clock,
		Store: store,
	}
}

// CountingProvider returns a constructor that counts invocations, for
// singleton-semantics assertions.
func CountingProvider() (func() *MemoryKeyStore, *atomic.Int64) {
	var calls atomic.Int64
	return func() *MemoryKeyStore {
		calls.Add(1)
		return NewMemoryKeyStore()
	}, &calls
}

// FlakyProvider fails the first n invocations with ErrConstructor and
// succeeds afterwards, for retry-after-failure assertions.
func FlakyProvider(n int64) func() (*MemoryKeyStore, error) {
	var calls atomic.Int64
	return func() (*MemoryKeyStore, error) {
		if calls.Add(1) <= n {
			return nil, ErrConstructor
		}
		return NewMemoryKeyStore(), nil
	}
}

// PanickyProvider panics when invoked.
func PanickyProvider() Clock {
	panic("provider exploded")
}
