// Package testutil provides shared test helpers for stores and repositories.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/starford/weekboard/internal/kv"
	"github.com/starford/weekboard/internal/weeks"
)

// MemoryStore is an in-memory kv.Store whose failures can be switched on.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string

	GetErr error // returned by Get when set
	SetErr error // returned by Set when set
	Sets   int   // successful Set calls
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get implements kv.Store.
func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements kv.Store.
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.values[key] = value
	m.Sets++
	return nil
}

// Value returns the raw stored value for key.
func (m *MemoryStore) Value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// Put stores a raw value bypassing failure injection.
func (m *MemoryStore) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// FailSets makes every following Set return err (nil restores success).
func (m *MemoryStore) FailSets(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetErr = err
}

// SetCount returns the number of successful Set calls.
func (m *MemoryStore) SetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Sets
}

// TestFS creates a temporary directory-backed kv.FS.
func TestFS(t *testing.T) (string, *kv.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := kv.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// LoadedRepo returns a repository over a fresh MemoryStore after Load.
func LoadedRepo(t *testing.T, opts ...weeks.Option) (*weeks.Repository, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	repo := weeks.New(store, opts...)
	repo.Load(context.Background())
	return repo, store
}
