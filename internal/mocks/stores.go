package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/strip-admin-api/internal/models"
	"github.com/strip-admin-api/internal/source"
	"github.com/strip-admin-api/internal/store"
)

// MockIndexStore is an in-memory compare-and-swap IndexStore
type MockIndexStore struct {
	mu         sync.Mutex
	Index      models.StripIndex
	Version    int
	Exists     bool
	ReadErr    error
	WriteErr   error
	ReadCalls  int
	WriteCalls int
	Messages   []string
	// BeforeWrite runs once, before the next Write compares tokens.
	// Tests use it to simulate a concurrent writer.
	BeforeWrite func()
}

// Verify interface compliance
var _ store.IndexStore = (*MockIndexStore)(nil)

// NewMockIndexStore creates a store holding the given strips
func NewMockIndexStore(strips ...models.StripRecord) *MockIndexStore {
	if strips == nil {
		strips = []models.StripRecord{}
	}
	return &MockIndexStore{
		Index:  models.StripIndex{Strips: strips},
		Exists: true,
	}
}

func (m *MockIndexStore) token() store.VersionToken {
	if !m.Exists {
		return ""
	}
	return store.VersionToken(fmt.Sprintf("v%d", m.Version))
}

func (m *MockIndexStore) Read(ctx context.Context) (models.StripIndex, store.VersionToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ReadCalls++
	if err := ctx.Err(); err != nil {
		return models.StripIndex{}, "", err
	}
	if m.ReadErr != nil {
		return models.StripIndex{}, "", m.ReadErr
	}
	if !m.Exists {
		return models.StripIndex{}, "", store.ErrNotFound
	}
	return m.Index.Clone(), m.token(), nil
}

func (m *MockIndexStore) Write(ctx context.Context, idx models.StripIndex, token store.VersionToken, message string) (store.VersionToken, error) {
	m.mu.Lock()
	hook := m.BeforeWrite
	m.BeforeWrite = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCalls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.WriteErr != nil {
		return "", m.WriteErr
	}
	if token != m.token() {
		return "", store.ErrConflict
	}
	m.Index = idx.Clone()
	m.Version++
	m.Exists = true
	m.Messages = append(m.Messages, message)
	return m.token(), nil
}

// Strips returns a copy of the stored strips
func (m *MockIndexStore) Strips() []models.StripRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Index.Clone().Strips
}

// MockAssetStore is an in-memory AssetStore
type MockAssetStore struct {
	mu        sync.Mutex
	Files     map[string][]byte
	PutErr    error
	DeleteErr error
	// OnPut and OnDelete run inside the matching call before it takes effect
	OnPut     func()
	OnDelete  func()
	PutCalls  int
	Deleted   []string
}

// Verify interface compliance
var _ store.AssetStore = (*MockAssetStore)(nil)

func NewMockAssetStore() *MockAssetStore {
	return &MockAssetStore{Files: make(map[string][]byte)}
}

func (m *MockAssetStore) Put(ctx context.Context, filename string, data []byte, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PutCalls++
	if m.OnPut != nil {
		m.OnPut()
	}
	if m.PutErr != nil {
		return m.PutErr
	}
	m.Files[filename] = append([]byte(nil), data...)
	return nil
}

func (m *MockAssetStore) Delete(ctx context.Context, filename string, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.OnDelete != nil {
		m.OnDelete()
	}
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if _, ok := m.Files[filename]; !ok {
		return store.ErrNotFound
	}
	delete(m.Files, filename)
	m.Deleted = append(m.Deleted, filename)
	return nil
}

// MockSource is a canned secondary record source
type MockSource struct {
	Strips []models.StripRecord
	Err    error
	Closed bool
}

// Verify interface compliance
var _ source.Source = (*MockSource)(nil)

func (m *MockSource) FetchStrips(ctx context.Context) ([]models.StripRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Strips, nil
}

func (m *MockSource) Close() error {
	m.Closed = true
	return nil
}
