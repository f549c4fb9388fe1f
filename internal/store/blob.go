package store

import (
	"context"
	"sync"
)

// BlobStore внешнее key-value хранилище сериализованных коллекций.
// Каждая коллекция целиком пишется одним JSON-блобом под фиксированным ключом.
type BlobStore interface {
	// Load возвращает блоб по ключу; (nil, nil) если ключ отсутствует
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// MemoryBlobStore хранилище в памяти процесса.
// Используется как fallback когда Redis недоступен и в тестах.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryBlobStore создает пустое in-memory хранилище
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{
		blobs: make(map[string][]byte),
	}
}

// Load возвращает блоб по ключу
func (m *MemoryBlobStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[key]
	if !ok {
		return nil, nil
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Save сохраняет блоб под ключом
func (m *MemoryBlobStore) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	m.blobs[key] = stored
	return nil
}

// Ping всегда успешен для in-memory хранилища
func (m *MemoryBlobStore) Ping(_ context.Context) error {
	return nil
}

// Close освобождает хранилище
func (m *MemoryBlobStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs = make(map[string][]byte)
	return nil
}

var _ BlobStore = (*MemoryBlobStore)(nil)
