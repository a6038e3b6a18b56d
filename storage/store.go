package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// Object is a stored blob with its content type.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	Modified    time.Time
	Data        []byte // nil in listings
}

// IconStore keeps downloaded station artwork.
type IconStore interface {
	Get(ctx context.Context, key string) (*Object, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]Object, error)
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// MemoryStore is an in-process IconStore holding at most maxEntries objects.
// When full, the oldest object is evicted.
type MemoryStore struct {
	mu         sync.Mutex
	objects    map[string]Object
	maxEntries int
}

// NewMemoryStore creates a MemoryStore; maxEntries <= 0 means 1024.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &MemoryStore{objects: make(map[string]Object), maxEntries: maxEntries}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	obj.Data = append([]byte(nil), obj.Data...)
	return &obj, nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.objects[key]; !exists && len(m.objects) >= m.maxEntries {
		m.evictOldestLocked()
	}
	m.objects[key] = Object{
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(data)),
		Modified:    time.Now(),
		Data:        append([]byte(nil), data...),
	}
	return nil
}

func (m *MemoryStore) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for k, o := range m.objects {
		if oldestKey == "" || o.Modified.Before(oldest) {
			oldestKey, oldest = k, o.Modified
		}
	}
	delete(m.objects, oldestKey)
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Object
	for k, o := range m.objects {
		if strings.HasPrefix(k, prefix) {
			o.Data = nil
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			delete(m.objects, k)
			n++
		}
	}
	return n, nil
}
