package utils

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.data, key)
		}
	}
	return nil
}

func TestBuildCacheKey(t *testing.T) {
	assert.Equal(t, "vault:list:3:files:abc", BuildCacheKey(CacheKeyListView, uint64(3), "files", "abc"))
}

func TestListCacheInvalidateIsOwnerScoped(t *testing.T) {
	ctx := context.Background()
	lc := NewListCache(newMemoryCache(), time.Minute)

	lc.Set(ctx, 1, "subjects", "", []string{"a"})
	lc.Set(ctx, 1, "files", "s1", []string{"b"})
	lc.Set(ctx, 2, "subjects", "", []string{"c"})

	var got []string
	require.True(t, lc.Get(ctx, 1, "subjects", "", &got))
	assert.Equal(t, []string{"a"}, got)

	lc.Invalidate(ctx, 1)
	assert.False(t, lc.Get(ctx, 1, "subjects", "", &got))
	assert.False(t, lc.Get(ctx, 1, "files", "s1", &got))
	require.True(t, lc.Get(ctx, 2, "subjects", "", &got))
	assert.Equal(t, []string{"c"}, got)
}

func TestNilListCacheIsDisabled(t *testing.T) {
	var lc *ListCache
	ctx := context.Background()
	lc.Set(ctx, 1, "subjects", "", []string{"a"})
	lc.Invalidate(ctx, 1)
	var got []string
	assert.False(t, lc.Get(ctx, 1, "subjects", "", &got))
	assert.Nil(t, NewListCache(nil, time.Minute))
	assert.Nil(t, NewListCache(newMemoryCache(), 0))
}
