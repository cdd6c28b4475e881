package order

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePutGetRemove(t *testing.T) {
	s := NewMemoryStore()

	_, ok := s.Get(1)
	assert.False(t, ok)

	d := &Draft{UserID: 1, State: StateAwaitingProduct, UpdatedAt: time.Now()}
	s.Put(1, d)
	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Same(t, d, got)
	assert.Equal(t, 1, s.Len())

	// overwrite
	d2 := &Draft{UserID: 1, State: StateAwaitingQuantity, UpdatedAt: time.Now()}
	s.Put(1, d2)
	got, ok = s.Get(1)
	require.True(t, ok)
	assert.Same(t, d2, got)
	assert.Equal(t, 1, s.Len())

	s.Remove(1)
	_, ok = s.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStoreConcurrentUsers(t *testing.T) {
	s := NewMemoryStore()
	const users = 64

	var wg sync.WaitGroup
	for i := int64(1); i <= users; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Put(id, &Draft{UserID: id, State: StateAwaitingProduct, UpdatedAt: time.Now()})
			d, ok := s.Get(id)
			if !ok || d.UserID != id {
				t.Errorf("user %d: got %+v ok=%v", id, d, ok)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, users, s.Len())
	for i := int64(1); i <= users; i++ {
		d, ok := s.Get(i)
		require.True(t, ok)
		assert.Equal(t, i, d.UserID)
	}
}

func TestStorePurgeIdle(t *testing.T) {
	ms := &memoryStore{drafts: make(map[int64]*Draft)}
	now := time.Now()
	ms.now = func() time.Time { return now }

	ms.Put(1, &Draft{UserID: 1, UpdatedAt: now.Add(-time.Hour)})
	ms.Put(2, &Draft{UserID: 2, UpdatedAt: now.Add(-time.Minute)})

	assert.Equal(t, 0, ms.PurgeIdle(0), "ttl 0 purges nothing")

	purged := ms.PurgeIdle(30 * time.Minute)
	assert.Equal(t, 1, purged)
	_, ok := ms.Get(1)
	assert.False(t, ok)
	_, ok = ms.Get(2)
	assert.True(t, ok)
}
