package imagepipe

import (
	"testing"
	"time"

	"github.com/quillpress/quill/src/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefMap(t *testing.T) {
	refs := NewRefMap()
	id := refs.Add("cat.png", []byte("meow"))

	img, ok := refs.Get(id)
	require.True(t, ok)
	assert.Equal(t, "cat.png", img.Filename)
	assert.Equal(t, []byte("meow"), img.Data)
	assert.Equal(t, 1, refs.Len())

	other := refs.Add("dog.png", []byte("woof"))
	refs.Remove(id, "unknown")
	_, ok = refs.Get(id)
	assert.False(t, ok)
	_, ok = refs.Get(other)
	assert.True(t, ok, "images not named stay in the map")

	refs.Clear()
	_, ok = refs.Get(other)
	assert.False(t, ok)

	var missing *RefMap
	_, ok = missing.Get(id)
	assert.False(t, ok)
}

func TestSessions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions := NewSessions(time.Hour)
	sessions.now = func() time.Time { return now }

	t.Run("owned by one user", func(t *testing.T) {
		id := sessions.Create(1)
		refs, ok := sessions.Get(id, 1)
		require.True(t, ok)
		refs.Add("a.png", []byte("a"))

		_, ok = sessions.Get(id, 2)
		assert.False(t, ok)
		assert.False(t, sessions.Discard(id, 2))

		assert.True(t, sessions.Discard(id, 1))
		_, ok = sessions.Get(id, 1)
		assert.False(t, ok)
		assert.Equal(t, 0, refs.Len(), "discarding drops the images")
	})

	t.Run("idle sessions are evicted", func(t *testing.T) {
		stale := sessions.Create(1)
		now = now.Add(45 * time.Minute)
		fresh := sessions.Create(1)
		now = now.Add(30 * time.Minute)

		assert.Equal(t, 1, sessions.EvictIdle())
		_, ok := sessions.Get(stale, 1)
		assert.False(t, ok)
		_, ok = sessions.Get(fresh, 1)
		assert.True(t, ok)
	})

	t.Run("use keeps a session alive", func(t *testing.T) {
		id := sessions.Create(3)
		now = now.Add(50 * time.Minute)
		_, ok := sessions.Get(id, 3)
		require.True(t, ok)
		now = now.Add(50 * time.Minute)

		sessions.EvictIdle()
		_, ok = sessions.Get(id, 3)
		assert.True(t, ok)
	})
}

func TestEvictionJob(t *testing.T) {
	sessions := NewSessions(time.Millisecond)
	sessions.Create(1)
	time.Sleep(5 * time.Millisecond)

	job := sessions.StartEvictionJob(10 * time.Millisecond)
	assert.Eventually(t, func() bool {
		return sessions.Len() == 0
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, jobs.Jobs{job}.CancelAndWait(time.Second))
}
