package imagepipe

import (
	"context"
	"sync"
	"time"

	"github.com/quillpress/quill/src/jobs"
	"github.com/quillpress/quill/src/logging"
	"github.com/quillpress/quill/src/utils"
)

// Bytes uploaded into an edit session, waiting for the article to be submitted.
type Image struct {
	Data     []byte
	Filename string
}

// The images of one edit session, keyed by placeholder id.
type RefMap struct {
	mu     sync.Mutex
	images map[string]Image
}

func NewRefMap() *RefMap {
	return &RefMap{images: map[string]Image{}}
}

// Stores the image and returns the id to use in a placeholder.
func (m *RefMap) Add(filename string, data []byte) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := utils.RandomID(10)
	m.images[id] = Image{Data: data, Filename: filename}
	return id
}

func (m *RefMap) Get(id string) (Image, bool) {
	if m == nil {
		return Image{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	img, ok := m.images[id]
	return img, ok
}

func (m *RefMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.images)
}

// Drops the given ids. Images added under other ids are kept.
func (m *RefMap) Remove(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.images, id)
	}
}

func (m *RefMap) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images = map[string]Image{}
}

// The placeholder path an editor should insert for an image id.
func PlaceholderPath(id string) string {
	return "/images/" + id
}

type editSession struct {
	ownerID  int64
	refs     *RefMap
	lastUsed time.Time
}

/*
Sessions tracks open edit sessions. Each belongs to one user and holds the
images they have uploaded but not yet published. Sessions idle for longer
than the TTL are dropped by EvictIdle.
*/
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*editSession
	ttl      time.Duration
	now      func() time.Time
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		sessions: map[string]*editSession{},
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *Sessions) Create(ownerID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := utils.RandomID(16)
	s.sessions[id] = &editSession{
		ownerID:  ownerID,
		refs:     NewRefMap(),
		lastUsed: s.now(),
	}
	return id
}

// Returns the session's images if it exists and belongs to ownerID.
func (s *Sessions) Get(id string, ownerID int64) (*RefMap, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || session.ownerID != ownerID {
		return nil, false
	}
	session.lastUsed = s.now()
	return session.refs, true
}

func (s *Sessions) Discard(id string, ownerID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || session.ownerID != ownerID {
		return false
	}
	session.refs.Clear()
	delete(s.sessions, id)
	return true
}

// Drops sessions unused for longer than the TTL. Returns how many went.
func (s *Sessions) EvictIdle() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	evicted := 0
	for id, session := range s.sessions {
		if session.lastUsed.Before(cutoff) {
			session.refs.Clear()
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Sessions) StartEvictionJob(interval time.Duration) *jobs.Job {
	return jobs.Periodic("edit session eviction", interval, func(ctx context.Context) error {
		if n := s.EvictIdle(); n > 0 {
			logging.ExtractLogger(ctx).Info().Int("evicted", n).Msg("Evicted idle edit sessions")
		}
		return nil
	})
}
