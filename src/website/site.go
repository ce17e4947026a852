package website

import (
	"sync"
	"time"

	"github.com/quillpress/quill/src/db"
	"github.com/quillpress/quill/src/imagepipe"
)

// Everything a handler needs beyond the request itself.
type Site struct {
	Conn         db.ConnOrTx
	Images       *imagepipe.Pipeline
	EditSessions *imagepipe.Sessions
	Submits      *SubmitGuard

	// Largest image accepted into an edit session, in bytes.
	MaxImageSize int

	Now func() time.Time
}

// Tracks which users have an article submit in flight.
type SubmitGuard struct {
	mu     sync.Mutex
	active map[int64]bool
}

func NewSubmitGuard() *SubmitGuard {
	return &SubmitGuard{active: map[int64]bool{}}
}

// False if the user already has a submit in flight.
func (g *SubmitGuard) Begin(userID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active[userID] {
		return false
	}
	g.active[userID] = true
	return true
}

func (g *SubmitGuard) End(userID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, userID)
}
