package posting

import (
	"sync"
	"time"

	"github.com/CosmoTheDev/prreview-agent/models"
)

// Ledger remembers which pull requests have already had a review published
// during this process lifetime, so repeated runs (watch loops, retried
// gateway calls) do not spam a PR with duplicate threads.
type Ledger struct {
	mu        sync.Mutex
	published map[string]time.Time
}

func NewLedger() *Ledger {
	return &Ledger{published: make(map[string]time.Time)}
}

// AlreadyPublished reports whether a review for key was recorded.
func (l *Ledger) AlreadyPublished(key models.PRKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.published[key.String()]
	return ok
}

// MarkPublished records key and reports whether this call was the first to
// do so. Publish uses this as its entry gate, so the check and the record
// happen under one lock and racing publishes cannot both win the key.
func (l *Ledger) MarkPublished(key models.PRKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.published[key.String()]; ok {
		return false
	}
	l.published[key.String()] = time.Now()
	return true
}

// Forget drops key so a subsequent Publish runs again, e.g. after new
// commits land on the PR.
func (l *Ledger) Forget(key models.PRKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.published, key.String())
}
