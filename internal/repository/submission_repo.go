package repository

import (
	"sync"

	"github.com/parisxmas/juridoc/internal/apperror"
	"github.com/parisxmas/juridoc/internal/models"
)

// SubmissionRepo is the process-lifetime, append-only submission store.
// Records are copied on the way in and out so callers can never mutate
// what has been stored.
type SubmissionRepo struct {
	mu   sync.RWMutex
	subs []models.Submission
}

func NewSubmissionRepo() *SubmissionRepo {
	return &SubmissionRepo{}
}

// Append stores sub at the end and returns its zero-based index.
func (r *SubmissionRepo) Append(sub models.Submission) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, sub.Clone())
	return len(r.subs) - 1
}

// List returns every record in insertion order.
func (r *SubmissionRepo) List() []models.Submission {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Submission, len(r.subs))
	for i, s := range r.subs {
		out[i] = s.Clone()
	}
	return out
}

// Get returns the record at index i.
func (r *SubmissionRepo) Get(i int) (models.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.subs) {
		return models.Submission{}, apperror.NotFound("submission %d not found", i)
	}
	return r.subs[i].Clone(), nil
}

func (r *SubmissionRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
