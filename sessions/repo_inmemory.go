package sessions

import (
	"context"
	"sync"
	"time"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is the single-process session store. It doubles as the test
// fake; the lock gives the same at-most-once resolve guarantee the Redis
// store provides via a compare-and-set script.
type InMemoryRepo struct {
	sessions map[string]*LoginSession
	lock     sync.RWMutex
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]*LoginSession),
	}
}

func (r *InMemoryRepo) Insert(_ context.Context, session *LoginSession) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.sessions[session.Token]; ok {
		return ErrDuplicateToken
	}

	stored := *session
	r.sessions[session.Token] = &stored
	return nil
}

func (r *InMemoryRepo) FindByToken(_ context.Context, token string) (*LoginSession, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	session, ok := r.sessions[token]
	if !ok {
		return nil, ErrNotFound
	}

	copied := *session
	return &copied, nil
}

func (r *InMemoryRepo) Resolve(_ context.Context, token string, resolution Resolution) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	session, ok := r.sessions[token]
	if !ok {
		return ErrNotFound
	}
	if session.Resolved() {
		return ErrAlreadyResolved
	}

	session.ResolvedBy = resolution.ResolvedBy
	session.ResolvedCredentialID = resolution.ResolvedCredentialID
	session.LoginIdentifier = resolution.LoginIdentifier
	session.Secret = resolution.Secret
	session.ResolvedAt = resolution.ResolvedAt
	return nil
}

func (r *InMemoryRepo) DeleteExpired(_ context.Context, cutoff time.Time) (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	deleted := 0
	for token, session := range r.sessions {
		if session.CreatedAt.Before(cutoff) {
			delete(r.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}
