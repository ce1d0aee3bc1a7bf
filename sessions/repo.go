package sessions

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when no session matches the token.
	ErrNotFound = errors.New("session not found")
	// ErrDuplicateToken is returned when an insert collides on the token.
	// Callers must surface this; it is practically improbable but never
	// something to silently ignore.
	ErrDuplicateToken = errors.New("duplicate session token")
	// ErrAlreadyResolved is returned when a conditional resolve loses the
	// race: another resolver committed first and the session is terminal.
	ErrAlreadyResolved = errors.New("session already resolved")
)

// Repo defines the session store. The store must be read-committed: a poll
// issued after a resolver's write observes the update.
type Repo interface {
	// Insert persists a new PENDING session. Fails with ErrDuplicateToken
	// if a live session already carries the token.
	Insert(ctx context.Context, session *LoginSession) error

	// FindByToken retrieves a session by exact token match.
	FindByToken(ctx context.Context, token string) (*LoginSession, error)

	// Resolve applies the resolution as one conditional write: it commits
	// only if the session is still unresolved, otherwise it returns
	// ErrAlreadyResolved and leaves the first resolution intact.
	Resolve(ctx context.Context, token string, resolution Resolution) error

	// DeleteExpired removes sessions created before the cutoff and returns
	// how many were swept. Stores with native per-key TTL may sweep lazily
	// and report zero.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}
