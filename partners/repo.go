package partners

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotRegistered is returned when no registration matches the pair.
var ErrNotRegistered = errors.New("partner not registered")

// Repo is the read-only lookup the gateway consults before opening a
// session. Both fields must match a registration exactly.
type Repo interface {
	Find(ctx context.Context, partnerKey, siteIdentity string) (*Registration, error)
}
