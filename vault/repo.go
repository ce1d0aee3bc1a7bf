package vault

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrNoCredential is returned when the user has no credential saved
	// for the site.
	ErrNoCredential = errors.New("no stored credential for site")
	// ErrCredentialNotFound is returned for an unknown credential ID.
	ErrCredentialNotFound = errors.New("credential not found")
)

// Repo is the resolver's window into a user's credential vault. Access is
// scoped to the authenticated user only; the relay never lists another
// user's credentials.
type Repo interface {
	// FindBySite returns the user's credential bound to the site identity,
	// limited to the first match.
	FindBySite(ctx context.Context, userID, siteIdentity string) (*StoredCredential, error)

	// RotateAccessToken replaces the credential's access token with a
	// freshly generated value and returns the new token. The previous
	// value becomes invalid.
	RotateAccessToken(ctx context.Context, credentialID string) (string, error)

	// Upsert stores a credential. The vault UI owns general CRUD; this
	// exists for provisioning and tests.
	Upsert(ctx context.Context, credential *StoredCredential) error
}
