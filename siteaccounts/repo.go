package siteaccounts

import "context"

// Repo is the verification source consulted in the resolver's final
// validation step. Verify reports whether a registered site user exists with
// the given identifier and secret for the site.
type Repo interface {
	Verify(ctx context.Context, siteIdentity, loginIdentifier, secret string) (bool, error)
}
