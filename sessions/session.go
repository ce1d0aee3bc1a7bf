package sessions

import "time"

// LoginSession tracks one QR login handshake. The token is the natural key:
// it binds the rendered QR code to exactly one session. A session starts
// PENDING and is mutated exactly once, by the mobile resolver, when it
// transitions to authorized.
type LoginSession struct {
	Token                string    // High-entropy natural key
	PartnerKey           string    // Key of the partner that opened the session
	SiteIdentity         string    // Declared site origin, matched against vault credentials
	CreatedAt            time.Time // When the partner opened the session
	ResolvedBy           string    // User ID, set only on successful resolution
	ResolvedCredentialID string    // Vault credential used to resolve
	LoginIdentifier      string    // Copied from the credential on resolution
	Secret               string    // Copied from the credential on resolution
	ResolvedAt           time.Time // Zero until resolved
}

// Resolved reports whether the session has been authorized by a user.
func (s *LoginSession) Resolved() bool {
	return s.ResolvedBy != ""
}

// Expired reports whether an unresolved session is older than ttl.
// A ttl of zero disables expiry. Resolved sessions never expire here;
// the sweeper removes them wholesale.
func (s *LoginSession) Expired(now time.Time, ttl time.Duration) bool {
	if ttl == 0 || s.Resolved() {
		return false
	}
	return now.Sub(s.CreatedAt) > ttl
}

// Resolution is the single atomic write applied when a resolver authorizes a
// session. All fields land in one store write so a poller never observes a
// half-updated session.
type Resolution struct {
	ResolvedBy           string
	ResolvedCredentialID string
	LoginIdentifier      string
	Secret               string
	ResolvedAt           time.Time
}
