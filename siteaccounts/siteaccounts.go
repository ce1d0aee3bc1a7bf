package siteaccounts

import "golang.org/x/crypto/bcrypt"

// Account is a third-party site's registered user record, held relay-side so
// the resolver can verify a vault credential before authorizing a session.
// Secrets are stored bcrypt-hashed, never in the clear.
type Account struct {
	SiteIdentity    string `json:"siteIdentity"`
	LoginIdentifier string `json:"loginIdentifier"`
	SecretHash      string `json:"secretHash"`
}

func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckSecretHash(secret, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	return err == nil
}
