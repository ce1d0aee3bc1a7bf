package siteaccounts

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

type accountKey struct {
	siteIdentity    string
	loginIdentifier string
}

type InMemoryRepo struct {
	accounts map[accountKey]*Account
	lock     sync.RWMutex
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		accounts: make(map[accountKey]*Account),
	}
}

// Register stores an account, hashing the secret.
func (r *InMemoryRepo) Register(_ context.Context, siteIdentity, loginIdentifier, secret string) error {
	hash, err := HashSecret(secret)
	if err != nil {
		return errors.Wrap(err, "[InMemoryRepo.Register] HashSecret")
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	r.accounts[accountKey{siteIdentity, loginIdentifier}] = &Account{
		SiteIdentity:    siteIdentity,
		LoginIdentifier: loginIdentifier,
		SecretHash:      hash,
	}
	return nil
}

func (r *InMemoryRepo) Verify(_ context.Context, siteIdentity, loginIdentifier, secret string) (bool, error) {
	r.lock.RLock()
	account, ok := r.accounts[accountKey{siteIdentity, loginIdentifier}]
	r.lock.RUnlock()

	if !ok {
		return false, nil
	}
	return CheckSecretHash(secret, account.SecretHash), nil
}
