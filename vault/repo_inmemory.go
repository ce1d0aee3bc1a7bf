package vault

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jrsteele09/go-qr-login-relay/token"
)

var _ Repo = (*InMemoryRepo)(nil)

// accessTokenLength matches the session token format; the rotated value is
// drawn from the same generator.
const accessTokenLength = token.DefaultLength

type InMemoryRepo struct {
	credentials map[string]*StoredCredential // keyed by credential ID
	lock        sync.RWMutex
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		credentials: make(map[string]*StoredCredential),
	}
}

func (r *InMemoryRepo) FindBySite(_ context.Context, userID, siteIdentity string) (*StoredCredential, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for _, credential := range r.credentials {
		if credential.UserID == userID && credential.SiteIdentity == siteIdentity {
			copied := *credential
			return &copied, nil
		}
	}
	return nil, ErrNoCredential
}

func (r *InMemoryRepo) RotateAccessToken(_ context.Context, credentialID string) (string, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	credential, ok := r.credentials[credentialID]
	if !ok {
		return "", ErrCredentialNotFound
	}

	fresh, err := token.Generate(accessTokenLength)
	if err != nil {
		return "", errors.Wrap(err, "[InMemoryRepo.RotateAccessToken] token.Generate")
	}

	credential.AccessToken = fresh
	return fresh, nil
}

func (r *InMemoryRepo) Upsert(_ context.Context, credential *StoredCredential) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if credential.ID == "" {
		credential.ID = uuid.New().String()
	}

	stored := *credential
	r.credentials[credential.ID] = &stored
	return nil
}
