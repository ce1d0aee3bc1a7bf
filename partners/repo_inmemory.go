package partners

import (
	"context"
	"sync"
)

var _ Repo = (*InMemoryRepo)(nil)

type registrationKey struct {
	partnerKey   string
	siteIdentity string
}

// InMemoryRepo holds the partner registry as a static lookup table.
type InMemoryRepo struct {
	registrations map[registrationKey]Registration
	lock          sync.RWMutex
}

func NewInMemoryRepo(registrations ...Registration) *InMemoryRepo {
	repo := &InMemoryRepo{
		registrations: make(map[registrationKey]Registration),
	}
	for _, reg := range registrations {
		repo.registrations[registrationKey{reg.PartnerKey, reg.SiteIdentity}] = reg
	}
	return repo
}

func (r *InMemoryRepo) Find(_ context.Context, partnerKey, siteIdentity string) (*Registration, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	reg, ok := r.registrations[registrationKey{partnerKey, siteIdentity}]
	if !ok {
		return nil, ErrNotRegistered
	}
	return &reg, nil
}
