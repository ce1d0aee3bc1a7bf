package partners_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-qr-login-relay/partners"
)

func TestFindExactMatchOnly(t *testing.T) {
	repo := partners.NewInMemoryRepo(partners.Registration{
		PartnerKey:   "abc",
		SiteIdentity: "example.com",
		Name:         "Example Site",
	})
	ctx := context.Background()

	reg, err := repo.Find(ctx, "abc", "example.com")
	require.NoError(t, err)
	require.Equal(t, "Example Site", reg.Name)

	_, err = repo.Find(ctx, "abc", "other.com")
	require.ErrorIs(t, err, partners.ErrNotRegistered)

	_, err = repo.Find(ctx, "xyz", "example.com")
	require.ErrorIs(t, err, partners.ErrNotRegistered)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partners.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
partners:
  - partnerKey: abc
    siteIdentity: example.com
    name: Example Site
  - partnerKey: def
    siteIdentity: other.com
    name: Other Site
`), 0o600))

	registrations, err := partners.LoadFile(path)
	require.NoError(t, err)
	require.Len(t, registrations, 2)
	require.Equal(t, "abc", registrations[0].PartnerKey)
	require.Equal(t, "other.com", registrations[1].SiteIdentity)
}

func TestLoadFileRejectsIncompleteRegistration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partners.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
partners:
  - partnerKey: abc
    name: Missing Site
`), 0o600))

	_, err := partners.LoadFile(path)
	require.Error(t, err)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := partners.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
