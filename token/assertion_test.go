package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-qr-login-relay/token"
)

const (
	assertionKey = "test-signing-key"
	testUID      = "user-1"
	testSite     = "example.com"
)

func TestAssertionRoundTrip(t *testing.T) {
	signer := token.NewAssertionSigner(assertionKey, 5*time.Minute)

	signed, err := signer.Sign(testUID, testSite)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := signer.Verify(signed)
	require.NoError(t, err)
	require.Equal(t, testUID, claims.Subject)
	require.Equal(t, testSite, claims.SiteIdentity)
}

func TestAssertionWrongKeyRejected(t *testing.T) {
	signer := token.NewAssertionSigner(assertionKey, 5*time.Minute)
	other := token.NewAssertionSigner("another-key", 5*time.Minute)

	signed, err := signer.Sign(testUID, testSite)
	require.NoError(t, err)

	_, err = other.Verify(signed)
	require.Error(t, err)
}

func TestAssertionGarbageRejected(t *testing.T) {
	signer := token.NewAssertionSigner(assertionKey, 5*time.Minute)

	_, err := signer.Verify("not-a-jwt")
	require.Error(t, err)
}
