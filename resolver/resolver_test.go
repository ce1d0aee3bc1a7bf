package resolver_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-qr-login-relay/partners"
	"github.com/jrsteele09/go-qr-login-relay/relay"
	"github.com/jrsteele09/go-qr-login-relay/resolver"
	"github.com/jrsteele09/go-qr-login-relay/sessions"
	"github.com/jrsteele09/go-qr-login-relay/siteaccounts"
	"github.com/jrsteele09/go-qr-login-relay/vault"
)

const (
	testPartnerKey = "abc"
	testSite       = "example.com"
	testUID        = "U1"
	testLogin      = "john"
	testSecret     = "hunter2"
)

type testFixture struct {
	sessionRepo *sessions.InMemoryRepo
	vaultRepo   *vault.InMemoryRepo
	accountRepo *siteaccounts.InMemoryRepo
	gateway     *relay.Service
	resolver    *resolver.Resolver
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		sessionRepo: sessions.NewInMemoryRepo(),
		vaultRepo:   vault.NewInMemoryRepo(),
		accountRepo: siteaccounts.NewInMemoryRepo(),
	}

	gateway, err := relay.NewService(relay.Repos{
		Sessions: f.sessionRepo,
		Partners: partners.NewInMemoryRepo(partners.Registration{
			PartnerKey:   testPartnerKey,
			SiteIdentity: testSite,
			Name:         "Example Site",
		}),
	})
	require.NoError(t, err)
	f.gateway = gateway

	r, err := resolver.New(resolver.Repos{
		Sessions:     f.sessionRepo,
		Vault:        f.vaultRepo,
		SiteAccounts: f.accountRepo,
	})
	require.NoError(t, err)
	f.resolver = r

	return f
}

// seedCredential stores a vault credential for the test user and returns its ID.
func (f *testFixture) seedCredential(t *testing.T, secret string) string {
	t.Helper()

	credential := &vault.StoredCredential{
		UserID:          testUID,
		SiteIdentity:    testSite,
		LoginIdentifier: testLogin,
		Secret:          secret,
		AccessToken:     "initial-access-token",
	}
	require.NoError(t, f.vaultRepo.Upsert(context.Background(), credential))
	return credential.ID
}

func (f *testFixture) seedSiteAccount(t *testing.T) {
	t.Helper()
	require.NoError(t, f.accountRepo.Register(context.Background(), testSite, testLogin, testSecret))
}

func (f *testFixture) initiate(t *testing.T) *relay.LoginResult {
	t.Helper()
	result, err := f.gateway.InitiateLogin(context.Background(), testPartnerKey, testSite)
	require.NoError(t, err)
	return result
}

func TestResolveTokenSuccess(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	credentialID := f.seedCredential(t, testSecret)
	f.seedSiteAccount(t)
	login := f.initiate(t)

	result := f.resolver.ResolveToken(ctx, testUID, login.Token)
	require.Equal(t, resolver.OutcomeAuthorized, result.Code)
	require.NotEmpty(t, result.Message)

	// The partner's next poll observes the resolution.
	status, err := f.gateway.PollLoginStatus(ctx, login.Token)
	require.NoError(t, err)
	require.Equal(t, relay.StatusAuthorized, status.State)
	require.Equal(t, testUID, status.UID)

	// Credentials were copied onto the session in one write.
	session, err := f.sessionRepo.FindByToken(ctx, login.Token)
	require.NoError(t, err)
	require.Equal(t, testLogin, session.LoginIdentifier)
	require.Equal(t, testSecret, session.Secret)
	require.Equal(t, credentialID, session.ResolvedCredentialID)
	require.False(t, session.ResolvedAt.IsZero())

	// The credential's access token rotated.
	credential, err := f.vaultRepo.FindBySite(ctx, testUID, testSite)
	require.NoError(t, err)
	require.NotEqual(t, "initial-access-token", credential.AccessToken)
	require.NotEmpty(t, credential.AccessToken)
}

func TestResolveTokenInvalidToken(t *testing.T) {
	f := setupTestFixture(t)
	f.seedCredential(t, testSecret)
	f.seedSiteAccount(t)

	result := f.resolver.ResolveToken(context.Background(), testUID, "never-issued")
	require.Equal(t, resolver.OutcomeInvalidToken, result.Code)
	require.NotEmpty(t, result.Message)
}

func TestResolveTokenNoStoredCredential(t *testing.T) {
	f := setupTestFixture(t)
	f.seedSiteAccount(t)
	login := f.initiate(t)

	result := f.resolver.ResolveToken(context.Background(), testUID, login.Token)
	require.Equal(t, resolver.OutcomeNoCredential, result.Code)

	// The session is untouched and may be retried.
	status, err := f.gateway.PollLoginStatus(context.Background(), login.Token)
	require.NoError(t, err)
	require.Equal(t, relay.StatusPending, status.State)
}

func TestResolveTokenCredentialsDontMatch(t *testing.T) {
	f := setupTestFixture(t)
	f.seedCredential(t, "stale-password")
	f.seedSiteAccount(t)
	login := f.initiate(t)

	result := f.resolver.ResolveToken(context.Background(), testUID, login.Token)
	require.Equal(t, resolver.OutcomeNoMatch, result.Code)

	// Validation failure mutates nothing: still pending, access token intact.
	status, err := f.gateway.PollLoginStatus(context.Background(), login.Token)
	require.NoError(t, err)
	require.Equal(t, relay.StatusPending, status.State)

	credential, err := f.vaultRepo.FindBySite(context.Background(), testUID, testSite)
	require.NoError(t, err)
	require.Equal(t, "initial-access-token", credential.AccessToken)
}

func TestResolveTokenRetryAfterFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.seedSiteAccount(t)
	login := f.initiate(t)

	// First scan: no credential yet.
	result := f.resolver.ResolveToken(context.Background(), testUID, login.Token)
	require.Equal(t, resolver.OutcomeNoCredential, result.Code)

	// The user saves the credential and rescans the same code.
	f.seedCredential(t, testSecret)
	result = f.resolver.ResolveToken(context.Background(), testUID, login.Token)
	require.Equal(t, resolver.OutcomeAuthorized, result.Code)
}

func TestConcurrentResolutionOneWinner(t *testing.T) {
	f := setupTestFixture(t)
	f.seedCredential(t, testSecret)
	f.seedSiteAccount(t)

	// A second user with their own valid credential for the same site.
	const otherUID = "U2"
	require.NoError(t, f.vaultRepo.Upsert(context.Background(), &vault.StoredCredential{
		UserID:          otherUID,
		SiteIdentity:    testSite,
		LoginIdentifier: testLogin,
		Secret:          testSecret,
	}))

	login := f.initiate(t)

	var wg sync.WaitGroup
	outcomes := make([]resolver.Outcome, 2)
	for i, uid := range []string{testUID, otherUID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = f.resolver.ResolveToken(context.Background(), uid, login.Token)
		}()
	}
	wg.Wait()

	authorized, conflicted := 0, 0
	for _, outcome := range outcomes {
		switch outcome.Code {
		case resolver.OutcomeAuthorized:
			authorized++
		case resolver.OutcomeConflict:
			conflicted++
		}
	}
	require.Equal(t, 1, authorized)
	require.Equal(t, 1, conflicted)

	// Exactly one resolver's uid landed on the session.
	session, err := f.sessionRepo.FindByToken(context.Background(), login.Token)
	require.NoError(t, err)
	require.Contains(t, []string{testUID, otherUID}, session.ResolvedBy)
}

func TestProcessFrameDecodesAndResolves(t *testing.T) {
	f := setupTestFixture(t)
	f.seedCredential(t, testSecret)
	f.seedSiteAccount(t)
	login := f.initiate(t)

	img, err := png.Decode(bytes.NewReader(login.QRImage))
	require.NoError(t, err)

	result, decoded := f.resolver.ProcessFrame(context.Background(), testUID, img)
	require.True(t, decoded)
	require.Equal(t, resolver.OutcomeAuthorized, result.Code)
}

func TestProcessFrameSwallowsUndecodableFrames(t *testing.T) {
	f := setupTestFixture(t)

	blank := blankFrame()
	_, decoded := f.resolver.ProcessFrame(context.Background(), testUID, blank)
	require.False(t, decoded)
}

func blankFrame() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func TestFramePumpDeliversOutcome(t *testing.T) {
	f := setupTestFixture(t)
	f.seedCredential(t, testSecret)
	f.seedSiteAccount(t)
	login := f.initiate(t)

	img, err := png.Decode(bytes.NewReader(login.QRImage))
	require.NoError(t, err)

	outcomes := make(chan resolver.Outcome, 1)
	pump := resolver.NewFramePump(f.resolver, testUID, func(o resolver.Outcome) { outcomes <- o })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pump.Start(ctx)

	// The worker may not be receiving yet; submit until accepted.
	for !pump.Submit(img) {
		time.Sleep(time.Millisecond)
	}

	select {
	case outcome := <-outcomes:
		require.Equal(t, resolver.OutcomeAuthorized, outcome.Code)
	case <-ctx.Done():
		t.Fatal("timed out waiting for outcome")
	}

	pump.Stop()
}
