// Package resolver implements the mobile-side half of the handshake: turning
// a decoded QR token into a completed, authorized session using the signed-in
// user's credential vault.
package resolver

import (
	"context"
	"image"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-qr-login-relay/qr"
	"github.com/jrsteele09/go-qr-login-relay/sessions"
	"github.com/jrsteele09/go-qr-login-relay/siteaccounts"
	"github.com/jrsteele09/go-qr-login-relay/vault"
)

// OutcomeType tags the terminal result of one resolution attempt.
type OutcomeType string

const (
	OutcomeAuthorized   OutcomeType = "authorized"
	OutcomeInvalidToken OutcomeType = "invalid_token"
	OutcomeNoCredential OutcomeType = "no_credential"
	OutcomeNoMatch      OutcomeType = "no_match"
	OutcomeConflict     OutcomeType = "conflict"
	OutcomeError        OutcomeType = "error"
)

// Outcome is what the scanning user sees. Message is always human-readable
// and non-technical.
type Outcome struct {
	Code    OutcomeType
	Message string
}

func outcome(code OutcomeType, message string) Outcome {
	return Outcome{Code: code, Message: message}
}

// Repos holds the repository dependencies for the Resolver.
type Repos struct {
	Sessions     sessions.Repo     // Shared session store
	Vault        vault.Repo        // The signed-in user's credential vault
	SiteAccounts siteaccounts.Repo // Site-account verification source
}

// Resolver drives the QR-to-session resolution protocol.
type Resolver struct {
	repos   Repos
	log     zerolog.Logger
	nowTime func() time.Time // injectable for testing
}

// ResolverOption defines a function type to modify the Resolver instance.
type ResolverOption func(*Resolver)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.nowTime = nowFunc
	}
}

// WithLogger sets the logger used for per-attempt diagnostics.
func WithLogger(log zerolog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.log = log
	}
}

// New initializes a Resolver with required dependencies.
func New(repos Repos, options ...ResolverOption) (*Resolver, error) {
	if repos.Sessions == nil {
		return nil, errors.New("[resolver.New] Sessions repo is required")
	}
	if repos.Vault == nil {
		return nil, errors.New("[resolver.New] Vault repo is required")
	}
	if repos.SiteAccounts == nil {
		return nil, errors.New("[resolver.New] SiteAccounts repo is required")
	}

	r := &Resolver{
		repos:   repos,
		log:     zerolog.Nop(),
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(r)
	}

	return r, nil
}

// ResolveToken runs the resolution pipeline for a decoded token and the
// signed-in user. Steps that find no match terminate without mutating any
// state; only a fully validated attempt writes, and the write is a
// conditional one so two devices racing on the same token produce exactly
// one authorization.
func (r *Resolver) ResolveToken(ctx context.Context, uid, tokenStr string) Outcome {
	session, err := r.repos.Sessions.FindByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return outcome(OutcomeInvalidToken, "This code isn't valid. Ask the site for a fresh one and scan again.")
		}
		r.log.Error().Err(err).Msg("session lookup failed")
		return outcome(OutcomeError, "Something went wrong. Please try again.")
	}

	credential, err := r.repos.Vault.FindBySite(ctx, uid, session.SiteIdentity)
	if err != nil {
		if errors.Is(err, vault.ErrNoCredential) {
			return outcome(OutcomeNoCredential, "You have no saved credential for "+session.SiteIdentity+".")
		}
		r.log.Error().Err(err).Msg("vault lookup failed")
		return outcome(OutcomeError, "Something went wrong. Please try again.")
	}

	verified, err := r.repos.SiteAccounts.Verify(ctx, session.SiteIdentity, credential.LoginIdentifier, credential.Secret)
	if err != nil {
		r.log.Error().Err(err).Msg("site account verification failed")
		return outcome(OutcomeError, "Something went wrong. Please try again.")
	}
	if !verified {
		return outcome(OutcomeNoMatch, "Your saved credentials for "+session.SiteIdentity+" don't match. Update them and try again.")
	}

	// The conditional write is the at-most-once guard: it only lands while
	// resolvedBy is still unset.
	err = r.repos.Sessions.Resolve(ctx, session.Token, sessions.Resolution{
		ResolvedBy:           uid,
		ResolvedCredentialID: credential.ID,
		LoginIdentifier:      credential.LoginIdentifier,
		Secret:               credential.Secret,
		ResolvedAt:           r.nowTime(),
	})
	if err != nil {
		if errors.Is(err, sessions.ErrAlreadyResolved) {
			return outcome(OutcomeConflict, "This login was already approved on another device.")
		}
		if errors.Is(err, sessions.ErrNotFound) {
			return outcome(OutcomeInvalidToken, "This code isn't valid. Ask the site for a fresh one and scan again.")
		}
		r.log.Error().Err(err).Msg("session resolve failed")
		return outcome(OutcomeError, "Something went wrong. Please try again.")
	}

	if _, err := r.repos.Vault.RotateAccessToken(ctx, credential.ID); err != nil {
		// The session is committed; a failed rotation is logged but the
		// login itself succeeded.
		r.log.Error().Err(err).Str("credentialID", credential.ID).Msg("access token rotation failed")
	}

	r.log.Info().Str("site", session.SiteIdentity).Msg("session authorized")
	return outcome(OutcomeAuthorized, "You're logged in to "+session.SiteIdentity+".")
}

// ProcessFrame decodes one camera frame and, when it holds a QR payload,
// feeds it through ResolveToken. Frames without a decodable code return
// false with a zero Outcome: decode failure is swallowed so the scanner
// keeps going.
func (r *Resolver) ProcessFrame(ctx context.Context, uid string, frame image.Image) (Outcome, bool) {
	tokenStr, err := qr.Decode(frame)
	if err != nil {
		return Outcome{}, false
	}
	return r.ResolveToken(ctx, uid, tokenStr), true
}
