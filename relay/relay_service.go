// Package relay implements the partner-facing half of the QR login
// handshake: opening sessions for registered partners and reporting session
// outcome to pollers.
package relay

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-qr-login-relay/partners"
	"github.com/jrsteele09/go-qr-login-relay/qr"
	"github.com/jrsteele09/go-qr-login-relay/sessions"
	"github.com/jrsteele09/go-qr-login-relay/token"
)

// StatusType is the machine-readable poll status handed to partners.
type StatusType string

const (
	StatusPending    StatusType = "pending"
	StatusAuthorized StatusType = "authorized"
	StatusNotFound   StatusType = "not_found"
)

// Repos holds the repository dependencies for the Service.
type Repos struct {
	Sessions sessions.Repo // Login session store
	Partners partners.Repo // Pre-provisioned partner registry
}

// Service creates login sessions and reports their outcome. Handlers invoke
// it concurrently; it holds no per-request state and touches the store only
// through key-based lookups and inserts.
type Service struct {
	repos           Repos
	tokenLength     int
	sessionTTL      time.Duration          // 0 disables expiry checks
	assertionSigner *token.AssertionSigner // nil disables assertions
	nowTime         func() time.Time       // injectable for testing
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithTokenLength overrides the default session token length.
func WithTokenLength(length int) ServiceOption {
	return func(s *Service) {
		s.tokenLength = length
	}
}

// WithSessionTTL makes pending sessions expire after ttl; expired sessions
// poll as not_found.
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.sessionTTL = ttl
	}
}

// WithAssertionSigner attaches a signed identity assertion to authorized
// poll results.
func WithAssertionSigner(signer *token.AssertionSigner) ServiceOption {
	return func(s *Service) {
		s.assertionSigner = signer
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(repos Repos, options ...ServiceOption) (*Service, error) {
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions repo is required")
	}
	if repos.Partners == nil {
		return nil, errors.New("[NewService] Partners repo is required")
	}

	service := &Service{
		repos:       repos,
		tokenLength: token.DefaultLength,
		nowTime:     time.Now,
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// LoginResult is what initiateLogin hands back to the partner: the raw token
// and the same token rendered as a QR PNG for the user to scan.
type LoginResult struct {
	Token   string
	QRImage []byte
}

// InitiateLogin opens a new PENDING login session for a registered partner.
// Every call creates a new, independent session; concurrent calls are safe
// because each gets its own token.
func (s *Service) InitiateLogin(ctx context.Context, partnerKey, siteIdentity string) (*LoginResult, error) {
	if partnerKey == "" || siteIdentity == "" {
		return nil, InvalidRequestErr
	}

	if _, err := s.repos.Partners.Find(ctx, partnerKey, siteIdentity); err != nil {
		if errors.Is(err, partners.ErrNotRegistered) {
			return nil, UnauthorizedPartnerErr
		}
		return nil, errors.Wrap(err, "[Service.InitiateLogin] Partners.Find")
	}

	sessionToken, err := token.Generate(s.tokenLength)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.InitiateLogin] token.Generate")
	}

	// A duplicate token from the store is surfaced, never retried silently:
	// at this entropy a collision means something is wrong with the
	// randomness source.
	if err := s.repos.Sessions.Insert(ctx, &sessions.LoginSession{
		Token:        sessionToken,
		PartnerKey:   partnerKey,
		SiteIdentity: siteIdentity,
		CreatedAt:    s.nowTime(),
	}); err != nil {
		return nil, errors.Wrap(err, "[Service.InitiateLogin] Sessions.Insert")
	}

	qrImage, err := qr.Encode(sessionToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.InitiateLogin] qr.Encode")
	}

	return &LoginResult{Token: sessionToken, QRImage: qrImage}, nil
}

// Status is one poll observation of a session.
type Status struct {
	State     StatusType
	UID       string // set when State is authorized
	Assertion string // signed identity assertion, when a signer is configured
}

// PollLoginStatus reports the latest committed state of a session. It is a
// pure read and safe to call repeatedly.
func (s *Service) PollLoginStatus(ctx context.Context, sessionToken string) (*Status, error) {
	if sessionToken == "" {
		return nil, InvalidRequestErr
	}

	session, err := s.repos.Sessions.FindByToken(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return &Status{State: StatusNotFound}, nil
		}
		return nil, errors.Wrap(err, "[Service.PollLoginStatus] Sessions.FindByToken")
	}

	if session.Expired(s.nowTime(), s.sessionTTL) {
		return &Status{State: StatusNotFound}, nil
	}

	if !session.Resolved() {
		return &Status{State: StatusPending}, nil
	}

	status := &Status{State: StatusAuthorized, UID: session.ResolvedBy}
	if s.assertionSigner != nil {
		assertion, err := s.assertionSigner.Sign(session.ResolvedBy, session.SiteIdentity)
		if err != nil {
			return nil, errors.Wrap(err, "[Service.PollLoginStatus] assertionSigner.Sign")
		}
		status.Assertion = assertion
	}
	return status, nil
}

// SweepExpired deletes sessions older than the TTL. Called from the server's
// background sweeper; a no-op when expiry is disabled.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	if s.sessionTTL == 0 {
		return 0, nil
	}
	return s.repos.Sessions.DeleteExpired(ctx, s.nowTime().Add(-s.sessionTTL))
}
