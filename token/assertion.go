package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// AssertionSigner mints short-lived identity assertions handed to partners
// alongside an authorized poll result. A partner that does not want to trust
// the relayed credentials can verify the assertion signature instead.
type AssertionSigner struct {
	key     []byte
	expiry  time.Duration
	nowTime func() time.Time
}

// AssertionClaims are the claims carried by an identity assertion.
type AssertionClaims struct {
	SiteIdentity string `json:"site"`
	jwt.RegisteredClaims
}

// NewAssertionSigner creates a signer with the given HMAC key. The expiry
// bounds how long a partner may cache an assertion.
func NewAssertionSigner(key string, expiry time.Duration) *AssertionSigner {
	return &AssertionSigner{
		key:     []byte(key),
		expiry:  expiry,
		nowTime: time.Now,
	}
}

// Sign creates an HS256 signed assertion for the given user and site.
func (as *AssertionSigner) Sign(uid, siteIdentity string) (string, error) {
	now := as.nowTime()
	claims := AssertionClaims{
		SiteIdentity: siteIdentity,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.expiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.key)
	if err != nil {
		return "", errors.Wrap(err, "[AssertionSigner.Sign] SignedString")
	}
	return signed, nil
}

// Verify parses a signed assertion and returns its claims.
func (as *AssertionSigner) Verify(raw string) (*AssertionClaims, error) {
	claims := &AssertionClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return as.key, nil
	}, jwt.WithTimeFunc(as.nowTime))
	if err != nil {
		return nil, errors.Wrap(err, "[AssertionSigner.Verify] ParseWithClaims")
	}
	if !parsed.Valid {
		return nil, errors.New("[AssertionSigner.Verify] assertion not valid")
	}
	return claims, nil
}
