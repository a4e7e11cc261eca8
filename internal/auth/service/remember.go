package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "github.com/acesonder/outreach/pkg/domain"
	dErrors "github.com/acesonder/outreach/pkg/domain-errors"
)

const (
	rememberIssuer     = "outreach"
	defaultRememberTTL = 30 * 24 * time.Hour
)

// rememberClaims are the signed contents of a remember-me token. The subject
// is the user ID; nothing else is trusted from the token, the account is
// re-read from the store at redemption.
type rememberClaims struct {
	jwt.RegisteredClaims
}

// RememberTokens issues and verifies the persistent "remember me" tokens
// that survive session expiry.
type RememberTokens struct {
	signingKey []byte
	ttl        time.Duration
}

// NewRememberTokens constructs the token service. A TTL of zero or less
// falls back to 30 days.
func NewRememberTokens(signingKey string, ttl time.Duration) (*RememberTokens, error) {
	if signingKey == "" {
		return nil, dErrors.New(dErrors.CodeInternal, "remember-me signing key is required")
	}
	if ttl <= 0 {
		ttl = defaultRememberTTL
	}
	return &RememberTokens{signingKey: []byte(signingKey), ttl: ttl}, nil
}

// TTL exposes the configured token lifetime, for cookie max-age.
func (r *RememberTokens) TTL() time.Duration { return r.ttl }

// Issue signs a token for the user, valid from now until now plus the TTL.
func (r *RememberTokens) Issue(userID id.UserID, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, rememberClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    rememberIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(r.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign remember token")
	}
	return signed, nil
}

// Redeem verifies the signature and expiry and returns the user ID the token
// was issued for. All failures map to unauthorized: a tampered token gets no
// more detail than a stale one.
func (r *RememberTokens) Redeem(tokenString string, now time.Time) (id.UserID, error) {
	var zero id.UserID
	if tokenString == "" {
		return zero, dErrors.New(dErrors.CodeUnauthorized, "invalid remember token")
	}

	claims := new(rememberClaims)
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return r.signingKey, nil
	},
		jwt.WithIssuer(rememberIssuer),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !parsed.Valid {
		return zero, dErrors.New(dErrors.CodeUnauthorized, "invalid remember token")
	}

	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return zero, dErrors.New(dErrors.CodeUnauthorized, "invalid remember token")
	}
	return userID, nil
}
