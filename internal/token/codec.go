// Package token signs and verifies the compact claims-bearing tokens used for
// access and refresh credentials.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/daylog-app/daylog-api/pkg/config"
)

// Kind selects the lifetime of a signed token. Access and refresh tokens are
// otherwise identical on the wire: the kind is not encoded as a claim, and
// only refresh tokens are ever persisted (as hashes) server side.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Verification failures, distinguishable so callers can map them to
// user-facing messages.
var (
	ErrMalformed      = errors.New("token is malformed")
	ErrBadSignature   = errors.New("token signature is invalid")
	ErrExpired        = errors.New("token is expired")
	ErrIssuerMismatch = errors.New("token issuer mismatch")
)

// Claims is the payload carried by both token kinds.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with a shared HS256 secret. It is stateless
// and safe for concurrent use.
type Codec struct {
	secret        []byte
	issuer        string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewCodec builds a Codec from JWT configuration.
func NewCodec(cfg config.JWTConfig) *Codec {
	return &Codec{
		secret:        []byte(cfg.Secret),
		issuer:        cfg.Issuer,
		accessExpiry:  cfg.AccessExpiry,
		refreshExpiry: cfg.RefreshExpiry,
	}
}

// Sign issues a token for the given user and returns it with its absolute
// expiry time.
func (c *Codec) Sign(userID int64, kind Kind) (string, time.Time, error) {
	ttl := c.accessExpiry
	if kind == KindRefresh {
		ttl = c.refreshExpiry
	}

	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(ttl)

	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a token, returning its claims. Failures are
// reported as one of the package sentinel errors where the cause is known.
func (c *Codec) Verify(raw string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithIssuer(c.issuer), jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, ErrIssuerMismatch
		default:
			return nil, fmt.Errorf("verify token: %w", err)
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}

	return claims, nil
}
