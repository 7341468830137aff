// Package auth holds the stateless credential primitives: the access-token
// codec and the password hasher. Neither touches storage.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultAccessTokenTTL = time.Hour

// Claims is the access token payload. Subject carries the decimal user id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Identity is what a valid access token proves.
type Identity struct {
	UserID    int64
	Email     string
	ExpiresAt time.Time
}

// TokenCodec issues and decodes HMAC-signed access tokens. It is safe for
// concurrent use.
type TokenCodec struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec returns a codec for one of HS256, HS384 or HS512. An empty
// method selects HS256, a non-positive ttl selects DefaultAccessTokenTTL.
func NewTokenCodec(secret []byte, method string, ttl time.Duration) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token codec: empty secret")
	}

	var m jwt.SigningMethod
	switch method {
	case "", "HS256":
		m = jwt.SigningMethodHS256
	case "HS384":
		m = jwt.SigningMethodHS384
	case "HS512":
		m = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("token codec: unsupported signing method %q", method)
	}

	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}

	return &TokenCodec{
		secret: append([]byte(nil), secret...),
		method: m,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL is the default lifetime of issued tokens.
func (c *TokenCodec) TTL() time.Duration { return c.ttl }

// Issue signs a token for the user valid for the configured TTL.
func (c *TokenCodec) Issue(userID int64, email string) (string, time.Time, error) {
	return c.IssueWithTTL(userID, email, c.ttl)
}

// IssueWithTTL signs a token valid for ttl. A negative ttl produces a token
// that is already expired.
func (c *TokenCodec) IssueWithTTL(userID int64, email string, ttl time.Duration) (string, time.Time, error) {
	now := c.now()
	exp := now.Add(ttl)

	token := jwt.NewWithClaims(c.method, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Email: email,
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Decode verifies signature, algorithm and expiry. Every failure wraps
// common.ErrInvalidToken; expired tokens also wrap common.ErrTokenExpired.
func (c *TokenCodec) Decode(tokenString string) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: bad subject", common.ErrInvalidToken)
	}

	return &Identity{
		UserID:    id,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// UserID returns the user id proven by tokenString.
func (c *TokenCodec) UserID(tokenString string) (int64, error) {
	ident, err := c.Decode(tokenString)
	if err != nil {
		return 0, err
	}
	return ident.UserID, nil
}
