// Package identity turns bearer credentials into a Caller. It has no storage
// dependency: a token either verifies against the signing secret or it does not.
package identity

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vedran77/minilid/internal/domain"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Caller is the resolved identity of whoever issued a request.
type Caller struct {
	ID   uuid.UUID
	Role domain.Role
}

type claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token carrying the user id as subject and the role.
func IssueToken(secret []byte, userID uuid.UUID, role domain.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}

// ParseToken verifies a raw token and returns the caller it names.
func ParseToken(secret []byte, tokenStr string) (Caller, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err == nil && !token.Valid {
		err = errors.New("token not valid")
	}
	if err != nil {
		return Caller{}, errors.Mark(errors.Wrap(err, "invalid or expired token"), ErrUnauthenticated)
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return Caller{}, errors.Mark(errors.Wrap(err, "invalid user id in token"), ErrUnauthenticated)
	}
	if !c.Role.Valid() {
		return Caller{}, errors.Wrapf(ErrUnauthenticated, "invalid role %q in token", c.Role)
	}

	return Caller{ID: userID, Role: c.Role}, nil
}

// ResolveCaller resolves an Authorization header value of the form "Bearer <token>".
func ResolveCaller(secret []byte, authorization string) (Caller, error) {
	tokenStr, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok || strings.TrimSpace(tokenStr) == "" {
		return Caller{}, errors.Wrap(ErrUnauthenticated, "missing bearer token")
	}
	return ParseToken(secret, strings.TrimSpace(tokenStr))
}
