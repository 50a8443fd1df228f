package identity

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedran77/minilid/internal/domain"
)

var secret = []byte("test-secret")

func TestResolveCallerRoundTrip(t *testing.T) {
	userID := uuid.New()
	token, err := IssueToken(secret, userID, domain.RoleRecruiter, time.Hour)
	require.NoError(t, err)

	caller, err := ResolveCaller(secret, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, userID, caller.ID)
	assert.Equal(t, domain.RoleRecruiter, caller.Role)
}

func TestResolveCallerRejects(t *testing.T) {
	userID := uuid.New()
	valid, err := IssueToken(secret, userID, domain.RoleApplicant, time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(secret, userID, domain.RoleApplicant, -time.Minute)
	require.NoError(t, err)
	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
	}).SignedString(secret)
	require.NoError(t, err)
	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims{
		Role:             domain.RoleApplicant,
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		secret []byte
	}{
		{name: "empty header", header: "", secret: secret},
		{name: "missing bearer prefix", header: valid, secret: secret},
		{name: "bearer without token", header: "Bearer ", secret: secret},
		{name: "wrong secret", header: "Bearer " + valid, secret: []byte("other")},
		{name: "expired", header: "Bearer " + expired, secret: secret},
		{name: "unknown role", header: "Bearer " + badRole, secret: secret},
		{name: "none algorithm", header: "Bearer " + noneAlg, secret: secret},
		{name: "garbage", header: "Bearer abc.def.ghi", secret: secret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveCaller(tt.secret, tt.header)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnauthenticated))
		})
	}
}
