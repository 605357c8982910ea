package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conferencecentral/internal/domain"
)

func TestJWTIssuer_Issue(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret, "conferencecentral")

	token, err := issuer.Issue(domain.Identity{UserID: "user-123", Email: "u@example.com", DisplayName: "U"}, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Parse and verify claims
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(*jwtClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "conferencecentral", claims.Issuer)
	assert.Equal(t, "u@example.com", claims.Email)
	assert.Equal(t, "U", claims.Name)

	_, err = issuer.Issue(domain.Identity{}, time.Hour)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestJWTVerifier_Verify(t *testing.T) {
	id := domain.Identity{UserID: "user-123", Email: "u@example.com"}
	good, err := NewJWTIssuer("secret", "cc").Issue(id, time.Hour)
	require.NoError(t, err)
	expired, err := NewJWTIssuer("secret", "cc").Issue(id, -time.Minute)
	require.NoError(t, err)
	otherSecret, err := NewJWTIssuer("other", "cc").Issue(id, time.Hour)
	require.NoError(t, err)
	otherIssuer, err := NewJWTIssuer("secret", "elsewhere").Issue(id, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-123", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "valid", token: good},
		{name: "expired", token: expired, wantErr: true},
		{name: "wrong secret", token: otherSecret, wantErr: true},
		{name: "wrong issuer", token: otherIssuer, wantErr: true},
		{name: "unsigned", token: none, wantErr: true},
		{name: "garbage", token: "not.a.jwt", wantErr: true},
	}

	verifier := NewJWTVerifier("secret", "cc")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := verifier.Verify(tt.token)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, got)
		})
	}
}
