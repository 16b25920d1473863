package auth

import (
	"context"
	"testing"
	"time"

	"degrees/domain/core/entities"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newValidator(t *testing.T) *JWTValidator {
	t.Helper()
	v, err := NewJWTValidator(JWTConfig{SigningMethod: "HS256", SecretKey: testSecret, Issuer: "degrees"})
	require.NoError(t, err)
	return v
}

func TestJWTValidator_ValidateToken(t *testing.T) {
	v := newValidator(t)

	token, err := IssueToken(testSecret, "degrees", "ada", []string{RoleMember}, time.Hour)
	require.NoError(t, err)

	claims, err := v.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "ada", claims.UserID)
	assert.True(t, claims.HasRole(RoleMember))
	assert.False(t, claims.HasRole(RoleAdmin))
}

func TestJWTValidator_Rejects(t *testing.T) {
	v := newValidator(t)

	expired, err := IssueToken(testSecret, "degrees", "ada", nil, -time.Minute)
	require.NoError(t, err)
	forged, err := IssueToken("other-secret", "degrees", "ada", nil, time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := IssueToken(testSecret, "elsewhere", "ada", nil, time.Hour)
	require.NoError(t, err)
	anonymous, err := IssueToken(testSecret, "degrees", "", nil, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "ada"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"missing", "", ErrMissingToken},
		{"expired", expired, ErrExpiredToken},
		{"wrong secret", forged, ErrInvalidSignature},
		{"wrong issuer", wrongIssuer, ErrInvalidClaims},
		{"no subject", anonymous, ErrInvalidClaims},
		{"unsigned", none, ErrInvalidToken},
		{"garbage", "not.a.token", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ValidateToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewJWTValidator_Config(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{SigningMethod: "HS256"})
	assert.Error(t, err)
	_, err = NewJWTValidator(JWTConfig{SigningMethod: "RS256"})
	assert.Error(t, err)
	_, err = NewJWTValidator(JWTConfig{SigningMethod: "ES512", SecretKey: "x"})
	assert.Error(t, err)
}

func TestViewerFromClaims(t *testing.T) {
	tests := []struct {
		roles []string
		want  entities.Scope
		admin bool
	}{
		{nil, entities.PublicScope(), false},
		{[]string{RoleMember}, entities.MembersScope(), false},
		{[]string{RoleMember, RoleAdmin}, entities.FullScope(), true},
	}
	for _, tt := range tests {
		v := ViewerFromClaims(&Claims{UserID: "ada", Roles: tt.roles})
		assert.Equal(t, tt.want, v.Scope)
		assert.Equal(t, tt.admin, v.IsAdmin())
	}
}

func TestViewerContext(t *testing.T) {
	assert.Equal(t, Anonymous(), ViewerFrom(context.Background()))
	assert.True(t, ViewerFrom(context.Background()).IsAnonymous())

	v := Viewer{UserID: "ada", Roles: []string{RoleAdmin}, Scope: entities.FullScope()}
	assert.Equal(t, v, ViewerFrom(WithViewer(context.Background(), v)))
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(2)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"), "burst exhausted")
	assert.True(t, l.Allow("5.6.7.8"), "keys are independent")

	clock = clock.Add(30 * time.Second)
	assert.True(t, l.Allow("1.2.3.4"), "one token refilled")

	l.Reset("1.2.3.4")
	assert.Equal(t, 1, l.Len())
}

func TestRateLimiter_Evict(t *testing.T) {
	l := NewRateLimiter(60)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	l.Allow("old")
	clock = clock.Add(11 * time.Minute)
	l.Allow("fresh")

	assert.Equal(t, 1, l.Evict())
	assert.Equal(t, 1, l.Len())
}
