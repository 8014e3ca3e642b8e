package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fieldops/backoffice-api/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://login.example.com/tenant/v2.0"
	testAudience = "api://backoffice"
)

type jwksServer struct {
	*httptest.Server
	key     *rsa.PrivateKey
	kid     string
	fetches atomic.Int32
}

func newJWKSServer(t *testing.T) *jwksServer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	s := &jwksServer{key: key, kid: "key-1"}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.fetches.Add(1)
		e := big.NewInt(int64(key.PublicKey.E)).Bytes()
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []map[string]string{{
				"kid": s.kid,
				"kty": "RSA",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(e),
			}},
		})
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *jwksServer) sign(t *testing.T, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(s.key)
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":   testIssuer,
		"aud":   testAudience,
		"oid":   "object-id-1",
		"sub":   "subject-1",
		"email": "Tech.One@Example.com",
		"name":  "Tech One",
		"scp":   "backoffice.read backoffice.write",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func TestJWTValidator(t *testing.T) {
	srv := newJWKSServer(t)
	v := NewJWTValidator(&config.IdentityConfig{
		Issuer:         testIssuer,
		Audience:       testAudience,
		JWKSURL:        srv.URL,
		RequiredScopes: "backoffice.write",
	})
	ctx := context.Background()

	identity, err := v.ValidateToken(ctx, srv.sign(t, srv.kid, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "object-id-1", identity.Subject)
	assert.Equal(t, "tech.one@example.com", identity.Email)
	assert.Equal(t, "Tech One", identity.DisplayName)

	// keys are cached between calls
	_, err = v.ValidateToken(ctx, srv.sign(t, srv.kid, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.fetches.Load())

	tests := []struct {
		name   string
		mutate func(jwt.MapClaims)
		kid    string
		want   error
	}{
		{"expired", func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Minute).Unix() }, srv.kid, ErrExpiredToken},
		{"wrong audience", func(c jwt.MapClaims) { c["aud"] = "api://other" }, srv.kid, ErrInvalidToken},
		{"wrong issuer", func(c jwt.MapClaims) { c["iss"] = "https://evil.example.com" }, srv.kid, ErrInvalidToken},
		{"missing scope", func(c jwt.MapClaims) { c["scp"] = "backoffice.read" }, srv.kid, ErrInvalidScope},
		{"no subject", func(c jwt.MapClaims) { delete(c, "oid"); delete(c, "sub") }, srv.kid, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := validClaims()
			tt.mutate(claims)
			_, err := v.ValidateToken(ctx, srv.sign(t, tt.kid, claims))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("unknown kid triggers a refresh", func(t *testing.T) {
		before := srv.fetches.Load()
		_, err := v.ValidateToken(ctx, srv.sign(t, "rotated", validClaims()))
		assert.Error(t, err)
		assert.Equal(t, before+1, srv.fetches.Load())
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.ValidateToken(ctx, "not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("signed by another key", func(t *testing.T) {
		other := newJWKSServer(t)
		other.kid = srv.kid
		_, err := v.ValidateToken(ctx, other.sign(t, srv.kid, validClaims()))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestHasRequiredScope(t *testing.T) {
	assert.True(t, HasRequiredScope(nil, ""))
	assert.True(t, HasRequiredScope([]string{"a", "B"}, "x, b"))
	assert.False(t, HasRequiredScope([]string{"a"}, "x,y"))
	assert.Equal(t, []string{"one", "two", "three"}, ExtractScopes(jwt.MapClaims{"scp": "one two", "scope": "three"}))
}
