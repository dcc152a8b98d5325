package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.NoError(t, h.Verify(hash, "hunter22"))
	assert.ErrorIs(t, h.Verify(hash, "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, h.Verify("not-a-hash", "hunter22"), ErrInvalidCredentials)
}

func TestNewHasherClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(1).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(99).cost)
}

func newTestTokens() *Tokens {
	return NewTokens("0123456789abcdef0123", time.Hour, 24*time.Hour)
}

func TestTokensRoundTrip(t *testing.T) {
	tok := newTestTokens()
	pair, err := tok.Issue(Identity{UserID: 42, Email: "a@b.test"})
	require.NoError(t, err)

	id, err := tok.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 42, Email: "a@b.test"}, id)

	id, err = tok.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.EqualValues(t, 42, id.UserID)
}

func TestTokensRejectWrongKind(t *testing.T) {
	tok := newTestTokens()
	pair, err := tok.Issue(Identity{UserID: 1})
	require.NoError(t, err)

	_, err = tok.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = tok.VerifyRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokensRejectExpired(t *testing.T) {
	tok := newTestTokens()
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tok.now = func() time.Time { return issued }
	pair, err := tok.Issue(Identity{UserID: 1})
	require.NoError(t, err)

	tok.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = tok.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tok.VerifyRefresh(pair.RefreshToken)
	assert.NoError(t, err, "refresh token outlives the access token")
}

func TestTokensRejectForeignSecret(t *testing.T) {
	pair, err := NewTokens("another-secret-value!", time.Hour, time.Hour).Issue(Identity{UserID: 1})
	require.NoError(t, err)
	_, err = newTestTokens().VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = newTestTokens().VerifyAccess("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		header string
		want   string
		err    error
	}{
		"valid":        {"Bearer abc.def", "abc.def", nil},
		"lower scheme": {"bearer abc", "abc", nil},
		"missing":      {"", "", ErrMissingToken},
		"basic":        {"Basic dXNlcg==", "", ErrMissingToken},
		"empty token":  {"Bearer   ", "", ErrMissingToken},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			got, err := BearerToken(r)
			assert.Equal(t, tc.want, got)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFrom(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{UserID: 5})
	id, ok := IdentityFrom(ctx)
	assert.True(t, ok)
	assert.EqualValues(t, 5, id.UserID)
}
