package security

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTokenRoundTrip(t *testing.T) {
	InitJWT([]byte("test-secret"), time.Hour)

	token, err := GenerateToken("user-1", "admin")
	require.NoError(t, err)

	decoded, err := TokenAuth.Decode(token)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	claims, err := decoded.AsMap(ctx)
	require.NoError(t, err)

	id, err := GetUserIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	role, err := GetUserRoleFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "admin", role)
}

func TestClaimsMissing(t *testing.T) {
	_, err := GetUserIDFromClaims(map[string]interface{}{})
	assert.Error(t, err)
	_, err = GetUserRoleFromClaims(map[string]interface{}{"role": 7})
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("s3cret", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}
