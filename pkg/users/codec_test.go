package users

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCodec_SignAndVerify(t *testing.T) {
	codec := NewTokenCodec(testSecret, time.Hour)
	user := &User{ID: "user-1", Email: "alice@example.com"}

	token, err := codec.Sign(user)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	identity, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, "alice@example.com", identity.Email)
	assert.Equal(t, token, identity.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), identity.ExpiresAt, 5*time.Second)
}

func TestTokenCodec_ClaimNames(t *testing.T) {
	codec := NewTokenCodec(testSecret, time.Hour)
	token, err := codec.Sign(&User{ID: "user-1", Email: "a@example.com"})
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["id"])
	assert.Equal(t, "a@example.com", claims["email"])
	assert.Contains(t, claims, "exp")
	assert.NotEmpty(t, claims["jti"])
}

func TestTokenCodec_SameInstantTokensDiffer(t *testing.T) {
	codec := NewTokenCodec(testSecret, time.Hour)
	fixed := time.Now()
	codec.now = func() time.Time { return fixed }
	user := &User{ID: "user-1", Email: "alice@example.com"}

	first, err := codec.Sign(user)
	require.NoError(t, err)
	second, err := codec.Sign(user)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestTokenCodec_Rejects(t *testing.T) {
	codec := NewTokenCodec(testSecret, time.Hour)
	user := &User{ID: "user-1", Email: "alice@example.com"}
	token, err := codec.Sign(user)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenCodec("other-secret", time.Hour).Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(token, ".")
		parts[1] = parts[1][:len(parts[1])-2] + "AA"
		_, err := codec.Verify(strings.Join(parts, "."))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := codec.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewTokenCodec(testSecret, time.Hour)
		expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		old, err := expired.Sign(user)
		require.NoError(t, err)

		_, err = codec.Verify(old)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other signing method", func(t *testing.T) {
		none := jwt.NewWithClaims(jwt.SigningMethodNone, TokenClaims{UserID: "user-1"})
		raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = codec.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Password123")
	require.NoError(t, err)
	assert.NotEqual(t, "Password123", hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$10$"))

	assert.True(t, VerifyPassword("Password123", hash))
	assert.False(t, VerifyPassword("password123", hash))
	assert.False(t, VerifyPassword("Password123", "not-a-hash"))
}
