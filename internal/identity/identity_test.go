package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/EzRa021/Muhu-voice-app/internal/boot"
	"github.com/EzRa021/Muhu-voice-app/internal/model"
)

func signedToken(t *testing.T, secret, sub string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestVerify(t *testing.T) {
	assert := assert.New(t)

	config := &boot.Config{SessionSecret: "test-secret"}
	v := New(config)

	t.Run("valid token", func(t *testing.T) {
		uid, err := v.Verify(signedToken(t, "test-secret", "user1"))
		assert.Nil(err)
		assert.Equal("user1", uid)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := v.Verify(signedToken(t, "other-secret", "user1"))
		assert.ErrorIs(err, model.ErrorInvalidSession)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := v.Verify("not.a.token")
		assert.ErrorIs(err, model.ErrorInvalidSession)
	})

	t.Run("missing subject", func(t *testing.T) {
		token := jwt.New(jwt.SigningMethodHS256)
		signed, err := token.SignedString([]byte("test-secret"))
		assert.Nil(err)

		_, err = v.Verify(signed)
		assert.ErrorIs(err, model.ErrorInvalidSession)
	})
}
