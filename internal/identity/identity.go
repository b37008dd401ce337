// Package identity verifies session tokens issued by the external identity
// provider. Sign-up, sign-in and password flows live with the provider; the
// client only needs the sender uid out of a bearer token.
package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt"
	"github.com/EzRa021/Muhu-voice-app/internal/boot"
	"github.com/EzRa021/Muhu-voice-app/internal/model"
)

type verifier struct {
	secret []byte
}

func New(config *boot.Config) *verifier {
	return &verifier{secret: []byte(config.SessionSecret)}
}

// Verify checks the token signature and returns the subject uid.
func (v *verifier) Verify(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", model.ErrorInvalidSession
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", model.ErrorInvalidSession
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", model.ErrorInvalidSession
	}
	return sub, nil
}
