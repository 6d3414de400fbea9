package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims mirrors the session token payload: _id and email both carry the
// user's email, which is also the registered subject.
type Claims struct {
	UserID string `json:"_id"`
	Email  string `json:"email"`
	jwtlib.RegisteredClaims
}

func GenerateToken(email string, secret []byte, ttl time.Duration) (string, error) {
	return generateAt(email, secret, ttl, time.Now())
}

func generateAt(email string, secret []byte, ttl time.Duration, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret is empty")
	}
	claims := Claims{
		UserID: email,
		Email:  email,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenString, &Claims{}, func(token *jwtlib.Token) (interface{}, error) {
		if token.Method.Alg() != jwtlib.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwtlib.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Email == "" {
		claims.Email = claims.Subject
	}
	if claims.Email == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
