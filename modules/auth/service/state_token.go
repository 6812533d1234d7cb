package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-agenda-sync/core/constants"
	"go-agenda-sync/core/utils"
)

// The OAuth state parameter is a short-lived signed claim set carrying the
// user key, so the callback can be verified statelessly.

func signState(userKey string, secret []byte, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userKey,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(constants.OAuthStateLifetime)),
		ID:        utils.GenerateRandomString(16),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func verifyState(token string, secret []byte, now time.Time) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("state token missing subject")
	}
	return claims.Subject, nil
}
