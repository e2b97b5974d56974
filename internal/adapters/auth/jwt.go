// Package auth holds identity verifiers for the join hook.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "huddle"

var (
	ErrMissingToken    = errors.New("identity token missing")
	ErrSubjectMismatch = errors.New("token subject does not match userId")
)

// Claims is what a Huddle identity token carries.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier accepts a claimed userId when the token is an HS256 JWT signed
// with the shared secret whose subject is that userId.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(ctx context.Context, userID, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if token == "" {
		return ErrMissingToken
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject != userID {
		return ErrSubjectMismatch
	}
	return nil
}

// IssueToken signs a token for userID valid for ttl.
func (v *JWTVerifier) IssueToken(userID, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
