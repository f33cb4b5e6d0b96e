package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/bkopanichuk/ems/internal/auth/service TokenGenerator

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenGenerator issues the access/refresh pair. The access token is a signed
// JWT verified statelessly downstream; the refresh token is an opaque random
// string whose only meaning is as a session-store lookup key.
type TokenGenerator interface {
	Generate(userID, login, role string) (accessToken, refreshToken string, err error)
	AccessExpiry() time.Duration
	RefreshExpiry() time.Duration
	VerifyAccessToken(tokenString string) (*JWTCustomClaims, error)
}

type TokenService struct {
	accessSecret  string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	Login string `json:"login"`
	Role  string `json:"role"`
}

func NewTokenService(accessSecret string, accessMinutes, refreshDays int) *TokenService {
	return &TokenService{
		accessSecret:  accessSecret,
		accessExpiry:  time.Duration(accessMinutes) * time.Minute,
		refreshExpiry: time.Duration(refreshDays) * 24 * time.Hour,
	}
}

func (ts *TokenService) Generate(userID, login, role string) (string, string, error) {
	now := time.Now().UTC()

	claims := JWTCustomClaims{
		Login: login,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.accessSecret))
	if err != nil {
		return "", "", err
	}

	refreshToken, err := newOpaqueToken()
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func (ts *TokenService) AccessExpiry() time.Duration {
	return ts.accessExpiry
}

func (ts *TokenService) RefreshExpiry() time.Duration {
	return ts.refreshExpiry
}

// VerifyAccessToken parses and validates the given access token string.
func (ts *TokenService) VerifyAccessToken(tokenString string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ts.accessSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// newOpaqueToken returns 32 bytes of crypto/rand entropy as base64url.
func newOpaqueToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
