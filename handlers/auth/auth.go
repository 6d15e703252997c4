package auth

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"designer-pro/core"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// DefaultTokenTTL is the lifetime of tokens issued by CreateJWT.
const DefaultTokenTTL = time.Hour * 24 * 7 // 1 week

var (
	secretMu  sync.RWMutex
	jwtSecret []byte

	ErrNoSecret = errors.New("JWT_SECRET is not set")
)

// AppClaims represents the custom claims for the JWT.
type AppClaims struct {
	jwt.RegisteredClaims
	Email string    `json:"email,omitempty"`
	Name  string    `json:"name"`
	Role  core.Role `json:"role"`
}

// User returns the identity carried by the claims.
func (c *AppClaims) User() *core.User {
	return &core.User{Subject: c.Subject, Email: c.Email, Name: c.Name, Role: c.Role}
}

// InitAuth reads JWT_SECRET. Sessions are issued by the shop's login
// service; this server only verifies them.
func InitAuth() {
	SetSecret([]byte(os.Getenv("JWT_SECRET")))
	if len(secret()) == 0 {
		logrus.Warn("JWT_SECRET is not set. Authentication will not work.")
	}
}

// SetSecret replaces the HMAC key.
func SetSecret(s []byte) {
	secretMu.Lock()
	defer secretMu.Unlock()
	jwtSecret = s
}

func secret() []byte {
	secretMu.RLock()
	defer secretMu.RUnlock()
	return jwtSecret
}

// CreateJWT signs a token for user valid for ttl.
func CreateJWT(user *core.User, ttl time.Duration) (string, error) {
	key := secret()
	if len(key) == 0 {
		return "", ErrNoSecret
	}
	now := time.Now()
	claims := AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

func ParseJWT(tokenString string) (*AppClaims, error) {
	key := secret()
	if len(key) == 0 {
		return nil, ErrNoSecret
	}
	token, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AppClaims); ok && token.Valid && claims.Subject != "" {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
