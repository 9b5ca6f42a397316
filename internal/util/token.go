package util

import (
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/backlinkflow/backend/pkg/config"
)

type (
	SessionClaims struct {
		UserID string `json:"userId"`
		Email  string `json:"email"`
		jwt.RegisteredClaims
	}
	// SessionInfo is the identity asserted by a verified session cookie.
	SessionInfo struct {
		UserID string `json:"userId"`
		Email  string `json:"email"`
	}
)

type TokenManager struct {
	secretKey string
	ttl       time.Duration
}

var (
	once     sync.Once
	tokenMgr *TokenManager
)

func GetTokenMgr() *TokenManager {
	once.Do(func() {
		authConfig := config.GetConfig().Auth
		tokenMgr = newTokenManager(authConfig.SessionSecret,
			time.Duration(authConfig.SessionTTLHours)*time.Hour)
	})
	return tokenMgr
}

func newTokenManager(secretKey string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secretKey: secretKey,
		ttl:       ttl,
	}
}

// CreateSession signs a session token asserting the given identity.
func (tm *TokenManager) CreateSession(info SessionInfo) (string, error) {
	claims := &SessionClaims{
		UserID: info.UserID,
		Email:  info.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tm.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(tm.secretKey))
}

// CheckSession verifies the token and returns the identity it asserts.
func (tm *TokenManager) CheckSession(requestToken string) (SessionInfo, error) {
	claims := SessionClaims{}
	_, err := jwt.ParseWithClaims(requestToken, &claims, func(_ *jwt.Token) (any, error) {
		return []byte(tm.secretKey), nil
	})
	if err != nil {
		return SessionInfo{}, err
	}
	return SessionInfo{
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}

// TTL is the session lifetime, also used for the cookie max age.
func (tm *TokenManager) TTL() time.Duration { return tm.ttl }
