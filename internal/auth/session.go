// Package auth issues and verifies session tokens. Sessions are self-signed
// HS256 JWTs carrying the user id, the admin flag and the set of folder ids
// the session has unlocked. Unlocking a folder mints a fresh token; the
// server keeps no session state.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
)

// SessionClaims is the JWT payload of one session.
type SessionClaims struct {
	UserID   int64   `json:"uid"`
	IsAdmin  bool    `json:"adm"`
	Unlocked []int64 `json:"unl,omitempty"`
	jwt.RegisteredClaims
}

// UnlockedSet returns the unlocked folder ids as a lookup set.
func (c *SessionClaims) UnlockedSet() map[int64]bool {
	if len(c.Unlocked) == 0 {
		return nil
	}
	set := make(map[int64]bool, len(c.Unlocked))
	for _, id := range c.Unlocked {
		set[id] = true
	}
	return set
}

// SessionManager signs and verifies session tokens with a shared secret.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
}

func NewSessionManager(secret string, ttl time.Duration, logger *slog.Logger) (*SessionManager, error) {
	if len(secret) < 32 {
		return nil, errors.New("session secret must be at least 32 bytes")
	}
	return &SessionManager{secret: []byte(secret), ttl: ttl, logger: logger}, nil
}

// Issue mints a token for the user carrying the given unlocked folder ids.
func (m *SessionManager) Issue(user *models.User, unlocked []int64) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		UserID:   user.ID,
		IsAdmin:  user.IsAdmin,
		Unlocked: unlocked,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Extend reissues a session with one more folder id in its unlocked set.
func (m *SessionManager) Extend(claims *SessionClaims, user *models.User, folderID int64) (string, error) {
	unlocked := claims.Unlocked
	for _, id := range unlocked {
		if id == folderID {
			return m.Issue(user, unlocked)
		}
	}
	return m.Issue(user, append(unlocked, folderID))
}

// Verify parses and validates a token. Only HS256 is accepted; anything
// else, including a tampered or expired token, is ErrUnauthorized.
func (m *SessionManager) Verify(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		m.logger.Debug("session token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.UserID == 0 {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
