package security

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CSRFTokenTTL is the lifetime of an issued CSRF token.
const CSRFTokenTTL = 5 * time.Minute

// AuthClaims is the payload carried by a signed auth token.
type AuthClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// CSRFToken is a short-lived anti-forgery artifact bound to one user and
// one session.
type CSRFToken struct {
	Value     string
	UserID    string
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenManager issues and validates the two bearer artifact families: the
// long-lived signed auth token and the short-lived session-bound CSRF token.
type TokenManager struct {
	signingKey []byte
	authTTL    time.Duration

	mu   sync.Mutex
	csrf map[string]CSRFToken
	now  func() time.Time
}

// NewTokenManager builds a TokenManager signing auth tokens with key for
// authTTL. A non-positive TTL falls back to 24h.
func NewTokenManager(key string, authTTL time.Duration) *TokenManager {
	if authTTL <= 0 {
		authTTL = 24 * time.Hour
	}
	return &TokenManager{
		signingKey: []byte(key),
		authTTL:    authTTL,
		csrf:       make(map[string]CSRFToken),
		now:        time.Now,
	}
}

// AuthTTL exposes the configured auth token lifetime.
func (m *TokenManager) AuthTTL() time.Duration {
	return m.authTTL
}

// SignAuthToken issues a signed bearer token for the user.
func (m *TokenManager) SignAuthToken(userID, role string) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.authTTL)),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(m.signingKey)
}

// ValidateAuthToken is total: it returns nil for malformed, tampered,
// expired or wrongly signed input and the claims otherwise. Callers branch
// on nil; there is no error to inspect.
func (m *TokenManager) ValidateAuthToken(token string) *AuthClaims {
	if token == "" {
		return nil
	}
	parsed, err := jwt.ParseWithClaims(token, &AuthClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil
	}
	claims, ok := parsed.Claims.(*AuthClaims)
	if !ok {
		return nil
	}
	return claims
}

// GenerateCSRF issues a CSRF token bound to userID and sessionID.
func (m *TokenManager) GenerateCSRF(userID, sessionID string) CSRFToken {
	now := m.now()
	token := CSRFToken{
		Value:     uuid.NewString(),
		UserID:    userID,
		SessionID: sessionID,
		IssuedAt:  now,
		ExpiresAt: now.Add(CSRFTokenTTL),
	}
	m.mu.Lock()
	m.csrf[token.Value] = token
	m.mu.Unlock()
	return token
}

// ValidateCSRF reports whether value names a live token bound to exactly
// this user and session. Any mismatch is a silent false. Expired tokens are
// evicted on the failed lookup.
func (m *TokenManager) ValidateCSRF(value, userID, sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.csrf[value]
	if !ok {
		return false
	}
	if m.now().After(token.ExpiresAt) {
		delete(m.csrf, value)
		return false
	}
	return token.UserID == userID && token.SessionID == sessionID
}

// SweepCSRF evicts expired CSRF tokens.
func (m *TokenManager) SweepCSRF(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for value, token := range m.csrf {
		if now.After(token.ExpiresAt) {
			delete(m.csrf, value)
			removed++
		}
	}
	return removed
}
