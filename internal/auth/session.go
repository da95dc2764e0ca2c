// Package auth holds the credential hashing and session token primitives.
//
// Sessions are stateless: a signed token in an HTTP-only cookie carries the
// user id and name, so the server keeps no session table and a restart does
// not log anyone out.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tally/internal/core"
)

// SessionCookie is the name of the cookie carrying the signed session token.
const SessionCookie = "tally_session"

// ErrInvalidSession covers expired, tampered and malformed tokens alike;
// callers treat every one of them as "not signed in".
var ErrInvalidSession = errors.New("invalid session")

// Identity is the authenticated principal attached to a request.
type Identity struct {
	UserID   int64
	Username string
}

type sessionClaims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies the signed tokens stored in the
// session cookie.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured session lifetime, used for the cookie expiry.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a session token for the given user.
func (m *SessionManager) Issue(user core.User) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "tally",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses a token and returns the identity it carries. Bad signature,
// expiry and wrong signing method all come back as ErrInvalidSession.
func (m *SessionManager) Verify(tokenString string) (Identity, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidSession
	}
	if claims.UserID == 0 {
		return Identity{}, ErrInvalidSession
	}
	return Identity{UserID: claims.UserID, Username: claims.Username}, nil
}
