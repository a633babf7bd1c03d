package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/swiftparcel/parceld/pkg/constants"
)

// SessionManager issues and validates opaque HMAC-signed session ids
// carried in a cookie. The id itself is random; the signature only proves
// this process minted it.
type SessionManager struct {
	secret    []byte
	cookieKey string
	maxAge    time.Duration
}

func NewSessionManager(secret, cookieKey string, maxAge time.Duration) *SessionManager {
	return &SessionManager{secret: []byte(secret), cookieKey: cookieKey, maxAge: maxAge}
}

func (m *SessionManager) CreateSessionID() string {
	id := uuid.New().String()
	return id + "." + m.sign(id)
}

func (m *SessionManager) ValidateSessionID(sessionID string) bool {
	idx := strings.LastIndexByte(sessionID, '.')
	if idx <= 0 {
		return false
	}
	id, sig := sessionID[:idx], sessionID[idx+1:]
	return hmac.Equal([]byte(sig), []byte(m.sign(id)))
}

func (m *SessionManager) sign(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Middleware guarantees every request carries a valid session id: an
// absent or tampered cookie is replaced with a fresh one, and the id is
// stored in the request context either way.
func (m *SessionManager) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if c, err := r.Cookie(m.cookieKey); err == nil {
				sessionID = c.Value
			}
			if sessionID == "" || !m.ValidateSessionID(sessionID) {
				sessionID = m.CreateSessionID()
				http.SetCookie(w, &http.Cookie{
					Name:     m.cookieKey,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(m.maxAge.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := context.WithValue(r.Context(), constants.SessionIDKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UseSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(constants.SessionIDKey).(string); ok {
		return id
	}
	return ""
}
