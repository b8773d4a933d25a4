package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Unknown-086/GhostSwitch/pkg/audit"
	"github.com/Unknown-086/GhostSwitch/pkg/identity"
	"github.com/Unknown-086/GhostSwitch/pkg/server/store"
	"github.com/Unknown-086/GhostSwitch/pkg/session"
)

// Messages returned to clients whose bearer token is refused.
const (
	MsgTokenRequired   = "Authentication token required"
	MsgHeaderFormat    = "Invalid authorization header format"
	MsgTokenExpired    = "Token has expired"
	MsgTokenInvalid    = "Invalid token"
	MsgUserNotFound    = "User not found"
	MsgValidationError = "Token validation error"
)

// TokenValidator turns a bearer token into a verified identity.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*identity.Identity, error)
}

// BearerAuthenticator is middleware that requires an
// "Authorization: Bearer <token>" header.
type BearerAuthenticator struct {
	Validator TokenValidator
}

// NewBearerAuthenticator creates the bearer token middleware.
func NewBearerAuthenticator(v TokenValidator) *BearerAuthenticator {
	return &BearerAuthenticator{Validator: v}
}

// Middleware returns an HTTP middleware that validates bearer tokens and
// stores the caller's identity in the request context.
func (b *BearerAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			reject(w, r, http.StatusUnauthorized, MsgTokenRequired)
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || scheme != "Bearer" || token == "" || strings.ContainsRune(token, ' ') {
			reject(w, r, http.StatusUnauthorized, MsgHeaderFormat)
			return
		}

		id, err := b.Validator.Validate(r.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, session.ErrTokenExpired):
			reject(w, r, http.StatusUnauthorized, MsgTokenExpired)
			return
		case errors.Is(err, session.ErrTokenMalformed), errors.Is(err, session.ErrTokenInvalidSignature):
			reject(w, r, http.StatusUnauthorized, MsgTokenInvalid)
			return
		case errors.Is(err, store.ErrUserNotFound):
			reject(w, r, http.StatusUnauthorized, MsgUserNotFound)
			return
		default:
			logrus.WithError(err).WithField("request_id", RequestID(r)).Error("Token validation failed")
			reject(w, r, http.StatusInternalServerError, MsgValidationError)
			return
		}

		id.WithRemoteIP(RemoteIP(r)).WithRequestID(RequestID(r))
		next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
	})
}

// RemoteIP returns the client address of the request without its port.
func RemoteIP(r *http.Request) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}

func reject(w http.ResponseWriter, r *http.Request, code int, message string) {
	if code == http.StatusUnauthorized {
		audit.Log(audit.TokenRejectedEvent{
			ClientIP: ClientIP(r),
			Path:     r.URL.Path,
			Reason:   message,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// ClientIP is RemoteIP as a string, or "" when the address is unparsable.
func ClientIP(r *http.Request) string {
	if ip := RemoteIP(r); ip != nil {
		return ip.String()
	}
	return ""
}
