package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of this type, so no other package can
// read or shadow the user stored in the context.
type contextKey string

const userKey contextKey = "user"

// Messages returned in the 401 body.
const (
	MsgNoToken      = "Access denied. No token provided."
	MsgInvalidToken = "Invalid token"
	MsgTokenExpired = "Token expired"
	MsgUnknownUser  = "Token is valid but user not found"
)

// UserResolver loads the user a verified token refers to.
// The sqlite repository satisfies it.
type UserResolver interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the bearer token from the Authorization header, validates it, loads
// the user and stores it in the request context. Any failure answers 401 with
// a JSON body and stops the chain.
//
// ORDER OF CHECKS:
// The token is verified before the user lookup, so a missing, malformed or
// expired token costs no database read at all.
func RequireAuth(tokens *TokenService, users UserResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := extractBearerToken(r)
			if !ok {
				writeUnauthorized(w, MsgNoToken)
				return
			}

			userID, err := tokens.Validate(raw)
			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					writeUnauthorized(w, MsgTokenExpired)
					return
				}
				writeUnauthorized(w, MsgInvalidToken)
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, apperror.ErrNotFound) {
					writeUnauthorized(w, MsgUnknownUser)
					return
				}
				logger.Error("auth: resolving user", slog.String("userID", userID), slog.String("error", err.Error()))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuth attaches the user when a valid token is present but never
// blocks the request. Handlers check UserFromContext to tell the cases apart.
func OptionalAuth(tokens *TokenService, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw, ok := extractBearerToken(r); ok {
				if userID, err := tokens.Validate(raw); err == nil {
					if user, err := users.GetUserByID(r.Context(), userID); err == nil {
						r = r.WithContext(WithUser(r.Context(), user))
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the authenticated user.
// Returns (nil, false) for anonymous requests.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// extractBearerToken reads "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func extractBearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
