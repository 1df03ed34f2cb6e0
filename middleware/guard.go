package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	goNotes "github.com/MrEthical07/goNotes"
)

// Authorizer resolves an access token to its user. *goNotes.Engine
// implements it.
type Authorizer interface {
	Authorize(ctx context.Context, accessToken string) (goNotes.User, error)
}

type userContextKey struct{}

// UserFromContext returns the user stored by [Guard].
func UserFromContext(ctx context.Context) (goNotes.User, bool) {
	u, ok := ctx.Value(userContextKey{}).(goNotes.User)
	return u, ok
}

// WithUser stores u the same way [Guard] does. Useful in handler tests.
func WithUser(ctx context.Context, u goNotes.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// Guard rejects requests without a usable bearer access token. Token
// failures answer 401; store failures answer with goNotes.StatusCode.
func Guard(auth Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				unauthorized(w)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w)
				return
			}

			user, err := auth.Authorize(r.Context(), token)
			if err != nil {
				status := goNotes.StatusCode(err)
				if status == http.StatusUnauthorized {
					unauthorized(w)
					return
				}
				writeDetail(w, status, http.StatusText(status))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func bearerToken(value string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
