package auth

import (
	"context"
	"encoding/json"
	"net/http"
)

// SessionCookie carries the session token.
const SessionCookie = "soassoc_session"

// Anonymous is the user of every request when sign-in is disabled.
var Anonymous = &User{ID: "anonymous", DisplayName: "anonymous"}

type ctxKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the signed-in user, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*User)
	return u, ok && u != nil
}

// Middleware loads the user of the session cookie into the request context.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.disabled {
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), Anonymous)))
			return
		}
		c, err := r.Cookie(SessionCookie)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		u, err := h.store.UserForSession(r.Context(), c.Value)
		if err != nil {
			h.log.WithError(err).Debug("ignoring session cookie")
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// RequirePage redirects requests without a user to the sign-in flow.
func RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			http.Redirect(w, r, StartPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAPI answers requests without a user with 401.
func RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "sign in required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
