package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/ziadkadry99/soassoc/internal/stackexchange"
)

// Paths of the sign-in flow.
const (
	StartPath    = "/oauth/start"
	CallbackPath = "/oauth/callback"
	LogoutPath   = "/oauth/logout"
)

const stateCookie = "soassoc_oauth_state"

// Profiler loads the account behind an access token.
type Profiler interface {
	Me(ctx context.Context, site, accessToken string) (*stackexchange.User, error)
}

// HandlerConfig configures the browser sign-in flow.
type HandlerConfig struct {
	ClientID     string
	ClientSecret string
	// BaseURL is the public URL of the server, used for the redirect URL.
	BaseURL string
	// Site is the site the /me profile is loaded from.
	Site       string
	SessionTTL time.Duration
	// Disabled signs every request in as Anonymous.
	Disabled bool
}

// Handler serves the sign-in flow and the session middleware.
type Handler struct {
	store    *Store
	oauth    *oauth2.Config
	profiler Profiler
	site     string
	ttl      time.Duration
	disabled bool
	secure   bool
	log      *log.Logger
}

// NewHandler creates a Handler. logger may be nil.
func NewHandler(store *Store, cfg HandlerConfig, profiler Profiler, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	return &Handler{
		store:    store,
		oauth:    OAuthConfig(cfg.ClientID, cfg.ClientSecret, base+CallbackPath),
		profiler: profiler,
		site:     cfg.Site,
		ttl:      cfg.SessionTTL,
		disabled: cfg.Disabled,
		secure:   strings.HasPrefix(base, "https://"),
		log:      logger,
	}
}

// RegisterRoutes mounts the sign-in flow on the given router.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get(StartPath, h.handleStart)
	r.Get(CallbackPath, h.handleCallback)
	r.Get(LogoutPath, h.handleLogout)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	if h.disabled {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	state := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/oauth",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusFound)
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(stateCookie)
	if err != nil {
		http.Error(w, "missing oauth state", http.StatusBadRequest)
		return
	}
	code, err := callbackCode(r, c.Value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	token, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		h.log.WithError(err).Warn("oauth exchange failed")
		http.Error(w, "authorization failed", http.StatusBadGateway)
		return
	}

	me, err := h.profiler.Me(r.Context(), h.site, token.AccessToken)
	if err != nil {
		h.log.WithError(err).Warn("loading profile failed")
		http.Error(w, "loading profile failed", http.StatusBadGateway)
		return
	}

	u := &User{
		AccountID:    me.AccountID,
		UserID:       me.UserID,
		DisplayName:  me.DisplayName,
		ProfileImage: me.ProfileImage,
		AccessToken:  token.AccessToken,
	}
	if err := h.store.UpsertUser(r.Context(), u); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	sess, err := h.store.CreateSession(r.Context(), u.ID, h.ttl)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.log.WithFields(log.Fields{"account_id": u.AccountID, "user": u.DisplayName}).Info("user signed in")
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/oauth", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if err := h.store.DeleteSession(r.Context(), c.Value); err != nil {
			h.log.WithError(err).Warn("deleting session failed")
		}
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusFound)
}
