// Package auth keeps dashboard logins as server-side sessions. The browser
// holds only an HMAC-signed session id; every protected request reloads the
// session from the store, so a deleted or expired session stops working at
// once.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/diewo77/eventdesk/httpx"
	"github.com/diewo77/eventdesk/internal/logger"
	"github.com/diewo77/eventdesk/internal/models"
	"github.com/diewo77/eventdesk/internal/store"
	"github.com/diewo77/eventdesk/internal/upstream"
)

const CookieName = "eventdesk_session"

// Principal is the logged-in user attached to a request.
type Principal struct {
	SessionID string
	AccountID int64
	Username  string
	Email     string
	Role      string
}

type ctxKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok && p.SessionID != ""
}

// Manager creates, resolves and ends sessions.
type Manager struct {
	secret   []byte
	sessions store.Sessions
	ttl      time.Duration
	secure   bool
	now      func() time.Time
	onEnd    func(ctx context.Context, sessionID string) error
}

func NewManager(secret string, sessions store.Sessions, ttl time.Duration, secureCookie bool) *Manager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{secret: []byte(secret), sessions: sessions, ttl: ttl, secure: secureCookie, now: time.Now}
}

// OnEnd registers fn to run with the id of every session that ends, by
// logout, by an upstream rejection or found expired on a later request.
func (m *Manager) OnEnd(fn func(ctx context.Context, sessionID string) error) {
	m.onEnd = fn
}

func (m *Manager) ended(ctx context.Context, id string) {
	if m.onEnd == nil {
		return
	}
	if err := m.onEnd(ctx, id); err != nil {
		logger.FromContext(ctx).Warn("session data not purged", zap.String("session", id), zap.Error(err))
	}
}

// Start records a session for a successful upstream login and sets the
// cookie. The session never outlives the upstream token when the token
// carries an expiry.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, login *upstream.LoginResult) (*models.Session, error) {
	expires := m.now().Add(m.ttl)
	if exp, ok := TokenExpiry(login.Token); ok && exp.Before(expires) {
		expires = exp
	}
	if !expires.After(m.now()) {
		return nil, errors.New("upstream token already expired")
	}

	sess := &models.Session{
		ID:              uuid.NewString(),
		AccountID:       login.Account.ID,
		Username:        login.Account.Username,
		Email:           login.Account.Email,
		Role:            strings.ToLower(login.Account.Role),
		UpstreamToken:   login.Token,
		UpstreamCookies: upstream.EncodeCookies(login.Cookies),
		ExpiresAt:       expires,
	}
	if err := m.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    m.sign(sess.ID),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})
	return sess, nil
}

// End deletes the session of r, if any, and clears the cookie.
func (m *Manager) End(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	m.clearCookie(w)
	id, ok := m.sessionID(r)
	if !ok {
		return nil
	}
	if err := m.sessions.Delete(ctx, id); err != nil {
		return err
	}
	m.ended(ctx, id)
	return nil
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) sign(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// sessionID returns the verified session id carried by r's cookie.
func (m *Manager) sessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	id, sig, found := strings.Cut(c.Value, ".")
	if !found || id == "" {
		return "", false
	}
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	expected := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", false
	}
	return id, true
}

// Middleware loads the session named by the cookie and attaches the
// principal, the upstream credentials and a user-tagged logger to the
// request context. Unknown or expired sessions get their cookie cleared.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := m.sessionID(r)
		if !ok {
			if _, err := r.Cookie(CookieName); err == nil {
				m.clearCookie(w)
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		sess, err := m.sessions.Get(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				m.ended(ctx, id)
			} else {
				logger.FromContext(ctx).Error("session lookup failed", zap.Error(err))
			}
			m.clearCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		ctx = WithPrincipal(ctx, Principal{
			SessionID: sess.ID,
			AccountID: sess.AccountID,
			Username:  sess.Username,
			Email:     sess.Email,
			Role:      sess.Role,
		})
		ctx = upstream.WithCredentials(ctx, upstream.Credentials{
			Token:   sess.UpstreamToken,
			Cookies: upstream.DecodeCookies(sess.UpstreamCookies),
		})
		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(zap.String("user", sess.Username)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth sends anonymous requests to /login, or answers 401 to JSON
// clients.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFrom(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, r, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		target := "/login"
		if r.Method == http.MethodGet && r.URL.Path != "/" {
			target += "?next=" + url.QueryEscape(r.URL.RequestURI())
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}

// SafeNext returns next when it is a local path, else fallback. It keeps
// the post-login redirect from leaving the site.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

// TokenExpiry reads the exp claim of a JWT without verifying it. The token
// is only replayed to its issuer, so the claim is just a hint for how long
// the local session may last.
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
