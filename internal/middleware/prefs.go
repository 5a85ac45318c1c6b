// Package middleware holds the request decorators shared by every page:
// language and theme preferences, one-shot flash notifications and login
// throttling.
package middleware

import (
	"context"
	"net/http"

	"github.com/diewo77/eventdesk/i18n"
)

type ctxKey string

const (
	ctxTheme ctxKey = "pref_theme"

	langCookie  = "lang"
	themeCookie = "theme"
	prefMaxAge  = 86400 * 30
)

var themes = map[string]bool{"system": true, "light": true, "dark": true}

// Prefs extracts language/theme preferences (query > cookie > header) and
// stores them in context. Query-provided prefs are persisted in cookies.
func Prefs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		if c, err := r.Cookie(langCookie); err == nil {
			lang = c.Value
		}
		if ql := r.URL.Query().Get("lang"); ql != "" && i18n.Supported(ql) {
			lang = ql
			http.SetCookie(w, &http.Cookie{Name: langCookie, Value: lang, Path: "/", MaxAge: prefMaxAge, SameSite: http.SameSiteLaxMode})
		}
		if !i18n.Supported(lang) {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}

		theme := "system"
		if c, err := r.Cookie(themeCookie); err == nil && themes[c.Value] {
			theme = c.Value
		}
		if qt := r.URL.Query().Get("theme"); themes[qt] {
			theme = qt
			http.SetCookie(w, &http.Cookie{Name: themeCookie, Value: theme, Path: "/", MaxAge: prefMaxAge, SameSite: http.SameSiteLaxMode})
		}

		ctx := i18n.WithLang(r.Context(), lang)
		ctx = context.WithValue(ctx, ctxTheme, theme)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LangFrom returns the request language.
func LangFrom(r *http.Request) string {
	return i18n.LangFromContext(r.Context())
}

// ThemeFrom returns theme preference from context or fallback.
func ThemeFrom(r *http.Request) string {
	if v, ok := r.Context().Value(ctxTheme).(string); ok && v != "" {
		return v
	}
	return "system"
}
