package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/diewo77/eventdesk/i18n"
)

const flashCookie = "flash"

// maxFlashDetail bounds the upstream text kept in a notification so the
// escaped cookie stays well under the 4 KB browsers accept.
const maxFlashDetail = 500

// Flash levels.
const (
	LevelSuccess = "success"
	LevelError   = "error"
)

// FlashMessage is a notification shown once on the next rendered page.
type FlashMessage struct {
	Level   string
	Message string
}

// NewFlash builds a translated message for the page being rendered now.
// detail, when given, is appended verbatim; it carries the upstream's own
// error text.
func NewFlash(r *http.Request, level, code string, detail ...string) *FlashMessage {
	msg := i18n.T(LangFrom(r), code)
	if d := strings.TrimSpace(strings.Join(detail, " ")); d != "" {
		msg += " : " + truncate(d, maxFlashDetail)
	}
	if level != LevelError {
		level = LevelSuccess
	}
	return &FlashMessage{Level: level, Message: msg}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s + "…"
}

// Flash stores a NewFlash message in a cookie for the next rendered page.
func Flash(w http.ResponseWriter, r *http.Request, level, code string, detail ...string) {
	f := NewFlash(r, level, code, detail...)
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(f.Level + "|" + f.Message),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// TakeFlash returns the pending flash message, if any, and clears it so it
// is rendered exactly once.
func TakeFlash(w http.ResponseWriter, r *http.Request) *FlashMessage {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	level, msg, ok := strings.Cut(raw, "|")
	if !ok || msg == "" {
		return nil
	}
	if level != LevelError {
		level = LevelSuccess
	}
	return &FlashMessage{Level: level, Message: msg}
}
