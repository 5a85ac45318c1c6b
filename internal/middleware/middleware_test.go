package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runPrefs(r *http.Request) (lang, theme string, rr *httptest.ResponseRecorder) {
	rr = httptest.NewRecorder()
	Prefs(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang, theme = LangFrom(r), ThemeFrom(r)
	})).ServeHTTP(rr, r)
	return lang, theme, rr
}

func TestPrefs(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	lang, theme, _ := runPrefs(r)
	assert.Equal(t, "fr", lang)
	assert.Equal(t, "system", theme)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept-Language", "en-GB,en;q=0.8")
	lang, _, _ = runPrefs(r)
	assert.Equal(t, "en", lang)

	r = httptest.NewRequest(http.MethodGet, "/?lang=en&theme=dark", nil)
	lang, theme, rr := runPrefs(r)
	assert.Equal(t, "en", lang)
	assert.Equal(t, "dark", theme)
	assert.Len(t, rr.Result().Cookies(), 2)

	r = httptest.NewRequest(http.MethodGet, "/?lang=de&theme=neon", nil)
	r.AddCookie(&http.Cookie{Name: "lang", Value: "en"})
	lang, theme, rr = runPrefs(r)
	assert.Equal(t, "en", lang, "unsupported query keeps the cookie")
	assert.Equal(t, "system", theme)
	assert.Empty(t, rr.Result().Cookies())
}

func TestFlash_RoundTripOnce(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()
	Prefs(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Flash(w, r, LevelError, "save_failed", "Email déjà utilisé")
	})).ServeHTTP(rr, r)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	rr2 := httptest.NewRecorder()
	msg := TakeFlash(rr2, next)
	require.NotNil(t, msg)
	assert.Equal(t, LevelError, msg.Level)
	assert.Equal(t, "Échec de l'enregistrement : Email déjà utilisé", msg.Message)

	cleared := rr2.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)

	assert.Nil(t, TakeFlash(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestFlash_LongDetailIsTruncated(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set("Accept-Language", "en")
	rr := httptest.NewRecorder()
	Prefs(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Flash(w, r, LevelError, "delete_failed", strings.Repeat("é", 2000))
	})).ServeHTTP(rr, r)

	var flash *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == flashCookie {
			flash = c
		}
	}
	require.NotNil(t, flash)
	assert.Less(t, len(flash.Value), 4000)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(flash)
	msg := TakeFlash(httptest.NewRecorder(), next)
	require.NotNil(t, msg)
	assert.True(t, utf8.ValidString(msg.Message))
	assert.True(t, strings.HasSuffix(msg.Message, "…"))
	_, detail, _ := strings.Cut(msg.Message, " : ")
	assert.LessOrEqual(t, len(detail), maxFlashDetail+len("…"))
}

func TestLoginLimiter(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewLoginLimiter(6, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"), "burst exhausted")
	assert.True(t, l.Allow("5.6.7.8"), "limits are per address")

	now = now.Add(10 * time.Second)
	assert.True(t, l.Allow("1.2.3.4"), "one token refilled after 10s at 6/min")
}

func TestLoginLimiter_Disabled(t *testing.T) {
	l := NewLoginLimiter(0, 1)
	for i := 0; i < 50; i++ {
		require.True(t, l.Allow("x"))
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.7:5123"
	assert.Equal(t, "10.0.0.7", ClientIP(r))
	r.RemoteAddr = "10.0.0.8"
	assert.Equal(t, "10.0.0.8", ClientIP(r))
}
