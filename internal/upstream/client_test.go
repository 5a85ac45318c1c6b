package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/eventdesk/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL + "/api/", Timeout: time.Second}, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
	_, err = NewClient(Config{BaseURL: "localhost:5000"})
	assert.Error(t, err)
}

func TestGet_DecodesEnvelopeAndForwardsCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/events/7/staff", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		ck, err := r.Cookie("connect.sid")
		require.NoError(t, err)
		assert.Equal(t, "abc", ck.Value)
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":1,"first_name":"Ada","evenement_id":7}]}`))
	})

	ctx := WithCredentials(context.Background(), Credentials{
		Token:   "tok",
		Cookies: []*http.Cookie{{Name: "connect.sid", Value: "abc"}},
	})
	staff, err := Get[[]models.Staff](ctx, c, Expand("/events/{event}/staff", map[string]string{"event": "7"}), url.Values{"page": {"2"}})
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, "Ada", staff[0].FirstName)
	assert.Equal(t, int64(7), staff[0].EventID)
}

func TestDo_SuccessFalseIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"Nom déjà utilisé"}`))
	})

	_, err := Send[models.Client](context.Background(), c, http.MethodPost, "/addClient", models.Client{Name: "x"})

	var ue *Error
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusOK, ue.Status)
	assert.Equal(t, "Nom déjà utilisé", Message(err))
}

func TestDo_Non2xx(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := Get[[]models.Team](context.Background(), c, "/teams", nil)

	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Unauthorized", Message(err))
}

func TestDo_InvalidBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})
	_, err := Get[[]models.Team](context.Background(), c, "/teams", nil)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestDo_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	var observed int32 = -1
	c, err := NewClient(Config{BaseURL: base}, WithObserver(func(_, _ string, status int, _ time.Duration) {
		atomic.StoreInt32(&observed, int32(status))
	}))
	require.NoError(t, err)

	_, err = Get[[]models.Car](context.Background(), c, "/cars", nil)
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.Equal(t, "service unavailable", Message(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&observed))
}

func TestDo_NoRetry(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := Get[[]models.Car](context.Background(), c, "/cars", nil)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLogin_CapturesTokenAndCookies(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/logIn", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])
		http.SetCookie(w, &http.Cookie{Name: "connect.sid", Value: "s1"})
		_, _ = w.Write([]byte(`{"success":true,"data":{"user":{"id":3,"username":"ada","email":"ada@example.com","role":"admin"},"token":"jwt"}}`))
	})

	res, err := c.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Account.ID)
	assert.Equal(t, "admin", res.Account.Role)
	assert.Equal(t, "jwt", res.Token)
	require.Len(t, res.Cookies, 1)
	assert.Equal(t, "s1", res.Cookies[0].Value)
}

func TestCookiesRoundTrip(t *testing.T) {
	in := []*http.Cookie{{Name: "a", Value: "1"}, {Name: "b", Value: "x=y"}, {Name: ""}}
	out := DecodeCookies(EncodeCookies(in))
	require.Len(t, out, 2)
	assert.Equal(t, "x=y", out[1].Value)
	assert.Empty(t, DecodeCookies("garbage\n\n"))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "boom", Message(errors.New("boom")))
	assert.Equal(t, "Bad Request", Message(&Error{Status: 400}))
}

func TestExpand(t *testing.T) {
	got := Expand("/events/{event}/workshops/{id}", map[string]string{"event": "a b", "id": "9"})
	assert.Equal(t, "/events/a%20b/workshops/9", got)
}
