package mockapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func call(t *testing.T, s *Server, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr.Code, env
}

func adminToken(t *testing.T, s *Server) string {
	t.Helper()
	code, env := call(t, s, http.MethodPost, "/logIn", "", map[string]string{"email": "admin@example.com", "password": "admin123"})
	require.Equal(t, http.StatusOK, code)
	var data struct {
		Token string  `json:"token"`
		User  Account `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "admin", data.User.Role)
	assert.Empty(t, data.User.Password)
	return data.Token
}

func TestLogin(t *testing.T) {
	s := New()
	adminToken(t, s)

	code, env := call(t, s, http.MethodPost, "/logIn", "", map[string]string{"email": "admin@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)
}

func TestRequiresAuth(t *testing.T) {
	s := New()
	code, env := call(t, s, http.MethodGet, "/clients", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)

	code, _ = call(t, s, http.MethodGet, "/clients", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestSessionCookieAuth(t *testing.T) {
	s := New()
	req := httptest.NewRequest(http.MethodPost, "/logIn", bytes.NewBufferString(`{"email":"admin","password":"admin123"}`))
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)

	req = httptest.NewRequest(http.MethodGet, "/getAcounts", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestScopedCRUD(t *testing.T) {
	s := New()
	tok := adminToken(t, s)

	code, env := call(t, s, http.MethodPost, "/events", tok, map[string]any{"name": "Gala"})
	require.Equal(t, http.StatusCreated, code)
	var ev struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ev))

	code, env = call(t, s, http.MethodPost, "/staff", tok, map[string]any{"first_name": "Ada"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Message, "evenement_id")

	for _, name := range []string{"Ada", "Grace", "Linus"} {
		code, _ = call(t, s, http.MethodPost, "/staff", tok, map[string]any{"first_name": name, "evenement_id": ev.ID})
		require.Equal(t, http.StatusCreated, code)
	}
	_, _ = s.Insert("staff", map[string]any{"first_name": "Other", "evenement_id": 999})

	code, env = call(t, s, http.MethodGet, "/events/"+idString(ev.ID)+"/staff", tok, nil)
	require.Equal(t, http.StatusOK, code)
	var staff []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &staff))
	require.Len(t, staff, 3)

	first := idString(staff[0]["id"])
	code, env = call(t, s, http.MethodPut, "/staff/"+first, tok, map[string]any{"first_name": "Ada L."})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "Ada L.")

	code, _ = call(t, s, http.MethodDelete, "/staff", tok, map[string]any{"ids": []any{staff[1]["id"], staff[2]["id"]}})
	require.Equal(t, http.StatusOK, code)
	code, _ = call(t, s, http.MethodDelete, "/staff/"+first, tok, nil)
	require.Equal(t, http.StatusOK, code)

	assert.Len(t, s.Collection("staff"), 1, "only the record of the other event remains")

	code, _ = call(t, s, http.MethodGet, "/events/424242/staff", tok, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAccounts(t *testing.T) {
	s := New()
	tok := adminToken(t, s)

	code, env := call(t, s, http.MethodPost, "/signUp", "", map[string]any{"username": "bob", "email": "bob@example.com", "password": "pw"})
	require.Equal(t, http.StatusCreated, code)
	var bob Account
	require.NoError(t, json.Unmarshal(env.Data, &bob))
	assert.Equal(t, "staff", bob.Role)

	code, _ = call(t, s, http.MethodPost, "/signUp", "", map[string]any{"username": "bob2", "email": "BOB@example.com", "password": "pw"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = call(t, s, http.MethodPut, "/updateAccount", tok, map[string]any{"id": bob.ID, "role": "manager"})
	require.Equal(t, http.StatusOK, code)

	code, env = call(t, s, http.MethodGet, "/getAcounts", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"role":"manager"`)
	assert.NotContains(t, string(env.Data), "password")

	code, _ = call(t, s, http.MethodDelete, "/deleteAccount", tok, map[string]any{"id": bob.ID})
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, s.Accounts(), 1)
}

func TestFailNext(t *testing.T) {
	s := New()
	tok := adminToken(t, s)

	s.FailNext(http.MethodGet, "/clients", http.StatusOK, "database offline")
	code, env := call(t, s, http.MethodGet, "/clients", tok, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, env.Success)
	assert.Equal(t, "database offline", env.Message)

	code, env = call(t, s, http.MethodGet, "/clients", tok, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success, "failure is one-shot")
	assert.Equal(t, 2, s.Calls(http.MethodGet, "/clients"))
}

func TestSeed(t *testing.T) {
	s := New()
	s.Seed(SeedOptions{Seed: 7, Events: 2, PerEvent: 4, PerGlobal: 3})

	counts := s.Counts()
	assert.Equal(t, 2, counts["events"])
	assert.Equal(t, 8, counts["workshops"])
	assert.Equal(t, 3, counts["cars"])
	assert.Len(t, s.Accounts(), 3)
	assert.Contains(t, s.Names(), "pauses")
}
