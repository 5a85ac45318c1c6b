package mockapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AddAccount registers an account and returns its id. Passwords are kept in
// clear: this server only ever holds fixtures.
func (s *Server) AddAccount(username, email, role, password string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.accounts = append(s.accounts, Account{ID: s.nextID, Username: username, Email: email, Role: role, Password: password})
	return s.nextID
}

// Accounts returns the registered accounts without passwords.
func (s *Server) Accounts() []Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publicAccountsLocked()
}

func (s *Server) publicAccountsLocked() []Account {
	out := make([]Account, len(s.accounts))
	for i, a := range s.accounts {
		a.Password = ""
		out[i] = a
	}
	return out
}

// IssueToken signs a token for account id, as /logIn does.
func (s *Server) IssueToken(id int64, role string) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   idString(id),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	})
	return tok.SignedString(s.secret)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	var found *Account
	for i := range s.accounts {
		a := &s.accounts[i]
		if strings.EqualFold(a.Email, req.Email) || a.Username == req.Email {
			found = a
			break
		}
	}
	if found == nil || found.Password != req.Password {
		s.mu.Unlock()
		fail(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	user := *found
	user.Password = ""
	sid := uuid.NewString()
	s.sessions[sid] = user.ID
	s.mu.Unlock()

	token, err := s.IssueToken(user.ID, user.Role)
	if err != nil {
		fail(w, r, http.StatusInternalServerError, "could not sign token")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: sid, Path: "/", HttpOnly: true})
	ok(w, r, http.StatusOK, map[string]any{"user": user, "token": token})
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var req Account
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		fail(w, r, http.StatusBadRequest, "username, email and password are required")
		return
	}
	if req.Role == "" {
		req.Role = "staff"
	}

	s.mu.Lock()
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, req.Email) {
			s.mu.Unlock()
			fail(w, r, http.StatusConflict, "Email already registered")
			return
		}
	}
	s.mu.Unlock()

	id := s.AddAccount(req.Username, req.Email, req.Role, req.Password)
	req.ID = id
	req.Password = ""
	ok(w, r, http.StatusCreated, req)
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok(w, r, http.StatusOK, s.publicAccountsLocked())
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	var req Account
	if err := render.DecodeJSON(r.Body, &req); err != nil || req.ID == 0 {
		fail(w, r, http.StatusBadRequest, "id is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		a := &s.accounts[i]
		if a.ID != req.ID {
			continue
		}
		if req.Username != "" {
			a.Username = req.Username
		}
		if req.Email != "" {
			a.Email = req.Email
		}
		if req.Role != "" {
			a.Role = req.Role
		}
		if req.Password != "" {
			a.Password = req.Password
		}
		out := *a
		out.Password = ""
		ok(w, r, http.StatusOK, out)
		return
	}
	fail(w, r, http.StatusNotFound, "account not found")
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID any `json:"id"`
	}
	if err := render.DecodeJSON(r.Body, &req); err != nil || idString(req.ID) == "" {
		fail(w, r, http.StatusBadRequest, "id is required")
		return
	}
	id := idString(req.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.accounts {
		if idString(a.ID) == id {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			ok(w, r, http.StatusOK, map[string]string{"id": id})
			return
		}
	}
	fail(w, r, http.StatusNotFound, "account not found")
}

// requireAuth accepts a valid bearer token or the session cookie.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := bearer(r); raw != "" {
			_, err := jwt.ParseWithClaims(raw, &claims{}, func(*jwt.Token) (any, error) { return s.secret, nil },
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}
		if ck, err := r.Cookie(SessionCookie); err == nil {
			s.mu.Lock()
			_, found := s.sessions[ck.Value]
			s.mu.Unlock()
			if found {
				next.ServeHTTP(w, r)
				return
			}
		}
		fail(w, r, http.StatusUnauthorized, "Unauthorized")
	})
}
