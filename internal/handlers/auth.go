package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/diewo77/eventdesk/auth"
	"github.com/diewo77/eventdesk/forms"
	"github.com/diewo77/eventdesk/i18n"
	"github.com/diewo77/eventdesk/internal/logger"
	"github.com/diewo77/eventdesk/internal/metrics"
	"github.com/diewo77/eventdesk/internal/middleware"
	"github.com/diewo77/eventdesk/internal/models"
	"github.com/diewo77/eventdesk/internal/store"
	"github.com/diewo77/eventdesk/internal/upstream"
	"github.com/diewo77/eventdesk/validation"
)

var signupFields = []forms.Field{
	{Name: "username", Label: "field.username", Kind: forms.Text, Rules: "required,min=3"},
	{Name: "email", Label: "field.email", Kind: forms.Email, Rules: "required,email"},
	{Name: "password", Label: "field.password", Kind: forms.Password, Rules: "required,min=6"},
}

type AuthHandler struct {
	auditor
	client   *upstream.Client
	sessions *auth.Manager
	limiter  *middleware.LoginLimiter
	metrics  *metrics.Metrics
}

func NewAuthHandler(client *upstream.Client, sessions *auth.Manager, audit *store.Audit, limiter *middleware.LoginLimiter, m *metrics.Metrics) *AuthHandler {
	if limiter == nil {
		limiter = middleware.NewLoginLimiter(0, 0)
	}
	return &AuthHandler{
		auditor:  auditor{audit: audit},
		client:   client,
		sessions: sessions,
		limiter:  limiter,
		metrics:  m,
	}
}

// Home is the public landing page. Logged-in users go to the dashboard.
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.PrincipalFrom(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	render(w, r, http.StatusOK, "index.html", nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	next := r.FormValue("next")
	if r.Method == http.MethodGet {
		if _, ok := auth.PrincipalFrom(r.Context()); ok {
			http.Redirect(w, r, auth.SafeNext(next, "/dashboard"), http.StatusSeeOther)
			return
		}
		render(w, r, http.StatusOK, "login.html", map[string]any{"Next": next, "Identifier": "", "Error": ""})
		return
	}

	lang := middleware.LangFrom(r)
	identifier := r.FormValue("identifier")
	password := r.FormValue("password")
	fail := func(status int, msg string) {
		render(w, r, status, "login.html", map[string]any{"Next": next, "Identifier": identifier, "Error": msg})
	}

	if !h.limiter.Allow(middleware.ClientIP(r)) {
		h.metrics.Login("throttled")
		fail(http.StatusTooManyRequests, i18n.T(lang, "login_throttled"))
		return
	}
	if identifier == "" || password == "" {
		h.metrics.Login("failed")
		fail(http.StatusUnprocessableEntity, i18n.T(lang, "login_failed"))
		return
	}

	res, err := h.client.Login(r.Context(), identifier, password)
	if err != nil {
		h.metrics.Login("failed")
		if s := upstream.StatusOf(err); s >= 400 && s < 500 {
			fail(http.StatusUnauthorized, i18n.T(lang, "login_failed"))
			return
		}
		logger.FromContext(r.Context()).Warn("upstream login failed", zap.Error(err))
		fail(http.StatusBadGateway, i18n.T(lang, "upstream_unreachable"))
		return
	}

	if _, err := h.sessions.Start(r.Context(), w, res); err != nil {
		h.metrics.Login("failed")
		logger.FromContext(r.Context()).Error("session not started", zap.Error(err))
		fail(http.StatusInternalServerError, i18n.T(lang, "login_failed"))
		return
	}
	h.metrics.Login("ok")
	logger.FromContext(r.Context()).Info("user logged in", zap.String("user", res.Account.Username), zap.String("role", res.Account.Role))
	http.Redirect(w, r, auth.SafeNext(next, "/dashboard"), http.StatusSeeOther)
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"Fields": signupFields, "Values": url.Values{}, "Errors": validation.Violations{}, "Error": ""}
	if r.Method == http.MethodGet {
		render(w, r, http.StatusOK, "signup.html", data)
		return
	}
	if err := r.ParseForm(); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid_format")
		return
	}
	values, errs := forms.Decode(signupFields, r.PostForm, forms.Create)
	echo := make(url.Values, len(r.PostForm))
	for k, v := range r.PostForm {
		echo[k] = v
	}
	echo.Del("password")
	data["Values"] = echo
	if !errs.Empty() {
		data["Errors"] = errs
		render(w, r, http.StatusUnprocessableEntity, "signup.html", data)
		return
	}

	acc, err := h.client.SignUp(r.Context(), models.Account{
		Username: values["username"].(string),
		Email:    values["email"].(string),
		Password: values["password"].(string),
	})
	if err != nil {
		data["Error"] = i18n.T(middleware.LangFrom(r), "save_failed") + " : " + upstream.Message(err)
		render(w, r, failureStatus(err), "signup.html", data)
		return
	}
	h.record(r, "signup", "accounts", "", []string{strconv.FormatInt(acc.ID, 10)}, acc.Username)
	middleware.Flash(w, r, middleware.LevelSuccess, "signup_ok")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Logout deletes the session and the cookie, then returns to the landing
// page. The session manager drops the session's snapshots and drafts.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(r.Context(), w, r); err != nil {
		logger.FromContext(r.Context()).Error("session not deleted", zap.Error(err))
	}
	middleware.Flash(w, r, middleware.LevelSuccess, "logged_out")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
