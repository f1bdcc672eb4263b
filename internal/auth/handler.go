package auth

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/wmcproducts/partner-site/pkg/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

var loginTemplate = template.Must(template.ParseFS(templateFS, "templates/login.html"))

const adminHome = "/admin"

// Handler serves the login and logout endpoints.
type Handler struct {
	provider     Provider
	cookieSecure bool
	logger       *logging.Logger
}

// NewHandler builds the login handler. cookieSecure should be true outside
// local development.
func NewHandler(p Provider, cookieSecure bool, logger *logging.Logger) *Handler {
	if p == nil {
		panic("auth: provider required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{provider: p, cookieSecure: cookieSecure, logger: logger}
}

type loginView struct {
	Email string
	Next  string
	Error string
}

// LoginRequest is the JSON login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Next     string `json:"next"`
}

// LoginResponse is returned to JSON clients.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Next      string    `json:"next"`
}

// LoginPage handles GET /admin/login. An operator who already has a session
// goes straight to the requested page.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	guard := NewGuard(h.provider)
	if err := guard.Resolve(r.Context(), TokenFromRequest(r)); err == nil && guard.Admit(next).Kind == Admit {
		http.Redirect(w, r, nextOrHome(next), http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, loginView{Next: next})
}

// Login handles POST /admin/login with a form or JSON body.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	isJSON := strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")

	var req LoginRequest
	if isJSON {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeAuthJSON(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.render(w, http.StatusBadRequest, loginView{Error: "Invalid request"})
			return
		}
		req = LoginRequest{
			Email:    r.PostFormValue("email"),
			Password: r.PostFormValue("password"),
			Next:     r.PostFormValue("next"),
		}
	}

	guard := NewGuard(h.provider)
	sess, err := guard.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		status := http.StatusUnauthorized
		msg := InvalidCredentialsMessage
		if !errors.Is(err, ErrInvalidCredentials) {
			h.logger.Error("admin sign-in failed", "error", err)
			status = http.StatusServiceUnavailable
			msg = "Sign-in is temporarily unavailable. Please try again."
		}
		if isJSON {
			writeAuthJSON(w, status, msg)
			return
		}
		h.render(w, status, loginView{Email: req.Email, Next: req.Next, Error: msg})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.Token,
		Path:     adminHome,
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	next := nextOrHome(req.Next)
	if isJSON {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(LoginResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt, Next: next})
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout handles POST /admin/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := TokenFromRequest(r); token != "" {
		if err := h.provider.SignOut(r.Context(), token); err != nil && !errors.Is(err, ErrNoSession) {
			h.logger.Error("admin sign-out failed", "error", err)
			http.Error(w, "sign-out failed, please retry", http.StatusServiceUnavailable)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     adminHome,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, status int, v loginView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := loginTemplate.Execute(w, v); err != nil {
		h.logger.Error("failed to render login page", "error", err)
	}
}

func nextOrHome(next string) string {
	if SafeNext(next) {
		return next
	}
	return adminHome
}
