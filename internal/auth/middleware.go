package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/wmcproducts/partner-site/pkg/logging"
)

// CookieName carries the session token for browser requests.
const CookieName = "wmc_admin_session"

// retryAfterSeconds is sent with the waiting page while the session
// backend is unreachable.
const retryAfterSeconds = "3"

// Mode selects how an unadmitted request is answered.
type Mode int

const (
	// PageMode redirects to the login page and shows a waiting page while loading.
	PageMode Mode = iota
	// APIMode answers with JSON status codes.
	APIMode
)

type contextKey string

const sessionKey contextKey = "adminSession"

// RequireSession gates handlers behind an operator session. Each request
// gets its own guard resolved from the cookie or bearer token.
func RequireSession(p Provider, mode Mode, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guard := NewGuard(p)
			if err := guard.Resolve(r.Context(), TokenFromRequest(r)); err != nil {
				logger.Error("admin session lookup failed", "error", err, "path", r.URL.Path)
			}

			decision := guard.Admit(r.URL.RequestURI())
			switch decision.Kind {
			case Admit:
				ctx := context.WithValue(r.Context(), sessionKey, guard.Session())
				next.ServeHTTP(w, r.WithContext(ctx))
			case Wait:
				w.Header().Set("Retry-After", retryAfterSeconds)
				if mode == APIMode {
					writeAuthJSON(w, http.StatusServiceUnavailable, "session service unavailable, retry shortly")
					return
				}
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(waitingPage))
			default:
				if mode == APIMode {
					writeAuthJSON(w, http.StatusUnauthorized, "authentication required")
					return
				}
				http.Redirect(w, r, LoginURL(decision.From), http.StatusSeeOther)
			}
		})
	}
}

// SessionFromContext returns the session admitted by RequireSession.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*Session)
	return sess, ok && sess != nil
}

// TokenFromRequest reads the session cookie, falling back to a bearer token.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// LoginURL builds the login redirect that returns to from afterwards.
func LoginURL(from string) string {
	if from == "" || !SafeNext(from) {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(from)
}

// SafeNext reports whether next is a local admin path worth returning to.
func SafeNext(next string) bool {
	if !strings.HasPrefix(next, "/admin") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return false
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return false
	}
	if u.Path != "/admin" && !strings.HasPrefix(u.Path, "/admin/") {
		return false
	}
	return u.Path != LoginPath
}

func writeAuthJSON(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

const waitingPage = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><meta http-equiv="refresh" content="3"><title>Please wait</title></head>
<body style="font-family: sans-serif; display: flex; align-items: center; justify-content: center; min-height: 100vh;">
<p>Checking your session, please wait&hellip;</p>
</body>
</html>
`
