package identity

import (
	"net/http"
	"strings"
	"time"
)

// Cookie names.
const (
	SessionCookieName = "arena_session"
	LoginCookieName   = "arena_login"
)

const loginCookieTTL = 10 * time.Minute

// Cookies writes and reads the session and pending-login cookies.
type Cookies struct {
	Secure bool
	Domain string
}

// SetSession stores the session id.
func (c Cookies) SetSession(w http.ResponseWriter, sess *Session) {
	http.SetCookie(w, c.cookie(SessionCookieName, sess.ID, time.Until(sess.ExpiresAt)))
}

// ClearSession expires the session cookie.
func (c Cookies) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(SessionCookieName, "", -1))
}

// SessionID returns the session id carried by r, or "".
func (c Cookies) SessionID(r *http.Request) string {
	ck, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}

// SetLogin stores the OAuth state and PKCE verifier for the callback.
func (c Cookies) SetLogin(w http.ResponseWriter, state, verifier string) {
	http.SetCookie(w, c.cookie(LoginCookieName, state+"."+verifier, loginCookieTTL))
}

// Login returns the pending state and verifier, clearing the cookie.
func (c Cookies) Login(w http.ResponseWriter, r *http.Request) (state, verifier string, ok bool) {
	ck, err := r.Cookie(LoginCookieName)
	if err != nil {
		return "", "", false
	}
	http.SetCookie(w, c.cookie(LoginCookieName, "", -1))

	state, verifier, ok = strings.Cut(ck.Value, ".")
	if !ok || state == "" || verifier == "" {
		return "", "", false
	}
	return state, verifier, true
}

func (c Cookies) cookie(name, value string, ttl time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		ck.MaxAge = -1
	} else {
		ck.MaxAge = int(ttl.Seconds())
	}
	return ck
}
