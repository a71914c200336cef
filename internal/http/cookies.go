package httpx

import (
	"net/http"
	"strings"
	"time"
)

// CookieWriter sets and clears the cookies issued by the auth handlers.
// Secure is forced when ForceSecure is true; otherwise it follows the request scheme.
type CookieWriter struct {
	Domain      string
	ForceSecure bool
}

func (c CookieWriter) secure(r *http.Request) bool {
	return c.ForceSecure || r.TLS != nil || isForwardedHTTPS(r)
}

func (c CookieWriter) set(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// SetSession writes the session cookie.
func (c CookieWriter) SetSession(w http.ResponseWriter, r *http.Request, id string, maxAge int) {
	c.set(w, r, SessionCookieName, id, maxAge)
}

// SetOAuth stores the federated login state and nonce for the callback.
func (c CookieWriter) SetOAuth(w http.ResponseWriter, r *http.Request, state, nonce string) {
	c.set(w, r, OAuthStateCookieName, state, oauthCookieMaxAge)
	c.set(w, r, OAuthNonceCookieName, nonce, oauthCookieMaxAge)
}

// Clear expires a cookie. It mirrors the attributes used when setting cookies
// so browsers match and delete it.
func (c CookieWriter) Clear(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.secure(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionToken returns the session cookie value, or "" when absent.
func sessionToken(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// isForwardedHTTPS checks if the request was forwarded over HTTPS.
// Handles comma-separated values in X-Forwarded-Proto header.
func isForwardedHTTPS(r *http.Request) bool {
	xfProto := r.Header.Get("X-Forwarded-Proto")
	if xfProto == "" {
		return false
	}
	for _, proto := range strings.Split(xfProto, ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}
