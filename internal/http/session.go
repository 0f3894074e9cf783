package http

import (
	"net/http"
	"time"
)

const cartCookieName = "CART_ID"

// cartCookieMaxAge is the rolling client credential lifetime. It is
// deliberately longer than the 24h server side cart retention, an old
// cookie pointing at a swept cart just resolves to a fresh cart.
const cartCookieMaxAge = 7 * 24 * time.Hour

// SessionCookie issues and reads the cart session credential. The
// cookie is HTTP only and, outside local development, secure.
type SessionCookie struct {
	Secure bool
}

func (c SessionCookie) Read(r *http.Request) string {
	cookie, err := r.Cookie(cartCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (c SessionCookie) Write(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(cartCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
