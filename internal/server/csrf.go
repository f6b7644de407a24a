package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/joliest/shopify-install-proxy/internal/issuer"
)

const (
	stateCookieName = "shopify-state"
)

func setState(w http.ResponseWriter, state string, maxAge time.Duration) {
	c := &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     pathCallback,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, c)
}

// getAndDeleteState reads and verifies the state cookie and tells the browser
// to drop it, so a callback URL cannot be replayed with the same cookie.
func getAndDeleteState(w http.ResponseWriter, r *http.Request, iss issuer.Issuer, now time.Time) (*issuer.State, error) {
	c, err := r.Cookie(stateCookieName)
	if err != nil {
		return nil, fmt.Errorf("state cookie missing or expired")
	}

	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Path:   pathCallback,
		MaxAge: -1,
	})

	return iss.Verify(c.Value, now)
}
