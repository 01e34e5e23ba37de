package auth

import (
	"net/http"
	"time"
)

const (
	AccessCookieName  = "ll_access"
	RefreshCookieName = "ll_refresh"
)

type CookieConfig struct {
	Domain string
	Secure bool
}

func SetAuthCookies(w http.ResponseWriter, cfg CookieConfig, accessToken, refreshToken string, accessTTL, refreshTTL time.Duration) {
	setCookie(w, cfg, AccessCookieName, accessToken, int(accessTTL.Seconds()))
	setCookie(w, cfg, RefreshCookieName, refreshToken, int(refreshTTL.Seconds()))
}

func ClearAuthCookies(w http.ResponseWriter, cfg CookieConfig) {
	setCookie(w, cfg, AccessCookieName, "", -1)
	setCookie(w, cfg, RefreshCookieName, "", -1)
}

func setCookie(w http.ResponseWriter, cfg CookieConfig, name, value string, maxAge int) {
	// Cross-site frontends need SameSite=None, which browsers only accept on
	// secure cookies.
	sameSite := http.SameSiteLaxMode
	if cfg.Secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.Domain,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: sameSite,
		MaxAge:   maxAge,
	})
}
