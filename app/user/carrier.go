package user

import (
	"net/http"
	"time"

	"github.com/twonumberfortyfives/e-commerce-shop/config"
	"github.com/twonumberfortyfives/e-commerce-shop/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// cookieCarrier reads the bearer header and keeps the refresh token in an
// HttpOnly cookie. The cookie is always Secure and SameSite=None so browsers
// send it cross-site to the API.
type cookieCarrier struct {
	c    *gin.Context
	auth config.Auth
}

func newCarrier(c *gin.Context, d config.Auth) *cookieCarrier {
	return &cookieCarrier{c: c, auth: d}
}

func (k *cookieCarrier) BearerToken() string {
	return middleware.BearerToken(k.c)
}

func (k *cookieCarrier) RefreshToken() string {
	v, err := k.c.Cookie(k.auth.CookieName)
	if err != nil {
		return ""
	}

	return v
}

func (k *cookieCarrier) SetRefreshToken(token string, ttl time.Duration) {
	k.set(token, int(ttl.Seconds()))
}

func (k *cookieCarrier) ClearRefreshToken() {
	k.set("", -1)
}

func (k *cookieCarrier) set(value string, maxAge int) {
	k.c.SetSameSite(http.SameSiteNoneMode)
	k.c.SetCookie(k.auth.CookieName, value, maxAge, "/", k.auth.CookieDomain, true, true)
}
