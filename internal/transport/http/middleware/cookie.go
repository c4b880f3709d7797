package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CookieOptions describes the site session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
}

func (o CookieOptions) Set(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(o.Name, token, maxAge, "/", "", o.Secure, true)
}

func (o CookieOptions) Clear(c *gin.Context) {
	o.Set(c, "", -1)
}
