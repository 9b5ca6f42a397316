package util

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/backlinkflow/backend/pkg/config"
)

// SessionCookieName carries the signed session token; HttpOnly, Lax, Secure
// outside debug mode.
const SessionCookieName = "session"

// callbackPaths are the OAuth callback subpaths a stale cookie may have been
// scoped to; logout clears them all.
var callbackPaths = []string{
	"/api/auth/callback/github",
	"/api/auth/callback/google",
}

func SetSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token,
		int(GetTokenMgr().TTL().Seconds()), "/",
		config.GetConfig().Host, !config.IsDebugMode(), true)
}

// ClearSessionCookie expires the cookie on the root path and on the known
// callback subpaths.
func ClearSessionCookie(c *gin.Context) {
	host := config.GetConfig().Host
	secure := !config.IsDebugMode()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", host, secure, true)
	for _, path := range callbackPaths {
		c.SetCookie(SessionCookieName, "", -1, path, host, secure, true)
	}
}
