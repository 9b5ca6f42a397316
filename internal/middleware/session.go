package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/backlinkflow/backend/internal/resputil"
	"github.com/backlinkflow/backend/internal/util"
	"github.com/backlinkflow/backend/pkg/config"
)

// AuthRequired verifies the session cookie and injects the caller's identity
// into the context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(util.SessionCookieName)
		if err != nil || token == "" {
			resputil.HTTPError(c, http.StatusUnauthorized, "Authentication required", resputil.TokenInvalid)
			c.Abort()
			return
		}

		info, err := util.GetTokenMgr().CheckSession(token)
		if err != nil {
			resputil.HTTPError(c, http.StatusUnauthorized, "Invalid session", resputil.TokenExpired)
			c.Abort()
			return
		}

		util.SetSessionContext(c, info)
		c.Next()
	}
}

// AuthAdmin restricts the route to configured reviewer accounts. Must run
// after AuthRequired.
func AuthAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := util.GetSession(c)
		if !lo.Contains(config.GetConfig().Auth.AdminEmails, session.Email) {
			resputil.HTTPError(c, http.StatusUnauthorized, "Not a reviewer", resputil.UserNotAllowed)
			c.Abort()
			return
		}
		c.Next()
	}
}
