package util

import (
	"github.com/gin-gonic/gin"
)

const (
	UserIDKey    = "x-user-id"
	UserEmailKey = "x-user-email"
)

func SetSessionContext(c *gin.Context, info SessionInfo) {
	c.Set(UserIDKey, info.UserID)
	c.Set(UserEmailKey, info.Email)
}

func GetSession(c *gin.Context) SessionInfo {
	return SessionInfo{
		UserID: c.GetString(UserIDKey),
		Email:  c.GetString(UserEmailKey),
	}
}
