package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenAuth 校验 Bearer token，token 为空时不启用认证
func TokenAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "missing bearer token",
			})
			c.Abort()
			return
		}

		provided := strings.TrimPrefix(authHeader, "Bearer ")
		if provided == authHeader || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "invalid bearer token",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
