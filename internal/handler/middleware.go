package handler

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"tixify/internal/auth"
	"tixify/internal/model"
	"tixify/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ctxActorKey     = "actor"
	ctxRoleKey      = "role"
	ctxOrganizerKey = "organizer"
)

// RequireRole 驗證 Bearer token，並把 subject、角色與所屬主辦單位放進 context
func RequireRole(authn *auth.Authenticator, roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		claims, err := authn.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if !slices.Contains(roles, claims.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}

		c.Set(ctxActorKey, claims.Subject)
		c.Set(ctxRoleKey, claims.Role)
		c.Set(ctxOrganizerKey, claims.Organizer)
		c.Next()
	}
}

func actor(c *gin.Context) string {
	return c.GetString(ctxActorKey)
}

// caller 驗票端的身分：誰在操作、替哪個主辦單位
func caller(c *gin.Context) model.Actor {
	return model.Actor{ID: c.GetString(ctxActorKey), OrganizerID: c.GetString(ctxOrganizerKey)}
}

// RequestLogger 每個請求一行 access log
func RequestLogger() gin.HandlerFunc {
	log := logger.WithComponent("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("request", fields...)
			return
		}
		log.Info("request", fields...)
	}
}
