package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/FikranSE/bookingapp/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	principalKey = "principal"
	requestIDKey = "request_id"

	requestIDHeader = "X-Request-ID"
)

type TokenParser interface {
	Parse(raw string) (auth.Principal, error)
}

// RequestLogger tags every request with an ID and logs it once it completes.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", id,
		)
	}
}

// Recovery turns a handler panic into a 500.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("handler panic", "path", c.Request.URL.Path, "request_id", c.GetString(requestIDKey), "panic", r)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

// RequireAuth accepts a bearer token and stores its principal on the context.
func RequireAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		p, err := parser.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !principal(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principal(c)
		if p.IsAdmin() || p.ID == 0 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user access required"})
			return
		}
		c.Next()
	}
}

func principal(c *gin.Context) auth.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return auth.Principal{}
	}
	p, _ := v.(auth.Principal)
	return p
}
