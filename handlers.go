package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"laptopstore/pkg/policy"
	"laptopstore/pkg/token"
)

// Wired by main (or the test harness) before routes are served.
var (
	tokens     *token.Service
	authPolicy *policy.Table
	logger     *zap.Logger
)

// validateTimeout bounds the single store lookup the gate performs per
// request. A timed-out lookup counts as a failed validation, not a crash.
const validateTimeout = 300 * time.Millisecond

// Context keys set by the gate for downstream handlers and policy checks.
const (
	ctxUsername    = "username"
	ctxRole        = "role"
	ctxBearer      = "bearer"
	ctxUnavailable = "auth_unavailable"
)

func setupRoutes(r *gin.Engine) {
	r.Use(authGate())
	r.Use(enforcePolicy())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	auth.POST("/register", registerHandler)
	auth.POST("/login", loginHandler)
	auth.POST("/logout", logoutHandler)
	auth.POST("/logout-all", logoutAllHandler)
	auth.POST("/validate", validateHandler)
	auth.GET("/tokens", tokensHandler)
}

// bearerToken extracts the credential from the Authorization header.
func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") || len(h) == len("Bearer ") {
		return "", false
	}
	return h[len("Bearer "):], true
}

// authGate is the per-request authentication gate. A present bearer token is
// validated exactly once; on success the identity and role are attached to
// the request context. The gate never writes a response — whether an
// anonymous request may proceed is the policy middleware's decision.
func authGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		c.Set(ctxBearer, raw)

		ctx, cancel := context.WithTimeout(c.Request.Context(), validateTimeout)
		defer cancel()
		ident, err := tokens.Validate(ctx, raw)
		if err != nil {
			if errors.Is(err, token.ErrStoreUnavailable) {
				c.Set(ctxUnavailable, true)
			}
			c.Next()
			return
		}
		c.Set(ctxUsername, ident.Username)
		c.Set(ctxRole, string(ident.Role))
		c.Next()
	}
}

// enforcePolicy rejects requests the policy table does not allow for the
// identity the gate attached (or for anonymous, if none).
func enforcePolicy() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ctxRole)
		switch authPolicy.Check(c.Request.Method, c.Request.URL.Path, role) {
		case policy.RequireAuth:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
		case policy.Forbid:
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			c.Abort()
		default:
			c.Next()
		}
	}
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := Register(req.Username, req.Email, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully", "username": req.Username})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	sess, err := tokens.Issue(c.Request.Context(), user, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		logger.Error("token issuance failed", zap.String("username", user.Username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		return
	}

	now := time.Now()
	db.Model(user).Update("last_login_at", &now)

	c.JSON(http.StatusOK, gin.H{
		"access_token": sess.Value,
		"token_type":   "Bearer",
		"expires_in":   int(tokens.TTL().Seconds()),
		"username":     user.Username,
		"role":         string(user.Role),
		"token_id":     sess.Record.ID,
		"issued_at":    sess.Record.IssuedAt.Format(time.RFC3339),
	})
}

// logoutHandler revokes the presented token. Revocation is idempotent so an
// already-revoked or unknown token still logs out cleanly.
func logoutHandler(c *gin.Context) {
	raw, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token"})
		return
	}
	if err := tokens.RevokeOne(c.Request.Context(), raw); err != nil {
		logger.Error("logout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

func logoutAllHandler(c *gin.Context) {
	if _, ok := bearerToken(c); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token"})
		return
	}
	username := c.GetString(ctxUsername)
	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}
	if err := tokens.RevokeAll(c.Request.Context(), username); err != nil {
		logger.Error("logout-all failed", zap.String("username", username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out from all devices successfully"})
}

func validateHandler(c *gin.Context) {
	if c.GetBool(ctxUnavailable) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validation unavailable"})
		return
	}
	username := c.GetString(ctxUsername)
	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":    true,
		"username": username,
		"role":     c.GetString(ctxRole),
	})
}

// tokensHandler lists the caller's own live sessions.
func tokensHandler(c *gin.Context) {
	username := c.GetString(ctxUsername)
	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}
	recs, err := tokens.Sessions(c.Request.Context(), username)
	if err != nil {
		logger.Error("session listing failed", zap.String("username", username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	currentHash := token.HashValue(c.GetString(ctxBearer))
	out := make([]gin.H, 0, len(recs))
	for _, t := range recs {
		out = append(out, gin.H{
			"id":         t.ID,
			"issued_at":  t.IssuedAt.Format(time.RFC3339),
			"expires_at": t.ExpiresAt.Format(time.RFC3339),
			"ip_address": t.IPAddress,
			"user_agent": t.UserAgent,
			"is_current": t.TokenHash == currentHash,
		})
	}
	c.JSON(http.StatusOK, gin.H{"active_tokens": len(recs), "tokens": out})
}
