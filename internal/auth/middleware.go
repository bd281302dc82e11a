package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKey is used for context keys to avoid collisions
type ContextKey string

const (
	// ResultKey is the context key for auth result
	ResultKey ContextKey = "auth_result"
)

// Middleware guards HTTP handlers with basic or bearer authentication.
// A nil service disables it.
type Middleware struct {
	authService *AuthService
}

func NewMiddleware(svc *AuthService) *Middleware {
	return &Middleware{authService: svc}
}

// GinAuth returns a Gin middleware function for authentication
func (m *Middleware) GinAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.authService == nil {
			c.Next()
			return
		}
		authResult, err := m.authenticate(c.Request)
		if err != nil || !authResult.Success {
			c.Header("WWW-Authenticate", `Basic realm="pulsr"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "authentication_failed",
				"message": "Authentication required",
			})
			return
		}
		c.Set(string(ResultKey), authResult)
		c.Next()
	}
}

// GinLogin exchanges basic credentials for a bearer token.
func (m *Middleware) GinLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.authService == nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "authentication disabled"})
			return
		}
		var req LoginRequest
		if u, p, ok := c.Request.BasicAuth(); ok {
			req = LoginRequest{Method: AuthMethodBasic, Username: u, Password: p}
		} else if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: " + err.Error()})
			return
		}
		req.Method = AuthMethodBasic
		res, err := m.authService.Authenticate(c.Request.Context(), req)
		if err != nil || !res.Success {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "authentication_failed",
				"message": "Invalid credentials",
			})
			return
		}
		c.JSON(http.StatusOK, res.Token)
	}
}

// authenticate extracts and validates authentication from HTTP request
func (m *Middleware) authenticate(r *http.Request) (*AuthResult, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return m.authService.Authenticate(r.Context(), LoginRequest{Method: AuthMethodJWT, Token: parts[1]})
		}
	}
	if username, password, ok := r.BasicAuth(); ok {
		return m.authService.Authenticate(r.Context(), LoginRequest{Method: AuthMethodBasic, Username: username, Password: password})
	}
	return &AuthResult{Success: false}, ErrInvalidCredentials
}
