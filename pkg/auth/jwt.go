package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ContextUserID   = "x-user-id"
	ContextUsername = "x-username"
	ContextUserRole = "x-user-role"

	DefaultTokenTTL = 3 * time.Hour
)

// Claims carry the username as subject, which is also the todo owner key.
type Claims struct {
	UserID int    `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type JWT struct {
	Secret string
	TTL    time.Duration
}

func NewJWT(secret string) *JWT {
	return &JWT{Secret: secret, TTL: DefaultTokenTTL}
}

func (j *JWT) CreateToken(userID int, username, role string) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl())),
		},
	})

	return token.SignedString([]byte(j.Secret))
}

func (j *JWT) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(j.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		slog.Debug("Error verifying token", "error", err)
		return nil, err
	}

	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid access token")
	}

	return claims, nil
}

func (j *JWT) ttl() time.Duration {
	if j.TTL <= 0 {
		return DefaultTokenTTL
	}
	return j.TTL
}

// GinJwtMiddleware rejects requests without a valid bearer token and exposes
// the caller under the x-user-* context keys.
func (j *JWT) GinJwtMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := c.GetHeader("Authorization")

		if bearer == "" {
			abortUnauthorized(c, "Unauthorized request")
			return
		}

		if !strings.HasPrefix(bearer, "Bearer ") {
			abortUnauthorized(c, "Invalid authorization format")
			return
		}

		claims, err := j.VerifyToken(strings.TrimPrefix(bearer, "Bearer "))

		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Subject)
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}

// RequireRole must run after GinJwtMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextUserRole) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody("FORBIDDEN", fmt.Sprintf("%s role required", strings.ToLower(role))))
			return
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("UNAUTHORIZED", message))
}

func errorBody(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":   code,
			"errors": []gin.H{{"field": "auth", "message": message}},
		},
	}
}
