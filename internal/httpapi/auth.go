package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"smart-shopping-list/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const userIDKey = "userID"

// Claims are the bearer token claims. Subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for userID.
func IssueToken(secret, userID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("API_JWT_SECRET environment variable not set")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseToken(secret, tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid or expired token")
	}
	return claims.Subject, nil
}

// RequireAuth validates the bearer token and stores the user id on the
// context. With an empty secret authentication is off and the user id is
// taken from the X-User-ID header, which may be empty (trusted, local use).
func RequireAuth(secret string, log *logger.Logger) gin.HandlerFunc {
	log = log.With("middleware", "auth")
	return func(c *gin.Context) {
		if secret == "" {
			c.Set(userIDKey, c.GetHeader("X-User-ID"))
			c.Next()
			return
		}

		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope("missing or invalid token", "unauthorized"))
			return
		}
		userID, err := parseToken(secret, tokenString)
		if err != nil {
			log.Debug("rejected token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope(err.Error(), "unauthorized"))
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
