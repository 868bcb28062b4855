// Package auth issues and verifies the HS256 access tokens the annotation
// API runs on.
package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/versemark/versemark/internal/common"
)

// Claims includes the registered claims plus the account the token was
// issued to.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// Manager signs and verifies access tokens with one shared secret.
type Manager struct {
	secret   []byte
	validity time.Duration
}

func NewManager(secret string, validity time.Duration) *Manager {
	return &Manager{secret: []byte(secret), validity: validity}
}

func (m *Manager) GenerateToken(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.validity)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (m *Manager) GetUserIDFromToken(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrUnauthorized
		}
		return m.secret, nil
	})
	if err != nil {
		return "", common.ErrUnauthorized
	}
	if !token.Valid {
		return "", common.ErrUnauthorized
	}

	return claims.UserID, nil
}

// userIDKey is the echo context key the middleware stores the caller under.
const userIDKey = "versemark.user_id"

// Middleware authenticates the Bearer token and stores the caller's user ID
// on the request context.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				return echo.NewHTTPError(401, "missing bearer token")
			}

			userID, err := m.GetUserIDFromToken(tokenString)
			if err != nil {
				return echo.NewHTTPError(401, "invalid token")
			}

			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// UserID returns the authenticated caller set by Middleware.
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}
