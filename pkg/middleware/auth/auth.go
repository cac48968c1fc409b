package middleware

import (
	"net/http"

	"github.com/Skotchmaster/market_cart/pkg/tokens"
	"github.com/labstack/echo/v4"
)

const (
	AccessCookie = "accessToken"

	CtxUserID = "user_id"
	CtxRole   = "role"
)

type ValidatorFunc func(claims *tokens.AccessClaims) error

type AuthMiddleware struct {
	JWTSecret []byte
}

func NewAuthMiddleware(secret []byte) *AuthMiddleware {
	return &AuthMiddleware{JWTSecret: secret}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

// RequireAdmin lets through admins and vendors, who manage catalog and coupons.
func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
		if !claims.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (m *AuthMiddleware) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := m.claims(c)
		if err != nil {
			return err
		}
		if validator != nil {
			if validationErr := validator(claims); validationErr != nil {
				return validationErr
			}
		}

		setUserContext(c, claims)
		return next(c)
	}
}

func (m *AuthMiddleware) claims(c echo.Context) (*tokens.AccessClaims, error) {
	accessCookie, err := c.Cookie(AccessCookie)
	if err != nil || accessCookie.Value == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	claims, err := tokens.AccessClaimsFromToken(accessCookie.Value, m.JWTSecret)
	if err != nil || claims == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(CtxUserID, claims.Subject)
	c.Set(CtxRole, claims.Role)
}

func UserID(c echo.Context) string {
	s, _ := c.Get(CtxUserID).(string)
	return s
}
