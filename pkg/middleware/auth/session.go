package middleware

import (
	"net/http"
	"time"

	"github.com/Skotchmaster/market_cart/pkg/tokens"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	SessionCookie = "cartSession"
	CtxSessionID  = "session_id"

	sessionCookieTTL = 30 * 24 * time.Hour
)

// Session resolves the cart session for every request. A valid access token
// maps to "user:<subject>"; anyone else gets a guest cookie mapping to
// "guest:<uuid>". An expired or broken token falls back to the guest session.
func (m *AuthMiddleware) Session(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ck, err := c.Cookie(AccessCookie); err == nil && ck.Value != "" {
			if claims, err := tokens.AccessClaimsFromToken(ck.Value, m.JWTSecret); err == nil {
				setUserContext(c, claims)
				c.Set(CtxSessionID, "user:"+claims.Subject)
				return next(c)
			}
		}

		guestID := ""
		if ck, err := c.Cookie(SessionCookie); err == nil {
			if id, err := uuid.Parse(ck.Value); err == nil {
				guestID = id.String()
			}
		}
		if guestID == "" {
			guestID = uuid.NewString()
			c.SetCookie(CreateCookie(SessionCookie, guestID, "/", time.Now().Add(sessionCookieTTL)))
		}

		c.Set(CtxSessionID, "guest:"+guestID)
		return next(c)
	}
}

func SessionID(c echo.Context) string {
	s, _ := c.Get(CtxSessionID).(string)
	return s
}

func CreateCookie(name, value, path string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
