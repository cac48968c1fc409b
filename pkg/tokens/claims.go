package tokens

import "github.com/golang-jwt/jwt/v5"

type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (c *AccessClaims) IsAdmin() bool {
	return c.Role == "admin" || c.Role == "vendor"
}
