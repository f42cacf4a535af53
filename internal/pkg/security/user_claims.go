package security

import (
	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "SetMatch"

// UserClaims Token 中携带的参与者身份
type UserClaims struct {
	UserID uint64   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole 是否拥有任一指定角色
func (c *UserClaims) HasRole(roles ...string) bool {
	for _, want := range roles {
		for _, have := range c.Roles {
			if want == have {
				return true
			}
		}
	}
	return false
}
