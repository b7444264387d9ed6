package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/suncare/internal/domain/auth"
)

const authClaimsKey = "auth_claims"

func setClaims(c *gin.Context, claims auth.Claims) {
	c.Set(authClaimsKey, claims)
}

func getClaims(c *gin.Context) (auth.Claims, bool) {
	value, ok := c.Get(authClaimsKey)
	if !ok {
		return auth.Claims{}, false
	}
	claims, ok := value.(auth.Claims)
	return claims, ok
}

// requireAccount aborts with 401 when the request carries no validated claims.
func requireAccount(c *gin.Context) (string, bool) {
	claims, ok := getClaims(c)
	if !ok || claims.AccountID == "" {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return "", false
	}
	return claims.AccountID, true
}
