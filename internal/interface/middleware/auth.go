package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"usermanagement/internal/domain/entity"
	"usermanagement/pkg/helpers"
	"usermanagement/pkg/response"
)

// CtxIdentityKey is where the gates store the verified Identity.
const CtxIdentityKey = "identity"

// ErrNoToken covers a missing header or a scheme other than "Bearer ".
var ErrNoToken = errors.New("no token provided, access denied")

// Identity is the account id plus role extracted from a verified token.
type Identity struct {
	UserID string
	Role   entity.Role
}

// IdentityFromHeader is the whole gate as a pure function: it parses the
// Authorization header, verifies the token, and checks the claims are
// structurally complete. The gin middlewares below only translate its
// result into a response.
func IdentityFromHeader(header string, tm *helpers.TokenManager) (Identity, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return Identity{}, ErrNoToken
	}
	claims, err := tm.Verify(strings.TrimSpace(strings.TrimPrefix(header, prefix)))
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: claims.UserID, Role: entity.Role(claims.Role)}, nil
}

// RequireAuth rejects the request with 401 unless it carries a valid bearer
// token for any role. On success the Identity is available to handlers.
func RequireAuth(tm *helpers.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, err := IdentityFromHeader(c.GetHeader("Authorization"), tm)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, err.Error())
			return
		}
		c.Set(CtxIdentityKey, ident)
		c.Next()
	}
}

// RequireAdmin additionally requires the admin role. A token that fails
// verification is 401 (not authenticated); a valid token for a non-admin
// account is 403 (authenticated but not allowed). Clients rely on that
// split to tell "log in" from "you can't do this".
func RequireAdmin(tm *helpers.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, err := IdentityFromHeader(c.GetHeader("Authorization"), tm)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, err.Error())
			return
		}
		if ident.Role != entity.RoleAdmin {
			response.Error(c, http.StatusForbidden, "admin access required")
			return
		}
		c.Set(CtxIdentityKey, ident)
		c.Next()
	}
}

// IdentityFrom returns the Identity a gate stored on the context.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(CtxIdentityKey)
	if !ok {
		return Identity{}, false
	}
	ident, ok := v.(Identity)
	return ident, ok
}
