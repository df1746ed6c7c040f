package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"usermanagement/internal/domain/entity"
)

// Verification failures are split into three kinds so callers can tell a
// stale session ("log in again") from a corrupt one. None of the messages
// expose signature internals.
var (
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("invalid token")
	ErrTokenInvalid   = errors.New("token verification failed")
)

// TokenManager issues and verifies HS256 bearer tokens carrying the account
// id and role. The signing secret and both TTLs are injected at construction;
// there is no package-level secret.
type TokenManager struct {
	secret   []byte
	userTTL  time.Duration
	adminTTL time.Duration
}

func NewTokenManager(secret string, userTTL, adminTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:   []byte(secret),
		userTTL:  userTTL,
		adminTTL: adminTTL,
	}
}

type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a token for the given account. Admin sessions get the shorter
// TTL; both values come from configuration.
func (m *TokenManager) Issue(userID string, role entity.Role) (string, time.Time, error) {
	ttl := m.userTTL
	if role == entity.RoleAdmin {
		ttl = m.adminTTL
	}
	now := time.Now()
	exp := now.Add(ttl)
	claims := &Claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.secret)
	return s, exp, err
}

// Verify parses and validates a token. A token whose payload lacks the uid
// or role claim is rejected even when the signature checks out; a
// structurally incomplete token is invalid, not anonymous.
func (m *TokenManager) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed),
			errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenMalformed
		default:
			return nil, ErrTokenInvalid
		}
	}
	if !tkn.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.UserID == "" || !entity.Role(claims.Role).Valid() {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
