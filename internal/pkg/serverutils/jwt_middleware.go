package serverutils

import (
	"errors"
	"strings"
	"time"

	"supportly-be/pkg/rag"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const TenantLocalKey = "tenant_id"

// TenantClaims is the one claim set every token here carries. The field name
// is exactly "tenantId".
type TenantClaims struct {
	TenantId string `json:"tenantId"`
	jwt.RegisteredClaims
}

// IssueTenantToken signs an HS256 token for tenantId valid for ttl.
func IssueTenantToken(secret string, tenantId uuid.UUID, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("signing secret is not configured")
	}
	now := time.Now()
	claims := TenantClaims{
		TenantId: tenantId.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseTenantToken verifies signature and expiry and returns the tenant.
// Every failure is a rag AuthError.
func ParseTenantToken(secret, tokenStr string) (uuid.UUID, error) {
	if tokenStr == "" {
		return uuid.Nil, rag.AuthError("parse token", errors.New("missing token"))
	}

	var claims TenantClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return uuid.Nil, rag.AuthError("parse token", err)
	}

	tenantId, err := uuid.Parse(claims.TenantId)
	if err != nil {
		return uuid.Nil, rag.AuthError("parse token", errors.New("tenantId claim is not a uuid"))
	}
	return tenantId, nil
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	return authHeader[7:]
}

// JwtMiddleware protects tenant-scoped admin routes and stores the tenant
// id under TenantLocalKey.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tenantId, err := ParseTenantToken(secret, BearerToken(ctx))
		if err != nil {
			return err
		}
		ctx.Locals(TenantLocalKey, tenantId)
		return ctx.Next()
	}
}

// TenantFromContext returns the tenant set by JwtMiddleware.
func TenantFromContext(ctx *fiber.Ctx) uuid.UUID {
	if id, ok := ctx.Locals(TenantLocalKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
