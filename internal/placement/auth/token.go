package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gartstein/placement/internal/placement/models"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
	roleClaim                     = "role"
)

// GenerateToken signs an HS256 token for the user, valid for ttl.
func GenerateToken(userID int64, role models.Role, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     strconv.FormatInt(userID, 10),
		roleClaim: string(role),
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// validateToken checks the token signature and returns parsed claims if valid.
func validateToken(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token claims")
}

// identityFromClaims resolves the caller identity carried by the claims.
func identityFromClaims(claims jwt.MapClaims) (models.Identity, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return models.Identity{}, fmt.Errorf("token has no subject")
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return models.Identity{}, fmt.Errorf("token subject is not a user id")
	}
	roleValue, _ := claims[roleClaim].(string)
	role := models.Role(roleValue)
	if !role.Valid() {
		return models.Identity{}, fmt.Errorf("token carries unknown role %q", roleValue)
	}
	return models.Identity{UserID: userID, Role: role}, nil
}

// ResolveIdentity validates tokenString and returns the identity it carries.
func ResolveIdentity(tokenString, secret string) (models.Identity, error) {
	claims, err := validateToken(tokenString, secret)
	if err != nil {
		return models.Identity{}, err
	}
	return identityFromClaims(claims)
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext returns the caller identity stored in ctx. Anonymous
// callers get the zero Identity and false.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(models.Identity)
	return id, ok
}
