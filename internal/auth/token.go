// internal/auth/token.go
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"billing-api/internal/domain"
	"billing-api/internal/util"
)

const (
	tokenTypeAccess     = "access"
	tokenTypeRefresh    = "refresh"
	tokenTypeActivation = "activation"
)

// Claims are the JWT claims carried by access and refresh tokens. Identity
// is the unique username; Role is the closed role set serialized as a string.
type Claims struct {
	Role      string `json:"role,omitempty"`
	TokenType string `json:"typ"`
	UserID    int64  `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies signed JWTs.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetimes.
func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// GenerateAccessToken issues a signed access JWT carrying the user's
// identity and role.
func (t *TokenManager) GenerateAccessToken(user *domain.User) (string, error) {
	return t.sign(user.Username, string(user.RoleOf()), tokenTypeAccess, 0, t.accessTTL)
}

// GenerateRefreshToken issues a signed refresh JWT for the user.
func (t *TokenManager) GenerateRefreshToken(user *domain.User) (string, error) {
	return t.sign(user.Username, string(user.RoleOf()), tokenTypeRefresh, 0, t.refreshTTL)
}

// GenerateActivationToken issues the token embedded in an account
// activation link. It carries only the user id.
func (t *TokenManager) GenerateActivationToken(userID int64) (string, error) {
	return t.sign("", "", tokenTypeActivation, userID, t.refreshTTL)
}

func (t *TokenManager) sign(subject, role, tokenType string, userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:      role,
		TokenType: tokenType,
		UserID:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ParseAccessToken verifies an access token and returns the principal it
// carries. Any parse, signature, expiry, or token-type failure maps to
// util.ErrUnauthorized.
func (t *TokenManager) ParseAccessToken(tokenStr string) (domain.Principal, error) {
	claims, err := t.parse(tokenStr, tokenTypeAccess)
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{Identity: claims.Subject, Role: domain.Role(claims.Role)}, nil
}

// ParseRefreshToken verifies a refresh token and returns the identity it
// was issued for.
func (t *TokenManager) ParseRefreshToken(tokenStr string) (string, error) {
	claims, err := t.parse(tokenStr, tokenTypeRefresh)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ParseActivationToken verifies an activation token and returns the user id.
func (t *TokenManager) ParseActivationToken(tokenStr string) (int64, error) {
	claims, err := t.parse(tokenStr, tokenTypeActivation)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

func (t *TokenManager) parse(tokenStr, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer))
	if err != nil || !token.Valid {
		return nil, util.ErrUnauthorized
	}
	if claims.TokenType != wantType {
		return nil, util.ErrUnauthorized
	}
	return claims, nil
}
