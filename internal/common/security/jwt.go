package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

var (
	TokenAuth *jwtauth.JWTAuth
	tokenTTL  time.Duration
)

// InitJWT configures the package-level HS256 signer.
func InitJWT(secret []byte, ttl time.Duration) {
	TokenAuth = jwtauth.New("HS256", secret, nil)
	tokenTTL = ttl
}

func GenerateToken(userID, role string) (string, error) {
	if TokenAuth == nil {
		return "", errors.New("jwt signer not initialized")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     now.Add(tokenTTL).Unix(),
		"iat":     now.Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

func GetUserIDFromClaims(claims map[string]interface{}) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok || id == "" {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

func GetUserRoleFromClaims(claims map[string]interface{}) (string, error) {
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return "", errors.New("role claim is missing or not a string")
	}
	return role, nil
}
