package pkg

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type SessionClaims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func secret() ([]byte, error) {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s), nil
	}
	return nil, errors.New("missing JWT_SECRET")
}

// CreateToken issues a 7-day HS256 session token carrying the user's id and role.
func CreateToken(userID uint, role string) (string, error) {
	sec, err := secret()
	if err != nil {
		return "", err
	}
	claims := SessionClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(7 * 24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(sec)
}

// VerifyToken parses and validates a session token.
func VerifyToken(tokenStr string) (*SessionClaims, error) {
	sec, err := secret()
	if err != nil {
		return nil, err
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return sec, nil
	})
	if err != nil || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || claims.UserID == 0 {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}
