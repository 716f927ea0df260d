// Package identity проверяет access токены внешнего провайдера сессий.
package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoleAdmin: роль администратора в клейме role.
const RoleAdmin = "admin"

var ErrInvalidToken = errors.New("identity: токен невалиден")

// Principal: пользователь, извлечённый из access токена.
type Principal struct {
	UserID uuid.UUID
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// TokenVerifier проверяет HS256 токены с клеймами sub и role.
type TokenVerifier struct {
	secret []byte
	now    func() time.Time
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), now: time.Now}
}

// ParseAccess извлекает userID и роль из access токена.
func (v *TokenVerifier) ParseAccess(token string) (Principal, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !parsed.Valid {
		return Principal{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return Principal{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(sub)
	if err != nil || userID == uuid.Nil {
		return Principal{}, ErrInvalidToken
	}

	role, _ := claims["role"].(string)
	return Principal{UserID: userID, Role: role}, nil
}

// Issue выпускает access токен. Используется в dev-окружении и тестах,
// в проде токены выдаёт провайдер сессий.
func (v *TokenVerifier) Issue(userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
