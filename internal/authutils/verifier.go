package authutils

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"heist-server/internal/models"
)

// JWTVerifier проверяет JWT токены игроков и межсервисные токены.
type JWTVerifier struct {
	jwtSecret             string
	interServiceJWTSecret string
	logger                *zap.Logger
}

// NewJWTVerifier создает новый экземпляр JWTVerifier.
// Принимает секреты и опционально логгер. Если логгер nil, используется Noop.
func NewJWTVerifier(jwtSecret, interServiceJWTSecret string, logger *zap.Logger) (*JWTVerifier, error) {
	if jwtSecret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JWTVerifier{
		jwtSecret:             jwtSecret,
		interServiceJWTSecret: interServiceJWTSecret,
		logger:                logger.Named("JWTVerifier"),
	}, nil
}

// VerifyToken проверяет подпись JWT игрока, его валидность и извлекает claims.
func (v *JWTVerifier) VerifyToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	return v.verify(tokenString, v.jwtSecret, true)
}

// VerifyInterServiceToken проверяет межсервисный токен. PlayerID в таких
// токенах не требуется: субъект задается именем вызывающего сервиса.
func (v *JWTVerifier) VerifyInterServiceToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	if v.interServiceJWTSecret == "" {
		return nil, errors.New("inter-service JWT secret is not configured")
	}
	return v.verify(tokenString, v.interServiceJWTSecret, false)
}

func (v *JWTVerifier) verify(tokenString, secret string, requirePlayerID bool) (*models.Claims, error) {
	log := v.logger.With(zap.String("tokenSnippet", tokenSnippet(tokenString)))
	claims := &models.Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Проверяем метод подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			log.Warn("Unexpected signing method", zap.Any("alg", token.Header["alg"]))
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		log.Warn("Failed to parse or verify token", zap.Error(err))
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		} else if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, models.ErrTokenMalformed
		} else if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, models.ErrTokenInvalid
		}
		return nil, fmt.Errorf("%w: %v", models.ErrTokenInvalid, err)
	}

	if !token.Valid {
		log.Warn("Token is invalid despite no parsing error")
		return nil, models.ErrTokenInvalid
	}

	if requirePlayerID && claims.PlayerID == uuid.Nil {
		log.Warn("Token missing PlayerID", zap.Any("claims", claims))
		return nil, fmt.Errorf("%w: PlayerID missing", models.ErrTokenInvalid)
	}

	log.Debug("Token verified successfully", zap.String("playerID", claims.PlayerID.String()), zap.Strings("roles", claims.Roles))
	return claims, nil
}

// tokenSnippet возвращает безопасную для логгирования часть токена.
func tokenSnippet(tokenString string) string {
	limit := 15
	if len(tokenString) > limit {
		return tokenString[:limit] + "..."
	}
	return tokenString
}
