package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"heist-server/internal/models"
)

// TokenVerifier определяет методы верификации токенов, необходимые middleware.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, tokenString string) (*models.Claims, error)
	VerifyInterServiceToken(ctx context.Context, tokenString string) (*models.Claims, error)
}

// AuthMiddleware создает Gin middleware для проверки JWT игрока.
// Оно извлекает токен из заголовка Authorization, верифицирует его и
// добавляет PlayerID в контекст запроса под models.UserContextKey.
func AuthMiddleware(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.With(zap.String("path", c.Request.URL.Path))

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Missing token"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Malformed Authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Malformed token header"})
			return
		}
		tokenString := parts[1]

		claims, err := verifier.VerifyToken(c.Request.Context(), tokenString)
		if err != nil {
			status := http.StatusUnauthorized
			msg := "Unauthorized: Invalid token"
			if errors.Is(err, models.ErrTokenExpired) {
				msg = "Unauthorized: Token expired"
			} else if errors.Is(err, models.ErrTokenMalformed) || errors.Is(err, models.ErrTokenInvalid) {
				// Общее сообщение для невалидного и некорректного формата
			} else {
				log.Error("Unexpected token verification error", zap.Error(err))
				status = http.StatusInternalServerError
				msg = "Internal server error during token verification"
			}
			log.Warn("Token verification failed", zap.Error(err))
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}

		ctx := context.WithValue(c.Request.Context(), models.UserContextKey, claims.PlayerID)
		c.Request = c.Request.WithContext(ctx)

		log.Debug("Player authorized", zap.String("playerID", claims.PlayerID.String()))
		c.Next()
	}
}
