package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"heist-server/internal/models"
)

// InterServiceAuthMiddleware создает Gin middleware для проверки межсервисного JWT.
// Имя сервиса-источника (Subject токена) добавляется в контекст запроса.
func InterServiceAuthMiddleware(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.With(zap.String("path", c.Request.URL.Path))

		tokenString := c.GetHeader("X-Internal-Service-Token")
		if tokenString == "" {
			log.Warn("X-Internal-Service-Token header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Missing inter-service token"})
			return
		}

		claims, err := verifier.VerifyInterServiceToken(c.Request.Context(), tokenString)
		if err != nil {
			status := http.StatusUnauthorized
			msg := "Unauthorized: Invalid inter-service token"
			if errors.Is(err, models.ErrTokenExpired) {
				msg = "Unauthorized: Inter-service token expired"
			} else if errors.Is(err, models.ErrTokenMalformed) || errors.Is(err, models.ErrTokenInvalid) {
				// Общее сообщение
			} else {
				log.Error("Unexpected inter-service token verification error", zap.Error(err))
				status = http.StatusInternalServerError
				msg = "Internal server error during inter-service token verification"
			}
			log.Warn("Inter-service token verification failed", zap.Error(err))
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}

		// PlayerID в контекст не добавляем, это межсервисный вызов.
		if claims != nil && claims.Subject != "" {
			ctx := context.WithValue(c.Request.Context(), models.SourceServiceContextKey, claims.Subject)
			c.Request = c.Request.WithContext(ctx)
			log.Debug("Inter-service request authorized", zap.String("sourceService", claims.Subject))
		} else {
			log.Warn("Inter-service token authorized but Subject (source service) is missing")
		}

		c.Next()
	}
}
