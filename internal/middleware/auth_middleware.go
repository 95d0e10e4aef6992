package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ByteBuildersCorp/hidden-feeds/config"
	"github.com/ByteBuildersCorp/hidden-feeds/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// CachedSessionData - единая структура для данных сессии пользователя в кэше.
type CachedSessionData struct {
	UserID           uint   `json:"user_id"`
	Username         string `json:"username"`
	DefaultAnonymous bool   `json:"default_anonymous"`
}

// SessionCacheKey возвращает ключ кэша сессии для пользователя.
func SessionCacheKey(userID uint) string {
	return fmt.Sprintf("user:%d:data", userID)
}

// AuthMiddleware проверяет JWT (cookie или заголовок Authorization),
// загружает данные сессии из кэша или БД и кладет их в контекст Gin.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie("auth_token")
		if err != nil || tokenStr == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				handleAuthError(c, "Authorization token not provided")
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				handleAuthError(c, "Invalid Authorization header format")
				return
			}
			tokenStr = parts[1]
		}

		token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return config.JwtKey, nil
		})

		if err != nil || !token.Valid {
			c.SetCookie("auth_token", "", -1, "/", "", false, true)
			handleAuthError(c, "Invalid or expired token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			handleAuthError(c, "Invalid token claims")
			return
		}

		userIDFloat, ok := claims["user_id"].(float64)
		if !ok {
			handleAuthError(c, "Invalid user ID format in token")
			return
		}
		userID := uint(userIDFloat)

		cacheKey := SessionCacheKey(userID)
		if config.RDB != nil {
			cachedData, err := config.RDB.Get(config.Ctx, cacheKey).Result()
			if err == nil {
				var sessionData CachedSessionData
				if json.Unmarshal([]byte(cachedData), &sessionData) == nil {
					setContextAndProceed(c, &sessionData)
					return
				}
				slog.Warn("Failed to unmarshal cached session data", "user_id", userID, "data", cachedData)
			} else if err != redis.Nil {
				slog.Error("Redis GET command failed", "error", err, "user_id", userID)
			}
		}

		// Кэш пуст — загружаем профиль из БД.
		var profile models.Profile
		if err := config.DB.First(&profile, userID).Error; err != nil {
			c.SetCookie("auth_token", "", -1, "/", "", false, true)
			handleAuthError(c, "User from token not found in DB")
			return
		}

		sessionData := CachedSessionData{
			UserID:           profile.ID,
			Username:         profile.Username,
			DefaultAnonymous: profile.DefaultAnonymous,
		}

		if config.RDB != nil {
			jsonData, err := json.Marshal(sessionData)
			if err != nil {
				slog.Error("Failed to marshal session data for caching", "error", err, "user_id", userID)
			} else {
				if err := config.RDB.Set(config.Ctx, cacheKey, jsonData, 10*time.Minute).Err(); err != nil {
					slog.Error("Failed to SET session data to cache", "error", err, "user_id", userID)
				}
			}
		}

		setContextAndProceed(c, &sessionData)
	}
}

func setContextAndProceed(c *gin.Context, sessionData *CachedSessionData) {
	c.Set("user_id", sessionData.UserID)
	c.Set("username", sessionData.Username)
	c.Set("default_anonymous", sessionData.DefaultAnonymous)
	c.Next()
}

func handleAuthError(c *gin.Context, message string) {
	if strings.Contains(c.GetHeader("Accept"), "text/html") {
		c.Redirect(http.StatusFound, "/")
	} else {
		c.JSON(http.StatusUnauthorized, gin.H{"error": message})
	}
	c.Abort()
}
