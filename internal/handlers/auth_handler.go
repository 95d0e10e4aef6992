package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ByteBuildersCorp/hidden-feeds/config"
	"github.com/ByteBuildersCorp/hidden-feeds/internal/middleware"
	"github.com/ByteBuildersCorp/hidden-feeds/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenLifetime = 7 * 24 * time.Hour

// RegisterInput defines the structure for the registration form.
type RegisterInput struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginInput defines the structure for the login form.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterHandler создает учетную запись и профиль пользователя.
func RegisterHandler(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	// Имя пользователя уникально без учета регистра.
	var taken int64
	config.DB.Model(&models.Profile{}).
		Where("LOWER(username) = LOWER(?)", input.Username).
		Count(&taken)
	if taken > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Это имя пользователя уже занято"})
		return
	}

	var emailTaken int64
	config.DB.Model(&models.User{}).Where("email = ?", input.Email).Count(&emailTaken)
	if emailTaken > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Пользователь с таким email уже существует"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Email:    input.Email,
		Password: string(hashedPassword),
	}

	// Учетная запись и профиль создаются в одной транзакции:
	// профиль без учетной записи (и наоборот) существовать не должен.
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		profile := models.Profile{
			ID:       user.ID,
			Name:     input.Name,
			Username: input.Username,
			Email:    input.Email,
		}
		return tx.Create(&profile).Error
	})

	if err != nil {
		slog.Error("Failed to register user", "error", err, "email", input.Email)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register: " + err.Error()})
		return
	}

	issueToken(c, user.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "Регистрация прошла успешно", "userId": user.ID})
}

// LoginHandler проверяет пароль и выдает JWT в cookie.
func LoginHandler(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверный email или пароль"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверный email или пароль"})
		return
	}

	issueToken(c, user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Вход выполнен", "userId": user.ID})
}

// LogoutHandler завершает сессию: чистит cookie и кэш сессии.
func LogoutHandler(c *gin.Context) {
	if tokenStr, err := c.Cookie("auth_token"); err == nil && tokenStr != "" && config.RDB != nil {
		if token, _ := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) { return config.JwtKey, nil }); token != nil {
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				if userIDFloat, ok := claims["user_id"].(float64); ok {
					cacheKey := middleware.SessionCacheKey(uint(userIDFloat))
					if err := config.RDB.Del(config.Ctx, cacheKey).Err(); err != nil {
						slog.Warn("Failed to drop session cache on logout", "error", err)
					}
				}
			}
		}
	}

	c.SetCookie("auth_token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Выход выполнен"})
}

func issueToken(c *gin.Context, userID uint) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(tokenLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(config.JwtKey)
	if err != nil {
		slog.Error("Failed to sign JWT", "error", err, "user_id", userID)
		return
	}
	c.SetCookie("auth_token", tokenStr, int(tokenLifetime.Seconds()), "/", "", false, true)
}

// currentUserID извлекает ID текущего пользователя из контекста Gin.
func currentUserID(c *gin.Context) (uint, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	userID, ok := userIDVal.(uint)
	return userID, ok
}

// normalizeConfirmation приводит фразу подтверждения к сравнимому виду.
func normalizeConfirmation(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
