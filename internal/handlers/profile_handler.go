package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ByteBuildersCorp/hidden-feeds/config"
	"github.com/ByteBuildersCorp/hidden-feeds/internal/middleware"
	"github.com/ByteBuildersCorp/hidden-feeds/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetProfileHandler возвращает профиль текущего авторизованного пользователя.
func GetProfileHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var profile models.Profile
	if err := config.DB.First(&profile, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetProfileByUsernameHandler возвращает публичный профиль по имени пользователя.
func GetProfileByUsernameHandler(c *gin.Context) {
	username := c.Param("username")

	var profile models.Profile
	if err := config.DB.Where("LOWER(username) = LOWER(?)", username).First(&profile).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateProfileHandler обновляет профиль текущего пользователя.
// Форма может содержать имя, username, флаг анонимности по умолчанию и аватар.
func UpdateProfileHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var profile models.Profile
	if err := config.DB.First(&profile, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	if name := c.PostForm("name"); name != "" {
		profile.Name = name
	}

	if username := c.PostForm("username"); username != "" && !strings.EqualFold(username, profile.Username) {
		// Повторная проверка уникальности без учета регистра.
		var taken int64
		config.DB.Model(&models.Profile{}).
			Where("LOWER(username) = LOWER(?) AND id != ?", username, userID).
			Count(&taken)
		if taken > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Это имя пользователя уже занято"})
			return
		}
		profile.Username = username
	}

	if defaultAnon := c.PostForm("defaultAnonymous"); defaultAnon != "" {
		profile.DefaultAnonymous = defaultAnon == "true"
	}

	file, _ := c.FormFile("image")
	if file != nil {
		uploadDir := "./static/uploads/avatars"
		if err := os.MkdirAll(uploadDir, os.ModePerm); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create upload directory"})
			return
		}
		ext := strings.ToLower(filepath.Ext(file.Filename))
		newFileName := fmt.Sprintf("%s%s", uuid.New().String(), ext)
		filePath := filepath.Join(uploadDir, newFileName)
		if err := c.SaveUploadedFile(file, filePath); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save file: " + err.Error()})
			return
		}
		profile.ImageURL = "/static/uploads/avatars/" + newFileName
	}

	if err := config.DB.Save(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save profile: " + err.Error()})
		return
	}

	// Сброс кэша сессии после успешного обновления.
	if config.RDB != nil {
		cacheKey := middleware.SessionCacheKey(userID)
		if err := config.RDB.Del(config.Ctx, cacheKey).Err(); err != nil {
			slog.Warn("Failed to invalidate session cache after profile update", "error", err, "user_id", userID)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Профиль успешно обновлен!", "profile": profile})
}
