package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ByteBuildersCorp/hidden-feeds/config"
	"github.com/ByteBuildersCorp/hidden-feeds/internal/cascade"
	"github.com/ByteBuildersCorp/hidden-feeds/internal/middleware"
	"github.com/ByteBuildersCorp/hidden-feeds/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AccountDeletionPhrase — фраза подтверждения удаления аккаунта.
// Сравнение без учета регистра. Это предусловие оркестратора,
// а не только защита в UI: отключенная кнопка может быть обойдена.
const AccountDeletionPhrase = "delete my account"

// DeleteAccountInput defines the structure for the account deletion request.
type DeleteAccountInput struct {
	Confirmation string `json:"confirmation" binding:"required"`
}

// DeleteAccountHandler удаляет аккаунт и все данные пользователя.
//
// Порядок шагов фиксирован: сперва голоса и лайки пользователя на чужом
// контенте, затем зависимые строки его опросов и постов (пакетно, по
// собранным наборам id), затем сами опросы и посты, оставшиеся
// комментарии, профиль и в конце учетная запись. Отката нет: частично
// удаленный аккаунт — допустимое состояние, повторный запуск доводит
// удаление до конца, т.к. каждый шаг идемпотентен.
func DeleteAccountHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var input DeleteAccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	if normalizeConfirmation(input.Confirmation) != AccountDeletionPhrase {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Фраза подтверждения не совпадает"})
		return
	}

	// Наборы id собираются заранее, чтобы удалять зависимые строки
	// пакетно, одним запросом на таблицу.
	var pollIDs []uint
	var postIDs []uint

	steps := []cascade.Step{
		{Name: "delete cast votes and likes", Run: func(db *gorm.DB) error {
			if err := db.Where("user_id = ?", userID).Delete(&models.UserVote{}).Error; err != nil {
				return err
			}
			return db.Where("user_id = ?", userID).Delete(&models.PostLike{}).Error
		}},
		{Name: "delete owned polls dependents", Run: func(db *gorm.DB) error {
			if err := db.Model(&models.Poll{}).Where("author_id = ?", userID).Pluck("id", &pollIDs).Error; err != nil {
				return err
			}
			if len(pollIDs) == 0 {
				return nil
			}
			if err := db.Where("poll_id IN ?", pollIDs).Delete(&models.PollOption{}).Error; err != nil {
				return err
			}
			if err := db.Where("poll_id IN ?", pollIDs).Delete(&models.UserVote{}).Error; err != nil {
				return err
			}
			return db.Where("poll_id IN ?", pollIDs).Delete(&models.Comment{}).Error
		}},
		{Name: "delete owned polls", Run: func(db *gorm.DB) error {
			return db.Where("author_id = ?", userID).Delete(&models.Poll{}).Error
		}},
		{Name: "delete owned posts dependents", Run: func(db *gorm.DB) error {
			if err := db.Model(&models.Post{}).Where("author_id = ?", userID).Pluck("id", &postIDs).Error; err != nil {
				return err
			}
			if len(postIDs) == 0 {
				return nil
			}
			if err := db.Where("post_id IN ?", postIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			return db.Where("post_id IN ?", postIDs).Delete(&models.PostLike{}).Error
		}},
		{Name: "delete owned posts", Run: func(db *gorm.DB) error {
			return db.Where("author_id = ?", userID).Delete(&models.Post{}).Error
		}},
		{Name: "delete own comments", Run: func(db *gorm.DB) error {
			return db.Where("author_id = ?", userID).Delete(&models.Comment{}).Error
		}},
		{Name: "delete profile", Run: func(db *gorm.DB) error {
			return db.Delete(&models.Profile{}, userID).Error
		}},
		{Name: "delete auth record", Run: func(db *gorm.DB) error {
			return db.Delete(&models.User{}, userID).Error
		}},
	}

	if err := cascade.Execute(config.DB, "account", steps); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account: " + err.Error()})
		return
	}

	// Завершаем локальную сессию: чистим кэш и cookie.
	if config.RDB != nil {
		cacheKey := middleware.SessionCacheKey(userID)
		if err := config.RDB.Del(config.Ctx, cacheKey).Err(); err != nil {
			slog.Warn("Failed to drop session cache after account deletion", "error", err, "user_id", userID)
		}
	}
	c.SetCookie("auth_token", "", -1, "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{"message": "Аккаунт удален"})
}
