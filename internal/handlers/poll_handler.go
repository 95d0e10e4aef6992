package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/ByteBuildersCorp/hidden-feeds/config"
	"github.com/ByteBuildersCorp/hidden-feeds/internal/cascade"
	"github.com/ByteBuildersCorp/hidden-feeds/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PollLifetime — срок действия опроса с момента создания.
const PollLifetime = 7 * 24 * time.Hour

// CreatePollInput defines the structure for creating a poll.
type CreatePollInput struct {
	Question    string   `json:"question" binding:"required"`
	Options     []string `json:"options" binding:"required"`
	IsAnonymous *bool    `json:"isAnonymous"`
}

// PollOptionResponse — вариант ответа с вычисленным процентом.
type PollOptionResponse struct {
	ID         uint   `json:"id"`
	Text       string `json:"text"`
	Votes      int64  `json:"votes"`
	Percentage int    `json:"percentage"`
}

// PollResponse defines the structure for a poll in API responses.
type PollResponse struct {
	ID          uint                 `json:"id"`
	Question    string               `json:"question"`
	IsAnonymous bool                 `json:"isAnonymous"`
	Author      *AuthorResponse      `json:"author,omitempty"`
	Options     []PollOptionResponse `json:"options"`
	TotalVotes  int64                `json:"totalVotes"`
	MyVote      *uint                `json:"myVote,omitempty"`
	Expired     bool                 `json:"expired"`
	CreatedAt   string               `json:"createdAt"`
	ExpiresAt   string               `json:"expiresAt"`
}

// optionPercentage считает процент голосов одного варианта.
// Округление выполняется независимо по каждому варианту, без нормализации
// суммы к 100: так считает и отображает результаты клиент.
func optionPercentage(votes, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(votes) / float64(total) * 100))
}

func buildPollResponse(poll models.Poll, currentUser uint) PollResponse {
	var total int64
	for _, opt := range poll.Options {
		total += opt.Votes
	}

	options := make([]PollOptionResponse, 0, len(poll.Options))
	for _, opt := range poll.Options {
		options = append(options, PollOptionResponse{
			ID:         opt.ID,
			Text:       opt.Text,
			Votes:      opt.Votes,
			Percentage: optionPercentage(opt.Votes, total),
		})
	}

	resp := PollResponse{
		ID:          poll.ID,
		Question:    poll.Question,
		IsAnonymous: poll.IsAnonymous,
		Author:      authorResponse(poll.Author, poll.IsAnonymous),
		Options:     options,
		TotalVotes:  total,
		Expired:     time.Now().After(poll.ExpiresAt),
		CreatedAt:   poll.CreatedAt.Format(time.RFC3339),
		ExpiresAt:   poll.ExpiresAt.Format(time.RFC3339),
	}

	if currentUser != 0 {
		var vote models.UserVote
		err := config.DB.Where("poll_id = ? AND user_id = ?", poll.ID, currentUser).First(&vote).Error
		if err == nil {
			optionID := vote.OptionID
			resp.MyVote = &optionID
		}
	}

	return resp
}

// CreatePollHandler создает опрос с вариантами ответа (от 2 до 5).
// Опрос и варианты сохраняются одной транзакцией.
func CreatePollHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var input CreatePollInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	if len(input.Options) < 2 || len(input.Options) > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A poll must have between 2 and 5 options"})
		return
	}
	for _, optText := range input.Options {
		if optText == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Poll options cannot be empty"})
			return
		}
	}

	isAnonymous := c.GetBool("default_anonymous")
	if input.IsAnonymous != nil {
		isAnonymous = *input.IsAnonymous
	}

	now := time.Now()
	poll := models.Poll{
		Question:    input.Question,
		AuthorID:    userID,
		IsAnonymous: isAnonymous,
		ExpiresAt:   now.Add(PollLifetime),
	}
	for _, optText := range input.Options {
		poll.Options = append(poll.Options, models.PollOption{Text: optText})
	}

	if err := config.DB.Create(&poll).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create poll: " + err.Error()})
		return
	}

	config.DB.Preload("Author").Preload("Options").First(&poll, poll.ID)
	c.JSON(http.StatusCreated, buildPollResponse(poll, userID))
}

// ListPollsHandler возвращает список опросов, новые сверху.
func ListPollsHandler(c *gin.Context) {
	userID, _ := currentUserID(c)

	var totalRows int64
	config.DB.Model(&models.Poll{}).Count(&totalRows)

	var polls []models.Poll
	err := config.DB.Preload("Author").Preload("Options").
		Order("created_at desc").
		Scopes(Paginate(c)).
		Find(&polls).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch polls"})
		return
	}

	responseData := make([]PollResponse, 0, len(polls))
	for _, poll := range polls {
		responseData = append(responseData, buildPollResponse(poll, userID))
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, responseData, totalRows))
}

// GetPollHandler возвращает один опрос по ID.
func GetPollHandler(c *gin.Context) {
	userID, _ := currentUserID(c)

	var poll models.Poll
	if err := config.DB.Preload("Author").Preload("Options").First(&poll, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Poll not found"})
		return
	}

	c.JSON(http.StatusOK, buildPollResponse(poll, userID))
}

// VoteInPollHandler регистрирует голос в опросе.
// Голос и инкремент счетчика варианта выполняются одной транзакцией,
// чтобы не получить учтенный, но не записанный голос. Повторный голос
// отклоняется на уровне данных (уникальный индекс), а не только в UI.
func VoteInPollHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	pollID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid poll ID"})
		return
	}
	optionID, err := strconv.Atoi(c.Param("optionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid option ID"})
		return
	}

	var poll models.Poll
	if err := config.DB.First(&poll, pollID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Poll not found"})
		return
	}

	if time.Now().After(poll.ExpiresAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This poll has expired"})
		return
	}

	// Вариант должен принадлежать опросу.
	var option models.PollOption
	if err := config.DB.Where("id = ? AND poll_id = ?", optionID, pollID).First(&option).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Poll option not found"})
		return
	}

	var existingVote models.UserVote
	err = config.DB.Where("poll_id = ? AND user_id = ?", pollID, userID).First(&existingVote).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "You have already voted in this poll"})
		return
	}
	if err != gorm.ErrRecordNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error while checking vote"})
		return
	}

	vote := models.UserVote{
		PollID:   uint(pollID),
		UserID:   userID,
		OptionID: uint(optionID),
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&vote).Error; err != nil {
			return fmt.Errorf("не удалось записать голос: %w", err)
		}
		if err := tx.Model(&models.PollOption{}).
			Where("id = ?", optionID).
			UpdateColumn("votes", gorm.Expr("votes + 1")).Error; err != nil {
			return fmt.Errorf("не удалось обновить счетчик варианта: %w", err)
		}
		return nil
	})

	if err != nil {
		// Гонка двух запросов одного пользователя разрешается уникальным
		// индексом: если строка голоса уже появилась, это повторный голос.
		var raceVote int64
		config.DB.Model(&models.UserVote{}).
			Where("poll_id = ? AND user_id = ?", pollID, userID).
			Count(&raceVote)
		if raceVote > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "You have already voted in this poll"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cast vote: " + err.Error()})
		return
	}

	GlobalHub.BroadcastChange(fmt.Sprintf("poll:%d", pollID), "vote_cast", "poll", uint(pollID))

	var updatedPoll models.Poll
	config.DB.Preload("Author").Preload("Options").First(&updatedPoll, pollID)
	c.JSON(http.StatusOK, buildPollResponse(updatedPoll, userID))
}

// HasVotedHandler сообщает, голосовал ли пользователь, и за какой вариант.
func HasVotedHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	pollID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid poll ID"})
		return
	}

	var vote models.UserVote
	err = config.DB.Where("poll_id = ? AND user_id = ?", pollID, userID).First(&vote).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusOK, gin.H{"voted": false})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error while checking vote"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"voted": true, "optionId": vote.OptionID})
}

// DeletePollHandler удаляет опрос вместе с зависимыми строками.
// Порядок фиксирован: комментарии -> голоса -> варианты -> сам опрос.
// Так дочерние строки никогда не ссылаются на уже удаленного родителя,
// а каждый шаг идемпотентен и безопасен для повторного запуска.
func DeletePollHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	pollID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid poll ID"})
		return
	}

	var poll models.Poll
	if err := config.DB.First(&poll, pollID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Poll not found"})
		return
	}

	if poll.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to delete this poll"})
		return
	}

	steps := []cascade.Step{
		{Name: "delete comments", Run: func(db *gorm.DB) error {
			return db.Where("poll_id = ?", pollID).Delete(&models.Comment{}).Error
		}},
		{Name: "delete votes", Run: func(db *gorm.DB) error {
			return db.Where("poll_id = ?", pollID).Delete(&models.UserVote{}).Error
		}},
		{Name: "delete options", Run: func(db *gorm.DB) error {
			return db.Where("poll_id = ?", pollID).Delete(&models.PollOption{}).Error
		}},
		{Name: "delete poll", Run: func(db *gorm.DB) error {
			return db.Delete(&models.Poll{}, pollID).Error
		}},
	}

	if err := cascade.Execute(config.DB, "poll", steps); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete poll: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Poll deleted successfully"})
}
