package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ByteBuildersCorp/hidden-feeds/config"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
)

// FeedbackInput defines the structure for a content feedback request.
type FeedbackInput struct {
	Content string `json:"content" binding:"required"`
	Type    string `json:"type" binding:"required,oneof=post poll"`
}

// GenerateContentFeedbackHandler — прокси к Gemini для советов по контенту.
// Сервис сугубо вспомогательный: публикация поста или опроса никогда
// не блокируется его ошибками, клиент просто не показывает подсказку.
func GenerateContentFeedbackHandler(c *gin.Context) {
	var input FeedbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	if config.GeminiClient == nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Content feedback service is not available"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var feedbackPrompt string
	if input.Type == "poll" {
		feedbackPrompt = fmt.Sprintf(
			"Ты — редактор социальной платформы. Оцени вопрос опроса и дай короткий "+
				"совет (не более трех предложений), как сделать его понятнее и нейтральнее. "+
				"Отвечай дружелюбно, не придумывай факты. Вот вопрос: \"%s\"", input.Content)
	} else {
		feedbackPrompt = fmt.Sprintf(
			"Ты — редактор социальной платформы. Оцени текст поста и дай короткий "+
				"совет (не более трех предложений), как улучшить его ясность и тон. "+
				"Отвечай дружелюбно, не придумывай факты. Вот текст: \"%s\"", input.Content)
	}

	prompt := []genai.Part{genai.Text(feedbackPrompt)}

	resp, err := config.GeminiClient.GenerateContent(ctx, prompt...)
	if err != nil {
		slog.Error("Gemini content feedback error", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Content feedback service failed"})
		return
	}

	var feedbackText string
	if len(resp.Candidates) > 0 && len(resp.Candidates[0].Content.Parts) > 0 {
		if textPart, ok := resp.Candidates[0].Content.Parts[0].(genai.Text); ok {
			feedbackText = string(textPart)
		}
	}

	if feedbackText == "" {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Content feedback service returned an empty response"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"feedback": feedbackText})
}
