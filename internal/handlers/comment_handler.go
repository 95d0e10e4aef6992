package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ByteBuildersCorp/hidden-feeds/config"
	"github.com/ByteBuildersCorp/hidden-feeds/models"

	"github.com/gin-gonic/gin"
)

// CreateCommentInput defines the structure for creating a comment.
// Заполняется ровно одно из полей postId/pollId.
type CreateCommentInput struct {
	Content     string `json:"content" binding:"required"`
	PostID      *uint  `json:"postId"`
	PollID      *uint  `json:"pollId"`
	IsAnonymous *bool  `json:"isAnonymous"`
}

// CommentResponse defines the structure for a comment in API responses.
type CommentResponse struct {
	ID          uint            `json:"id"`
	Content     string          `json:"content"`
	IsAnonymous bool            `json:"isAnonymous"`
	Author      *AuthorResponse `json:"author,omitempty"`
	PostID      *uint           `json:"postId,omitempty"`
	PollID      *uint           `json:"pollId,omitempty"`
	CreatedAt   string          `json:"createdAt"`
}

func buildCommentResponse(comment models.Comment) CommentResponse {
	return CommentResponse{
		ID:          comment.ID,
		Content:     comment.Content,
		IsAnonymous: comment.IsAnonymous,
		Author:      authorResponse(comment.Author, comment.IsAnonymous),
		PostID:      comment.PostID,
		PollID:      comment.PollID,
		CreatedAt:   comment.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// commentScope возвращает scope события для родителя комментария.
func commentScope(comment models.Comment) string {
	if comment.PostID != nil {
		return fmt.Sprintf("post:%d", *comment.PostID)
	}
	return fmt.Sprintf("poll:%d", *comment.PollID)
}

// CreateCommentHandler создает комментарий к посту или опросу.
func CreateCommentHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var input CreateCommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	// Комментарий принадлежит либо посту, либо опросу — никогда обоим.
	if (input.PostID == nil) == (input.PollID == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Exactly one of postId or pollId must be set"})
		return
	}

	if input.PostID != nil {
		var parent models.Post
		if err := config.DB.First(&parent, *input.PostID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
	} else {
		var parent models.Poll
		if err := config.DB.First(&parent, *input.PollID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Poll not found"})
			return
		}
	}

	isAnonymous := c.GetBool("default_anonymous")
	if input.IsAnonymous != nil {
		isAnonymous = *input.IsAnonymous
	}

	comment := models.Comment{
		Content:     input.Content,
		AuthorID:    userID,
		IsAnonymous: isAnonymous,
		PostID:      input.PostID,
		PollID:      input.PollID,
	}

	if err := config.DB.Create(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment: " + err.Error()})
		return
	}

	config.DB.Preload("Author").First(&comment, comment.ID)

	GlobalHub.BroadcastChange(commentScope(comment), "comment_created", "comment", comment.ID)

	c.JSON(http.StatusCreated, buildCommentResponse(comment))
}

// ListCommentsHandler возвращает комментарии одного поста или опроса,
// старые сверху.
func ListCommentsHandler(c *gin.Context) {
	postID := c.Query("post_id")
	pollID := c.Query("poll_id")

	if (postID == "") == (pollID == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Exactly one of post_id or poll_id must be set"})
		return
	}

	query := config.DB.Preload("Author").Order("created_at asc")
	if postID != "" {
		query = query.Where("post_id = ?", postID)
	} else {
		query = query.Where("poll_id = ?", pollID)
	}

	var comments []models.Comment
	if err := query.Find(&comments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch comments"})
		return
	}

	responseData := make([]CommentResponse, 0, len(comments))
	for _, comment := range comments {
		responseData = append(responseData, buildCommentResponse(comment))
	}

	c.JSON(http.StatusOK, responseData)
}

// DeleteCommentHandler удаляет комментарий. Доступно только автору.
func DeleteCommentHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	commentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID"})
		return
	}

	var comment models.Comment
	if err := config.DB.First(&comment, commentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	if comment.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to delete this comment"})
		return
	}

	if err := config.DB.Delete(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	GlobalHub.BroadcastChange(commentScope(comment), "comment_deleted", "comment", comment.ID)

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
