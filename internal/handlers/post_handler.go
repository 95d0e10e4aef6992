package handlers

import (
	"net/http"
	"strconv"

	"github.com/ByteBuildersCorp/hidden-feeds/config"
	"github.com/ByteBuildersCorp/hidden-feeds/internal/cascade"
	"github.com/ByteBuildersCorp/hidden-feeds/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthorResponse — публичные данные автора в ответах API.
type AuthorResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	ImageURL string `json:"imageUrl"`
}

// PostResponse defines the structure for a post in API responses.
// Для анонимных постов автор не раскрывается.
type PostResponse struct {
	ID           uint            `json:"id"`
	Content      string          `json:"content"`
	IsAnonymous  bool            `json:"isAnonymous"`
	Author       *AuthorResponse `json:"author,omitempty"`
	LikeCount    int64           `json:"likeCount"`
	CommentCount int64           `json:"commentCount"`
	LikedByMe    bool            `json:"likedByMe"`
	CreatedAt    string          `json:"createdAt"`
	UpdatedAt    string          `json:"updatedAt"`
}

// CreatePostInput defines the structure for creating a post.
type CreatePostInput struct {
	Content     string `json:"content" binding:"required"`
	IsAnonymous *bool  `json:"isAnonymous"`
}

func authorResponse(p models.Profile, isAnonymous bool) *AuthorResponse {
	if isAnonymous {
		return nil
	}
	return &AuthorResponse{
		ID:       p.ID,
		Name:     p.Name,
		Username: p.Username,
		ImageURL: p.ImageURL,
	}
}

func buildPostResponse(post models.Post, currentUser uint) PostResponse {
	var likeCount, commentCount int64
	config.DB.Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(&likeCount)
	config.DB.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&commentCount)

	var likedByMe int64
	if currentUser != 0 {
		config.DB.Model(&models.PostLike{}).
			Where("post_id = ? AND user_id = ?", post.ID, currentUser).
			Count(&likedByMe)
	}

	return PostResponse{
		ID:           post.ID,
		Content:      post.Content,
		IsAnonymous:  post.IsAnonymous,
		Author:       authorResponse(post.Author, post.IsAnonymous),
		LikeCount:    likeCount,
		CommentCount: commentCount,
		LikedByMe:    likedByMe > 0,
		CreatedAt:    post.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:    post.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// CreatePostHandler создает новый пост.
// Если isAnonymous не передан, берется настройка профиля по умолчанию.
func CreatePostHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var input CreatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	isAnonymous := c.GetBool("default_anonymous")
	if input.IsAnonymous != nil {
		isAnonymous = *input.IsAnonymous
	}

	post := models.Post{
		Content:     input.Content,
		AuthorID:    userID,
		IsAnonymous: isAnonymous,
	}

	if err := config.DB.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post: " + err.Error()})
		return
	}

	config.DB.Preload("Author").First(&post, post.ID)
	c.JSON(http.StatusCreated, buildPostResponse(post, userID))
}

// ListPostsHandler возвращает ленту постов, новые сверху.
func ListPostsHandler(c *gin.Context) {
	userID, _ := currentUserID(c)

	var totalRows int64
	config.DB.Model(&models.Post{}).Count(&totalRows)

	var posts []models.Post
	err := config.DB.Preload("Author").
		Order("created_at desc").
		Scopes(Paginate(c)).
		Find(&posts).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch posts"})
		return
	}

	responseData := make([]PostResponse, 0, len(posts))
	for _, post := range posts {
		responseData = append(responseData, buildPostResponse(post, userID))
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, responseData, totalRows))
}

// GetPostHandler возвращает один пост по ID.
func GetPostHandler(c *gin.Context) {
	userID, _ := currentUserID(c)

	var post models.Post
	if err := config.DB.Preload("Author").First(&post, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	c.JSON(http.StatusOK, buildPostResponse(post, userID))
}

// UpdatePostHandler обновляет содержимое поста. Доступно только автору.
func UpdatePostHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var post models.Post
	if err := config.DB.First(&post, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if post.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to edit this post"})
		return
	}

	var input struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	post.Content = input.Content
	if err := config.DB.Save(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}

	config.DB.Preload("Author").First(&post, post.ID)
	c.JSON(http.StatusOK, buildPostResponse(post, userID))
}

// DeletePostHandler удаляет пост вместе с зависимыми строками.
// Порядок фиксирован: комментарии -> лайки -> сам пост. Каждый шаг
// идемпотентен, повторный запуск после сбоя доводит удаление до конца.
func DeletePostHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	var post models.Post
	if err := config.DB.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if post.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to delete this post"})
		return
	}

	steps := []cascade.Step{
		{Name: "delete comments", Run: func(db *gorm.DB) error {
			return db.Where("post_id = ?", postID).Delete(&models.Comment{}).Error
		}},
		{Name: "delete likes", Run: func(db *gorm.DB) error {
			return db.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error
		}},
		{Name: "delete post", Run: func(db *gorm.DB) error {
			return db.Delete(&models.Post{}, postID).Error
		}},
	}

	if err := cascade.Execute(config.DB, "post", steps); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// ToggleLikeHandler ставит или снимает отметку "нравится".
func ToggleLikeHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	var post models.Post
	if err := config.DB.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	var existing models.PostLike
	err = config.DB.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
	if err == nil {
		if err := config.DB.Delete(&existing).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove like"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"liked": false})
		return
	}
	if err != gorm.ErrRecordNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error while checking like"})
		return
	}

	like := models.PostLike{PostID: uint(postID), UserID: userID}
	if err := config.DB.Create(&like).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to like post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": true})
}
