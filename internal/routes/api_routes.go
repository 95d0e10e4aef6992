package routes

import (
	"github.com/ByteBuildersCorp/hidden-feeds/internal/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterAPIRoutes регистрирует все маршруты API, требующие аутентификации.
func RegisterAPIRoutes(api *gin.RouterGroup) {
	apiGroup := api.Group("/api")
	{
		// --- ПОСТЫ ---
		posts := apiGroup.Group("/posts")
		{
			posts.GET("", handlers.ListPostsHandler)
			posts.POST("", handlers.CreatePostHandler)
			posts.GET("/:id", handlers.GetPostHandler)
			posts.PUT("/:id", handlers.UpdatePostHandler)
			posts.DELETE("/:id", handlers.DeletePostHandler)
			posts.POST("/:id/like", handlers.ToggleLikeHandler)
		}

		// --- ОПРОСЫ ---
		polls := apiGroup.Group("/polls")
		{
			polls.GET("", handlers.ListPollsHandler)
			polls.POST("", handlers.CreatePollHandler)
			polls.GET("/:id", handlers.GetPollHandler)
			polls.DELETE("/:id", handlers.DeletePollHandler)
			polls.POST("/:id/vote/:optionId", handlers.VoteInPollHandler)
			polls.GET("/:id/vote", handlers.HasVotedHandler)
		}

		// --- КОММЕНТАРИИ ---
		comments := apiGroup.Group("/comments")
		{
			comments.GET("", handlers.ListCommentsHandler)
			comments.POST("", handlers.CreateCommentHandler)
			comments.DELETE("/:id", handlers.DeleteCommentHandler)
		}

		// --- ПРОФИЛЬ ---
		profile := apiGroup.Group("/profile")
		{
			profile.GET("", handlers.GetProfileHandler)
			profile.PUT("", handlers.UpdateProfileHandler)
		}
		apiGroup.GET("/profiles/:username", handlers.GetProfileByUsernameHandler)

		// --- АККАУНТ ---
		apiGroup.DELETE("/account", handlers.DeleteAccountHandler)

		// --- СОБЫТИЯ (WebSocket) ---
		apiGroup.GET("/events/ws", handlers.EventsWSEndpoint)

		// --- ИИ-СОВЕТЫ ПО КОНТЕНТУ ---
		apiGroup.POST("/generate-content-feedback", handlers.GenerateContentFeedbackHandler)
	}
}
