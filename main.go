package main

import (
	"log/slog"
	"os"

	"github.com/ByteBuildersCorp/hidden-feeds/config"
	"github.com/ByteBuildersCorp/hidden-feeds/internal/handlers"
	"github.com/ByteBuildersCorp/hidden-feeds/internal/routes"
	"github.com/ByteBuildersCorp/hidden-feeds/models"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env нужен только для локальной разработки, в проде переменные
	// приходят из окружения.
	if err := godotenv.Load(); err != nil {
		slog.Info("Файл .env не найден, используются переменные окружения")
	}

	config.InitJWT()
	config.ConnectDB()
	config.ConnectRedis()

	if err := config.InitGoogleServices(); err != nil {
		slog.Warn("Gemini client is not available, content feedback disabled", "error", err)
	}

	err := config.DB.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Post{},
		&models.PostLike{},
		&models.Poll{},
		&models.PollOption{},
		&models.UserVote{},
		&models.Comment{},
	)
	if err != nil {
		slog.Error("Ошибка миграции БД", "error", err)
		os.Exit(1)
	}

	go handlers.GlobalHub.Run()

	r := gin.Default()
	r.MaxMultipartMemory = 8 << 20 // 8 MiB
	r.Static("/static", "./static")

	routes.SetupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	slog.Info("Сервер запущен", "port", port)
	if err := r.Run(":" + port); err != nil {
		slog.Error("Ошибка запуска сервера", "error", err)
		os.Exit(1)
	}
}
