// Package testutil содержит общие помощники для тестов обработчиков:
// изолированную БД SQLite в памяти вместо Postgres и тестовый роутер,
// который берет пользователя из заголовка X-Test-User вместо JWT.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/ByteBuildersCorp/hidden-feeds/config"
	"github.com/ByteBuildersCorp/hidden-feeds/internal/routes"
	"github.com/ByteBuildersCorp/hidden-feeds/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupDB создает отдельную БД в памяти для одного теста и подменяет
// глобальное подключение. Имя БД включает имя теста, чтобы параллельные
// тесты не видели данные друг друга.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
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
		t.Fatalf("failed to migrate test database: %v", err)
	}

	config.DB = db
	config.RDB = nil
	config.JwtKey = []byte("test-secret")

	return db
}

// NewRouter собирает роутер API с тестовой аутентификацией: ID
// пользователя читается из заголовка X-Test-User.
func NewRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if v := c.GetHeader("X-Test-User"); v != "" {
			id, _ := strconv.Atoi(v)
			c.Set("user_id", uint(id))
		}
		c.Next()
	})
	routes.RegisterAPIRoutes(r.Group("/"))
	return r
}

// NewFullRouter собирает роутер с настоящим auth middleware и публичными
// маршрутами — для тестов всего цикла регистрация/вход/запрос.
func NewFullRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	routes.SetupRoutes(r)
	return r
}

// Request выполняет запрос к роутеру от имени пользователя userID
// (0 — неаутентифицированный запрос) с JSON-телом body.
func Request(t *testing.T, r *gin.Engine, method, path string, userID uint, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-Test-User", strconv.Itoa(int(userID)))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// DecodeBody разбирает JSON-ответ в out.
func DecodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

// CreateUser создает учетную запись и профиль и возвращает ID.
func CreateUser(t *testing.T, db *gorm.DB, username string) uint {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := models.User{
		Email:    username + "@example.com",
		Password: string(hash),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	profile := models.Profile{
		ID:       user.ID,
		Name:     username,
		Username: username,
		Email:    user.Email,
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	return user.ID
}

// RequireStatus завершает тест, если статус ответа отличается от want.
func RequireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("unexpected status: got %d, want %d, body: %s", w.Code, want, w.Body.String())
	}
}
