package models

import "time"

// User — учетная запись для аутентификации (email + хэш пароля).
// Отделена от Profile, чтобы при удалении аккаунта профиль и учетная
// запись удалялись отдельными шагами.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile — публичные данные пользователя. ID совпадает с User.ID.
type Profile struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Name             string    `json:"name"`
	Username         string    `json:"username" gorm:"uniqueIndex;not null"`
	Email            string    `json:"email"`
	ImageURL         string    `json:"imageUrl"`
	DefaultAnonymous bool      `json:"defaultAnonymous" gorm:"default:false"`
	CreatedAt        time.Time `json:"createdAt"`
}
