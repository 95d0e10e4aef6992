package models

import "time"

// Comment — комментарий к посту или опросу. Заполняется ровно одно из
// полей PostID/PollID; проверка выполняется на уровне обработчика.
type Comment struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Content     string    `json:"content" gorm:"type:text;not null"`
	AuthorID    uint      `json:"authorId" gorm:"index;not null"`
	Author      Profile   `json:"author" gorm:"foreignKey:AuthorID"`
	IsAnonymous bool      `json:"isAnonymous" gorm:"default:false"`
	PostID      *uint     `json:"postId,omitempty" gorm:"index"`
	PollID      *uint     `json:"pollId,omitempty" gorm:"index"`
	CreatedAt   time.Time `json:"createdAt"`
}
