package models

import "time"

// Post представляет текстовый пост в ленте.
type Post struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Content     string    `json:"content" gorm:"type:text;not null"`
	AuthorID    uint      `json:"authorId" gorm:"index;not null"`
	Author      Profile   `json:"author" gorm:"foreignKey:AuthorID"`
	IsAnonymous bool      `json:"isAnonymous" gorm:"default:false"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PostLike — отметка "нравится". Не более одной на пару (пост, пользователь).
type PostLike struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	PostID uint `json:"postId" gorm:"uniqueIndex:idx_post_likes_post_user;not null"`
	UserID uint `json:"userId" gorm:"uniqueIndex:idx_post_likes_post_user;not null"`
}
