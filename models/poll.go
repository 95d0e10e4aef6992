package models

import "time"

// Poll — опрос с вариантами ответа. Варианты создаются атомарно вместе
// с опросом. Суммарное количество голосов не хранится: оно вычисляется
// из счетчиков вариантов при чтении.
type Poll struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	Question    string       `json:"question" gorm:"type:text;not null"`
	AuthorID    uint         `json:"authorId" gorm:"index;not null"`
	Author      Profile      `json:"author" gorm:"foreignKey:AuthorID"`
	IsAnonymous bool         `json:"isAnonymous" gorm:"default:false"`
	CreatedAt   time.Time    `json:"createdAt"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	Options     []PollOption `json:"options" gorm:"foreignKey:PollID"`
}

// PollOption — один вариант ответа. Инвариант: Votes >= 0, а сумма Votes
// по всем вариантам опроса равна числу строк UserVote этого опроса.
type PollOption struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	PollID uint   `json:"pollId" gorm:"index;not null"`
	Text   string `json:"text" gorm:"not null"`
	Votes  int64  `json:"votes" gorm:"default:0"`
}

// UserVote — голос пользователя. Уникальный индекс по (poll_id, user_id)
// гарантирует не более одного голоса на опрос, независимо от состояния UI.
type UserVote struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PollID    uint      `json:"pollId" gorm:"uniqueIndex:idx_user_votes_poll_user;not null"`
	UserID    uint      `json:"userId" gorm:"uniqueIndex:idx_user_votes_poll_user;not null"`
	OptionID  uint      `json:"optionId" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
}
