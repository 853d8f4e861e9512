package domain

import "time"

type User struct {
	TelegramID int64
	Username   *string
	FirstName  *string
	LastName   *string
	CreatedAt  time.Time
}

type Chat struct {
	ChatID         int64
	Type           string
	Title          string
	IsActive       bool
	SendSummaries  bool
	CronExpression string
	CreatedAt      time.Time
}

// Order is a single parsed purchase. Amount is in minor units (VND),
// so "52k" is stored as 52000.
// Orders are keyed by (ChatID, MessageID): editing the original Telegram
// message rewrites the same order instead of inserting a second one.
type Order struct {
	UserID      int64
	ChatID      int64
	MessageID   int64
	ProductName string
	Amount      int64
	CreatedAt   time.Time
}
