package orders

import (
	"context"
	"time"

	"github.com/yourname/orderbot/internal/domain"
)

// OrderStore is the persistence boundary for orders. The concrete store owns
// identity and the definition of the day window.
type OrderStore interface {
	CreateOrUpdate(ctx context.Context, o domain.Order) error
	OrdersForDay(ctx context.Context, day time.Time) ([]domain.Order, error)
	UsersWithOrdersForDay(ctx context.Context, day time.Time) ([]domain.User, error)
	HasOrders(ctx context.Context, chatID int64) (bool, error)
}

// ChatStore resolves chats during aggregation and formatting.
type ChatStore interface {
	FindByChatID(ctx context.Context, chatID int64) (*domain.Chat, error)
}
