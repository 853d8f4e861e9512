package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yourname/orderbot/internal/domain"
)

// Orders persists parsed orders. All day-window queries use the configured
// location: a "day" is a calendar day in that timezone.
type Orders struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

func NewOrders(p *pgxpool.Pool, loc *time.Location) *Orders { return &Orders{pool: p, loc: loc} }

// CreateOrUpdate upserts by (chat_id, message_id) so that an edited message
// corrects its order. The original created_at is kept on update.
func (r *Orders) CreateOrUpdate(ctx context.Context, o domain.Order) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO orders(user_id, chat_id, message_id, product_name, amount, created_at)
		VALUES($1,$2,$3,$4,$5,$6)
		ON CONFLICT (chat_id, message_id) DO UPDATE
		SET product_name=EXCLUDED.product_name,
			amount=EXCLUDED.amount
	`, o.UserID, o.ChatID, o.MessageID, o.ProductName, o.Amount, o.CreatedAt)
	return err
}

// OrdersForDay returns the day's orders in a stable order (creation, then id)
// so repeated aggregation runs over an unchanged snapshot are reproducible.
func (r *Orders) OrdersForDay(ctx context.Context, day time.Time) ([]domain.Order, error) {
	start, end := r.dayWindow(day)
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, chat_id, message_id, product_name, amount, created_at
		FROM orders
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at, id
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		if e := rows.Scan(&o.UserID, &o.ChatID, &o.MessageID, &o.ProductName, &o.Amount, &o.CreatedAt); e != nil {
			return nil, e
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Orders) UsersWithOrdersForDay(ctx context.Context, day time.Time) ([]domain.User, error) {
	start, end := r.dayWindow(day)
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT u.telegram_id, u.username, u.first_name, u.last_name, u.created_at
		FROM users u
		JOIN orders o ON o.user_id = u.telegram_id
		WHERE o.created_at >= $1 AND o.created_at < $2
		ORDER BY u.telegram_id
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var u domain.User
		if e := rows.Scan(&u.TelegramID, &u.Username, &u.FirstName, &u.LastName, &u.CreatedAt); e != nil {
			return nil, e
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// HasOrders reports whether any order was ever recorded for the chat.
func (r *Orders) HasOrders(ctx context.Context, chatID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE chat_id=$1)`, chatID).Scan(&exists)
	return exists, err
}

func (r *Orders) dayWindow(day time.Time) (time.Time, time.Time) {
	d := day.In(r.loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, r.loc)
	return start, start.AddDate(0, 0, 1)
}
