package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yourname/orderbot/internal/domain"
)

type Users struct{ pool *pgxpool.Pool }

func NewUsers(p *pgxpool.Pool) *Users { return &Users{pool: p} }

func (r *Users) Upsert(ctx context.Context, telegramID int64, username, firstName, lastName *string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users(telegram_id, username, first_name, last_name)
		VALUES($1,$2,$3,$4)
		ON CONFLICT (telegram_id) DO UPDATE
		SET username=EXCLUDED.username,
			first_name=EXCLUDED.first_name,
			last_name=EXCLUDED.last_name
	`, telegramID, username, firstName, lastName)
	return err
}

func (r *Users) GetByTelegramID(ctx context.Context, telegramID int64) (domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, `
		SELECT telegram_id, username, first_name, last_name, created_at
		FROM users WHERE telegram_id=$1
	`, telegramID).Scan(&u.TelegramID, &u.Username, &u.FirstName, &u.LastName, &u.CreatedAt)
	return u, err
}
