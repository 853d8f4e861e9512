package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yourname/orderbot/internal/domain"
)

type Chats struct{ pool *pgxpool.Pool }

func NewChats(p *pgxpool.Pool) *Chats { return &Chats{pool: p} }

// FindByChatID returns nil when the chat is unknown.
func (r *Chats) FindByChatID(ctx context.Context, chatID int64) (*domain.Chat, error) {
	var c domain.Chat
	err := r.pool.QueryRow(ctx, `
		SELECT chat_id, type, title, is_active, send_summaries, cron_expression, created_at
		FROM chats WHERE chat_id=$1
	`, chatID).Scan(&c.ChatID, &c.Type, &c.Title, &c.IsActive, &c.SendSummaries, &c.CronExpression, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Chats) Save(ctx context.Context, c domain.Chat) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chats(chat_id, type, title, is_active, send_summaries, cron_expression)
		VALUES($1,$2,$3,$4,$5,$6)
		ON CONFLICT (chat_id) DO UPDATE
		SET type=EXCLUDED.type,
			title=EXCLUDED.title,
			is_active=EXCLUDED.is_active,
			send_summaries=EXCLUDED.send_summaries,
			cron_expression=EXCLUDED.cron_expression
	`, c.ChatID, c.Type, c.Title, c.IsActive, c.SendSummaries, c.CronExpression)
	return err
}

// Touch records the chat if unseen and refreshes type/title, without
// clobbering summary settings set through /settime.
func (r *Chats) Touch(ctx context.Context, chatID int64, chatType, title string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chats(chat_id, type, title)
		VALUES($1,$2,$3)
		ON CONFLICT (chat_id) DO UPDATE
		SET type=EXCLUDED.type,
			title=EXCLUDED.title
	`, chatID, chatType, title)
	return err
}

func (r *Chats) ActiveGroupChats(ctx context.Context) ([]domain.Chat, error) {
	return r.query(ctx, `
		SELECT chat_id, type, title, is_active, send_summaries, cron_expression, created_at
		FROM chats
		WHERE is_active AND type IN ('group','supergroup')
		ORDER BY chat_id
	`)
}

func (r *Chats) WithSummariesEnabled(ctx context.Context) ([]domain.Chat, error) {
	return r.query(ctx, `
		SELECT chat_id, type, title, is_active, send_summaries, cron_expression, created_at
		FROM chats
		WHERE is_active AND send_summaries AND cron_expression <> ''
		ORDER BY chat_id
	`)
}

func (r *Chats) query(ctx context.Context, sql string) ([]domain.Chat, error) {
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Chat
	for rows.Next() {
		var c domain.Chat
		if e := rows.Scan(&c.ChatID, &c.Type, &c.Title, &c.IsActive, &c.SendSummaries, &c.CronExpression, &c.CreatedAt); e != nil {
			return nil, e
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
