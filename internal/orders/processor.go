package orders

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/yourname/orderbot/internal/domain"
)

// DailyTotal is one user's aggregate for a single day. Recomputed on every
// run, never persisted.
type DailyTotal struct {
	UserID      int64
	Username    *string
	FirstName   *string
	LastName    *string
	TotalAmount int64
	OrderCount  int
	Orders      []domain.Order
}

// Processor is the order engine: text in, persisted orders and daily
// aggregates out.
type Processor struct {
	store OrderStore
	chats ChatStore
	loc   *time.Location
	now   func() time.Time
}

func NewProcessor(store OrderStore, chats ChatStore, loc *time.Location) *Processor {
	return &Processor{store: store, chats: chats, loc: loc, now: time.Now}
}

// SaveOrder parses text and persists the result. Non-order text returns
// (nil, nil); a storage failure propagates to the caller.
func (p *Processor) SaveOrder(ctx context.Context, userID, chatID, messageID int64, text string) (*domain.Order, error) {
	cand, ok := ParseOrder(text)
	if !ok {
		return nil, nil
	}

	order := domain.Order{
		UserID:      userID,
		ChatID:      chatID,
		MessageID:   messageID,
		ProductName: cand.ProductName,
		Amount:      cand.Amount,
		CreatedAt:   p.now(),
	}
	if err := p.store.CreateOrUpdate(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	return &order, nil
}

// CalculateDailyTotals aggregates the day's orders per user, ranked
// descending by total. Ties keep the order in which the buckets were first
// seen, so an unchanged snapshot always yields the same sequence.
func (p *Processor) CalculateDailyTotals(ctx context.Context, day time.Time) ([]DailyTotal, error) {
	orders, err := p.store.OrdersForDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	users, err := p.store.UsersWithOrdersForDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}

	// One chat lookup per distinct chat, not per order.
	chats := map[int64]*domain.Chat{}
	for _, o := range orders {
		if _, seen := chats[o.ChatID]; seen {
			continue
		}
		c, err := p.chats.FindByChatID(ctx, o.ChatID)
		if err != nil {
			return nil, fmt.Errorf("resolve chat %d: %w", o.ChatID, err)
		}
		chats[o.ChatID] = c
	}

	byUser := map[int64]int{}
	var totals []DailyTotal

	for _, o := range orders {
		// Drop orders whose chat is gone or inconsistent with the record.
		chat := chats[o.ChatID]
		if chat == nil || chat.ChatID != o.ChatID {
			continue
		}

		idx, seen := byUser[o.UserID]
		if !seen {
			t := DailyTotal{UserID: o.UserID}
			if u := findUser(users, o.UserID); u != nil {
				t.Username = u.Username
				t.FirstName = u.FirstName
				t.LastName = u.LastName
			}
			totals = append(totals, t)
			idx = len(totals) - 1
			byUser[o.UserID] = idx
		}

		totals[idx].TotalAmount += o.Amount
		totals[idx].OrderCount++
		totals[idx].Orders = append(totals[idx].Orders, o)
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].TotalAmount > totals[j].TotalAmount
	})
	return totals, nil
}

func findUser(users []domain.User, telegramID int64) *domain.User {
	for i := range users {
		if users[i].TelegramID == telegramID {
			return &users[i]
		}
	}
	return nil
}
