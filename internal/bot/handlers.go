package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/yourname/orderbot/internal/cache"
	"github.com/yourname/orderbot/internal/config"
	"github.com/yourname/orderbot/internal/domain"
	"github.com/yourname/orderbot/internal/orders"
	"github.com/yourname/orderbot/internal/sched"
)

// api is the slice of tgbotapi.BotAPI the handler uses; kept narrow so tests
// can fake deliveries.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
	GetChatAdministrators(config tgbotapi.ChatAdministratorsConfig) ([]tgbotapi.ChatMember, error)
}

type UserStore interface {
	Upsert(ctx context.Context, telegramID int64, username, firstName, lastName *string) error
}

type ChatStore interface {
	FindByChatID(ctx context.Context, chatID int64) (*domain.Chat, error)
	Save(ctx context.Context, c domain.Chat) error
	Touch(ctx context.Context, chatID int64, chatType, title string) error
	ActiveGroupChats(ctx context.Context) ([]domain.Chat, error)
	WithSummariesEnabled(ctx context.Context) ([]domain.Chat, error)
}

// Summarizer is the order engine as seen from the transport layer.
type Summarizer interface {
	SaveOrder(ctx context.Context, userID, chatID, messageID int64, text string) (*domain.Order, error)
	CalculateDailyTotals(ctx context.Context, day time.Time) ([]orders.DailyTotal, error)
	FormatDailyTotalMessage(ctx context.Context, totals []orders.DailyTotal, chatID int64) (string, error)
}

type Handler struct {
	api       api
	cfg       config.Config
	users     UserStore
	chats     ChatStore
	processor Summarizer
	jobs      *sched.Registry
	admins    *cache.AdminCache // nil disables caching
	now       func() time.Time
}

func NewHandler(a api, cfg config.Config, users UserStore, chats ChatStore, processor Summarizer, jobs *sched.Registry, admins *cache.AdminCache) *Handler {
	return &Handler{
		api:       a,
		cfg:       cfg,
		users:     users,
		chats:     chats,
		processor: processor,
		jobs:      jobs,
		admins:    admins,
		now:       time.Now,
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil {
		msg = upd.EditedMessage
	}
	if msg == nil || msg.From == nil {
		return
	}

	// Record the sender and the chat on every update, like the original
	// save-user-and-chat middleware.
	if err := h.users.Upsert(ctx, msg.From.ID, optional(msg.From.UserName), optional(msg.From.FirstName), optional(msg.From.LastName)); err != nil {
		log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("upsert user")
		return
	}
	if err := h.chats.Touch(ctx, msg.Chat.ID, msg.Chat.Type, msg.Chat.Title); err != nil {
		log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("touch chat")
		return
	}

	if msg.IsCommand() {
		// Commands only make sense on live messages.
		if upd.Message != nil {
			h.handleCommand(ctx, msg)
		}
		return
	}

	h.handleSaveOrder(ctx, msg)
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		h.reply(msg.Chat.ID, "Hi! Post your order as `Cafe sua da - 52k` or `Cafe sua da 52k` and I'll keep score.\n\nCommands:\n/settime HH:MM — set the daily summary time\n/summary — post the summary now", true)
	case "settime":
		h.handleSetTime(ctx, msg)
	case "summary":
		h.handleSummaryNow(ctx, msg)
	}
}

func (h *Handler) handleSaveOrder(ctx context.Context, msg *tgbotapi.Message) {
	text := msg.Text
	if text == "" {
		return
	}

	saved, err := h.processor.SaveOrder(ctx, msg.From.ID, msg.Chat.ID, int64(msg.MessageID), text)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("save order")
		h.reply(msg.Chat.ID, "⚠️ Couldn't process that message. Please try again.", false)
		return
	}
	if saved == nil {
		// Not an order. Stay quiet.
		return
	}

	h.react(msg.Chat.ID, msg.MessageID, "👍")
}

// react acknowledges a saved order. tgbotapi v5 has no typed wrapper for
// setMessageReaction, so the call goes through MakeRequest.
func (h *Handler) react(chatID int64, messageID int, emoji string) {
	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", chatID)
	params.AddNonZero("message_id", messageID)
	params["reaction"] = `[{"type":"emoji","emoji":"` + emoji + `"}]`
	if _, err := h.api.MakeRequest("setMessageReaction", params); err != nil {
		log.Debug().Err(err).Int64("chat_id", chatID).Msg("reaction failed")
	}
}

func (h *Handler) reply(chatID int64, text string, markdown bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markdown {
		msg.ParseMode = "Markdown"
	}
	if _, err := h.api.Send(msg); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("send reply")
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
