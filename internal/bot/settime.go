package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

var reTime = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)

// BuildCronExpression turns a strict HH:MM input into the 5-field expression
// persisted on a chat, firing on the configured weekdays.
func BuildCronExpression(timeInput, days string) (string, error) {
	m := reTime.FindStringSubmatch(timeInput)
	if m == nil {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeInput)
	}
	hour, minute := m[1], m[2]
	return fmt.Sprintf("%s %s * * %s", minute, hour, days), nil
}

func (h *Handler) handleSetTime(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		h.reply(msg.Chat.ID, "Usage: /settime HH:MM (e.g., /settime 17:00)", false)
		return
	}

	expr, err := BuildCronExpression(args[0], h.cfg.SummaryCronDays)
	if err != nil {
		h.reply(msg.Chat.ID, "⚠️ Invalid time format. Please use HH:MM (e.g., 17:00)", false)
		return
	}

	if !msg.Chat.IsPrivate() && !h.isAdmin(ctx, msg.Chat.ID, msg.From.ID) {
		h.reply(msg.Chat.ID, "⚠️ Only chat admins can change the summary time.", false)
		return
	}

	chat, err := h.chats.FindByChatID(ctx, msg.Chat.ID)
	if err != nil || chat == nil {
		log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("settime: load chat")
		h.reply(msg.Chat.ID, "⚠️ Couldn't save the summary time. Please try again.", false)
		return
	}

	chat.SendSummaries = true
	chat.CronExpression = expr
	if err := h.chats.Save(ctx, *chat); err != nil {
		log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("settime: save chat")
		h.reply(msg.Chat.ID, "⚠️ Couldn't save the summary time. Please try again.", false)
		return
	}

	if err := h.jobs.Upsert(msg.Chat.ID, expr, h.summaryJob(msg.Chat.ID)); err != nil {
		log.Error().Err(err).Str("expr", expr).Int64("chat_id", msg.Chat.ID).Msg("settime: schedule")
		h.reply(msg.Chat.ID, "⚠️ Couldn't schedule the summary. Please try again.", false)
		return
	}

	h.reply(msg.Chat.ID, fmt.Sprintf("✅ Daily summary time set to %s", args[0]), false)
}

// isAdmin checks chat admin rights, going through the Redis cache when one is
// configured. On any lookup failure it errs on the side of denying.
func (h *Handler) isAdmin(ctx context.Context, chatID, userID int64) bool {
	if h.admins != nil {
		if ids, ok := h.admins.Get(ctx, chatID); ok {
			return containsID(ids, userID)
		}
	}

	members, err := h.api.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("get chat administrators")
		return false
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if m.User != nil {
			ids = append(ids, m.User.ID)
		}
	}
	if h.admins != nil {
		if err := h.admins.Set(ctx, chatID, ids); err != nil {
			log.Debug().Err(err).Int64("chat_id", chatID).Msg("cache admins")
		}
	}
	return containsID(ids, userID)
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
