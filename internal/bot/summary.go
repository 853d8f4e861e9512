package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// InitSummaryJobs materializes one running cron job per chat that has
// summaries enabled. Called once at startup.
func (h *Handler) InitSummaryJobs(ctx context.Context) error {
	chats, err := h.chats.WithSummariesEnabled(ctx)
	if err != nil {
		return err
	}
	for _, chat := range chats {
		if err := h.jobs.Upsert(chat.ChatID, chat.CronExpression, h.summaryJob(chat.ChatID)); err != nil {
			log.Error().Err(err).Int64("chat_id", chat.ChatID).Str("expr", chat.CronExpression).Msg("schedule summary job")
			continue
		}
	}
	log.Info().Int("jobs", h.jobs.Len()).Msg("summary jobs initialized")
	return nil
}

// summaryJob is the zero-argument callback handed to the scheduler.
func (h *Handler) summaryJob(chatID int64) func() {
	return func() {
		ctx := context.Background()
		log.Info().Int64("chat_id", chatID).Msg("daily summary job fired")
		if err := h.SendDailySummary(ctx); err != nil {
			log.Error().Err(err).Msg("daily summary job failed")
		}
	}
}

// SendDailySummary aggregates today's orders once and broadcasts the rendered
// report to every active group chat. A failure for one chat never stops the
// rest of the run.
func (h *Handler) SendDailySummary(ctx context.Context) error {
	totals, err := h.processor.CalculateDailyTotals(ctx, h.now())
	if err != nil {
		return err
	}

	chats, err := h.chats.ActiveGroupChats(ctx)
	if err != nil {
		return err
	}

	for _, chat := range chats {
		text, err := h.processor.FormatDailyTotalMessage(ctx, totals, chat.ChatID)
		if err != nil {
			log.Error().Err(err).Int64("chat_id", chat.ChatID).Msg("format summary")
			continue
		}

		msg := tgbotapi.NewMessage(chat.ChatID, text)
		msg.ParseMode = "Markdown"
		sent, err := h.api.Send(msg)
		if err != nil {
			log.Error().Err(err).Int64("chat_id", chat.ChatID).Msg("send summary")
			if isChatGone(err) {
				chat.IsActive = false
				if e := h.chats.Save(ctx, chat); e != nil {
					log.Error().Err(e).Int64("chat_id", chat.ChatID).Msg("deactivate chat")
				}
			}
			continue
		}

		pin := tgbotapi.PinChatMessageConfig{
			ChatID:    sent.Chat.ID,
			MessageID: sent.MessageID,
		}
		if _, err := h.api.Request(pin); err != nil {
			log.Error().Err(err).Int64("chat_id", chat.ChatID).Msg("pin summary")
		}
	}
	return nil
}

func (h *Handler) handleSummaryNow(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.Chat.IsPrivate() && !h.isAdmin(ctx, msg.Chat.ID, msg.From.ID) {
		h.reply(msg.Chat.ID, "⚠️ Only chat admins can trigger the summary.", false)
		return
	}
	if err := h.SendDailySummary(ctx); err != nil {
		log.Error().Err(err).Msg("manual summary failed")
		h.reply(msg.Chat.ID, "⚠️ Couldn't build the summary. Please try again.", false)
	}
}

// isChatGone matches the delivery errors Telegram raises when the bot can no
// longer post to a chat.
func isChatGone(err error) bool {
	s := err.Error()
	return strings.Contains(s, "bot was kicked") || strings.Contains(s, "chat not found")
}
