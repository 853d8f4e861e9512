package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/orderbot/internal/config"
	"github.com/yourname/orderbot/internal/domain"
	"github.com/yourname/orderbot/internal/orders"
	"github.com/yourname/orderbot/internal/sched"
)

type fakeAPI struct {
	sent      []tgbotapi.MessageConfig
	pinned    []tgbotapi.PinChatMessageConfig
	reactions []tgbotapi.Params
	sendErr   map[int64]error
	admins    []tgbotapi.ChatMember
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, nil
	}
	if err := f.sendErr[msg.ChatID]; err != nil {
		return tgbotapi.Message{}, err
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{
		MessageID: len(f.sent),
		Chat:      &tgbotapi.Chat{ID: msg.ChatID},
	}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if pin, ok := c.(tgbotapi.PinChatMessageConfig); ok {
		f.pinned = append(f.pinned, pin)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	if endpoint == "setMessageReaction" {
		f.reactions = append(f.reactions, params)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetChatAdministrators(tgbotapi.ChatAdministratorsConfig) ([]tgbotapi.ChatMember, error) {
	return f.admins, nil
}

type fakeUserStore struct{ upserts int }

func (f *fakeUserStore) Upsert(context.Context, int64, *string, *string, *string) error {
	f.upserts++
	return nil
}

type fakeChatStore struct {
	active   []domain.Chat
	summary  []domain.Chat
	byID     map[int64]*domain.Chat
	saved    []domain.Chat
	touched  int
	findErr  error
	listErr  error
	savedErr error
}

func (f *fakeChatStore) FindByChatID(_ context.Context, id int64) (*domain.Chat, error) {
	return f.byID[id], f.findErr
}

func (f *fakeChatStore) Save(_ context.Context, c domain.Chat) error {
	if f.savedErr != nil {
		return f.savedErr
	}
	f.saved = append(f.saved, c)
	return nil
}

func (f *fakeChatStore) Touch(context.Context, int64, string, string) error {
	f.touched++
	return nil
}

func (f *fakeChatStore) ActiveGroupChats(context.Context) ([]domain.Chat, error) {
	return f.active, f.listErr
}

func (f *fakeChatStore) WithSummariesEnabled(context.Context) ([]domain.Chat, error) {
	return f.summary, nil
}

type fakeSummarizer struct {
	totals     []orders.DailyTotal
	totalsErr  error
	formatErr  map[int64]error
	saveResult *domain.Order
	saveErr    error
	saveCalls  int
}

func (f *fakeSummarizer) SaveOrder(_ context.Context, _, _, _ int64, text string) (*domain.Order, error) {
	f.saveCalls++
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	if _, ok := orders.ParseOrder(text); !ok {
		return nil, nil
	}
	return f.saveResult, nil
}

func (f *fakeSummarizer) CalculateDailyTotals(context.Context, time.Time) ([]orders.DailyTotal, error) {
	return f.totals, f.totalsErr
}

func (f *fakeSummarizer) FormatDailyTotalMessage(_ context.Context, _ []orders.DailyTotal, chatID int64) (string, error) {
	if err := f.formatErr[chatID]; err != nil {
		return "", err
	}
	return "summary", nil
}

func testConfig() config.Config {
	return config.Config{
		BotToken:        "test",
		DatabaseURL:     "test",
		Timezone:        "UTC",
		SummaryCronDays: "1-5",
	}
}

func newTestHandler(a *fakeAPI, chats *fakeChatStore, proc *fakeSummarizer) *Handler {
	h := NewHandler(a, testConfig(), &fakeUserStore{}, chats, proc, sched.NewRegistry(time.UTC), nil)
	h.now = func() time.Time { return time.Date(2025, 3, 14, 17, 30, 0, 0, time.UTC) }
	return h
}

func activeGroup(id int64) domain.Chat {
	return domain.Chat{ChatID: id, Type: "group", IsActive: true}
}

func TestSendDailySummaryBroadcastsAndPins(t *testing.T) {
	a := &fakeAPI{}
	chats := &fakeChatStore{active: []domain.Chat{activeGroup(10), activeGroup(20)}}
	h := newTestHandler(a, chats, &fakeSummarizer{})

	require.NoError(t, h.SendDailySummary(context.Background()))

	require.Len(t, a.sent, 2)
	assert.Equal(t, int64(10), a.sent[0].ChatID)
	assert.Equal(t, int64(20), a.sent[1].ChatID)
	assert.Equal(t, "Markdown", a.sent[0].ParseMode)
	require.Len(t, a.pinned, 2)
}

func TestSendDailySummaryIsolatesPerChatDeliveryFailure(t *testing.T) {
	a := &fakeAPI{sendErr: map[int64]error{10: errors.New("Bad Request: something broke")}}
	chats := &fakeChatStore{active: []domain.Chat{activeGroup(10), activeGroup(20)}}
	h := newTestHandler(a, chats, &fakeSummarizer{})

	require.NoError(t, h.SendDailySummary(context.Background()))

	require.Len(t, a.sent, 1)
	assert.Equal(t, int64(20), a.sent[0].ChatID)
	assert.Empty(t, chats.saved, "a generic delivery error must not deactivate the chat")
}

func TestSendDailySummaryDeactivatesKickedChat(t *testing.T) {
	a := &fakeAPI{sendErr: map[int64]error{10: errors.New("Forbidden: bot was kicked from the group chat")}}
	chats := &fakeChatStore{active: []domain.Chat{activeGroup(10), activeGroup(20)}}
	h := newTestHandler(a, chats, &fakeSummarizer{})

	require.NoError(t, h.SendDailySummary(context.Background()))

	require.Len(t, chats.saved, 1)
	assert.Equal(t, int64(10), chats.saved[0].ChatID)
	assert.False(t, chats.saved[0].IsActive)

	// The second chat still got its summary.
	require.Len(t, a.sent, 1)
	assert.Equal(t, int64(20), a.sent[0].ChatID)
}

func TestSendDailySummaryIsolatesFormatFailure(t *testing.T) {
	// A store read failure while formatting one chat's report must not stop
	// delivery to the remaining chats.
	a := &fakeAPI{}
	chats := &fakeChatStore{active: []domain.Chat{activeGroup(10), activeGroup(20)}}
	proc := &fakeSummarizer{formatErr: map[int64]error{10: errors.New("probe failed")}}
	h := newTestHandler(a, chats, proc)

	require.NoError(t, h.SendDailySummary(context.Background()))

	require.Len(t, a.sent, 1)
	assert.Equal(t, int64(20), a.sent[0].ChatID)
}

func TestSendDailySummaryAbortsOnAggregationFailure(t *testing.T) {
	a := &fakeAPI{}
	chats := &fakeChatStore{active: []domain.Chat{activeGroup(10)}}
	proc := &fakeSummarizer{totalsErr: errors.New("db down")}
	h := newTestHandler(a, chats, proc)

	assert.Error(t, h.SendDailySummary(context.Background()))
	assert.Empty(t, a.sent)
}

func TestInitSummaryJobsSchedulesConfiguredChats(t *testing.T) {
	a := &fakeAPI{}
	chats := &fakeChatStore{summary: []domain.Chat{
		{ChatID: 10, CronExpression: "30 17 * * 1-5", SendSummaries: true, IsActive: true},
		{ChatID: 20, CronExpression: "0 12 * * *", SendSummaries: true, IsActive: true},
		{ChatID: 30, CronExpression: "garbage", SendSummaries: true, IsActive: true},
	}}
	h := newTestHandler(a, chats, &fakeSummarizer{})

	require.NoError(t, h.InitSummaryJobs(context.Background()))
	assert.Equal(t, 2, h.jobs.Len(), "unparseable expressions are skipped, not fatal")
}
