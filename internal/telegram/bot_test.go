package telegram

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"smart-shopping-list/internal/app"
	"smart-shopping-list/internal/config"
	"smart-shopping-list/internal/database"
	"smart-shopping-list/internal/ingest"
	"smart-shopping-list/internal/logger"
	"smart-shopping-list/internal/metrics"
	"smart-shopping-list/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []string
	answers []string
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		f.sent = append(f.sent, m.Text)
	case tgbotapi.EditMessageTextConfig:
		f.sent = append(f.sent, m.Text)
	}
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		f.answers = append(f.answers, cb.Text)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

const (
	chatID  = int64(100)
	aliceID = int64(1)
	adminID = int64(42)
)

func newTestBot(t *testing.T) (*Bot, *fakeSender, *app.App) {
	t.Helper()
	dir := t.TempDir()
	db, err := database.NewDB(filepath.Join(dir, "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := shopping.NewRepository(db.SQL)
	a := app.NewApp(app.Deps{
		Store:    store,
		Engine:   ingest.New(store, nil, ingest.Options{}),
		Metrics:  metrics.NewStore(db.SQL),
		DataPath: dir,
		DB:       db.SQL,
	})
	cfg := &config.Config{TelegramAllowedUserIDs: []int64{aliceID, adminID}, AdminTelegramID: adminID}
	fs := &fakeSender{}
	return newBot(fs, cfg, a, NewSessionRepository(db.SQL), logger.Nop()), fs, a
}

func command(from int64, text string) *tgbotapi.Message {
	n := strings.IndexByte(text, ' ')
	if n < 0 {
		n = len(text)
	}
	return &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{ID: from},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}},
	}
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data    string
		want    callback
		wantErr bool
	}{
		{"use|l1", callback{action: actionUse, id: "l1"}, false},
		{"tog|i1", callback{action: actionToggle, id: "i1"}, false},
		{"res|merge|p1", callback{action: actionResolve, id: "p1", decision: ingest.DecisionMerge}, false},
		{"res|keep_separate|p1", callback{action: actionResolve, id: "p1", decision: ingest.DecisionKeepSeparate}, false},
		{"res|maybe|p1", callback{}, true},
		{"use|", callback{}, true},
		{"redo|old request", callback{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := parseCallback(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatList(t *testing.T) {
	list := &shopping.List{
		Name: "Weekly_shop",
		Icon: "🛒",
		Items: []shopping.Item{
			{ID: "1", Name: "Milk", Category: "Dairy & Eggs", Icon: "🥛", Qty: 2, Unit: "L", Urgent: true},
			{ID: "2", Name: "Apples", Category: "Fruits", Icon: "🍎", Qty: 6, Store: "Market"},
			{ID: "3", Name: "Cheese", Category: "Dairy & Eggs", Icon: "🧀", Qty: 1},
			{ID: "4", Name: "Bread", Category: "Bakery", Icon: "🍞", Qty: 1, Checked: true},
		},
	}

	out := formatList(list)

	assert.Contains(t, out, `*Weekly\_shop*`)
	assert.Contains(t, out, "*Dairy & Eggs*")
	assert.Contains(t, out, "🥛 Milk × 2 L ❗")
	assert.Contains(t, out, "🍎 Apples × 6 @Market")
	assert.Less(t, strings.Index(out, "Milk"), strings.Index(out, "Cheese"))
	assert.Less(t, strings.Index(out, "Cheese"), strings.Index(out, "Apples"), "items are grouped by category")
	assert.Contains(t, out, "In the cart")
	assert.Greater(t, strings.Index(out, "Bread"), strings.Index(out, "In the cart"))

	kb, ok := itemsKeyboard(list)
	require.True(t, ok)
	assert.Len(t, kb.InlineKeyboard, 4)

	_, ok = itemsKeyboard(&shopping.List{})
	assert.False(t, ok)
}

func TestProposalKeyboardFitsCallbackLimit(t *testing.T) {
	p := ingest.Proposal{ID: "0b5c6f4e-9a4f-4a1e-8d53-0f8e1d2c3b4a"}
	kb := proposalKeyboard(p)

	var n int
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			require.NotNil(t, btn.CallbackData)
			assert.LessOrEqual(t, len(*btn.CallbackData), 64)
			cb, err := parseCallback(*btn.CallbackData)
			require.NoError(t, err)
			assert.Equal(t, p.ID, cb.id)
			n++
		}
	}
	assert.Equal(t, 3, n)
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	defer db.Close()
	sr := NewSessionRepository(db.SQL)

	s, err := sr.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, s)

	require.NoError(t, sr.SetActiveList(ctx, 7, "1", "list-a"))
	require.NoError(t, sr.SetActiveList(ctx, 8, "2", "list-a"))
	require.NoError(t, sr.SetActiveList(ctx, 7, "1", "list-b"))

	s, err = sr.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "list-b", s.ActiveListID)

	chats, err := sr.ChatsForList(ctx, "list-a")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, int64(8), chats[0].ChatID)

	require.NoError(t, sr.Delete(ctx, 8))
	chats, err = sr.ChatsForList(ctx, "list-a")
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestBot_ListFlow(t *testing.T) {
	ctx := context.Background()
	b, fs, a := newTestBot(t)

	b.processMessage(command(aliceID, "/add milk"))
	assert.Contains(t, fs.last(), "No active list")

	b.processMessage(command(aliceID, "/new Groceries"))
	assert.Contains(t, fs.last(), "Created *Groceries*")

	b.processMessage(command(aliceID, "/add 2 L milk !"))
	assert.Contains(t, fs.last(), "Queued")
	require.NoError(t, a.Drain(ctx))

	b.processMessage(command(aliceID, "/show"))
	assert.Contains(t, fs.last(), "milk × 2 L ❗")

	sess, err := b.sessions.Get(ctx, chatID)
	require.NoError(t, err)
	list, err := a.GetList(ctx, sess.ActiveListID, "1")
	require.NoError(t, err)
	require.Len(t, list.Items, 1)

	b.handleCallbackQuery(&tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: aliceID},
		Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    actionToggle + "|" + list.Items[0].ID,
	})
	assert.Contains(t, fs.answers, "✅ milk")
	assert.Contains(t, fs.last(), "In the cart")
}

func TestBot_ResolveProposalFromButton(t *testing.T) {
	ctx := context.Background()
	b, fs, a := newTestBot(t)

	b.processMessage(command(aliceID, "/new Groceries"))
	b.processMessage(command(aliceID, "/add milk @Aldi"))
	b.processMessage(command(aliceID, "/add 2 milk"))
	require.NoError(t, a.Drain(ctx))

	p, ok := a.Proposal()
	require.True(t, ok)

	b.processMessage(command(aliceID, "/proposal"))
	assert.Contains(t, fs.last(), "Merge these items?")

	query := func(data string) *tgbotapi.CallbackQuery {
		return &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    &tgbotapi.User{ID: aliceID},
			Message: &tgbotapi.Message{MessageID: 3, Chat: &tgbotapi.Chat{ID: chatID}},
			Data:    data,
		}
	}

	b.handleCallbackQuery(query("res|merge|stale-id"))
	assert.Contains(t, fs.answers, "This question was already answered.")
	_, stillOpen := a.Proposal()
	assert.True(t, stillOpen)

	b.handleCallbackQuery(query("res|merge|" + p.ID))
	assert.Contains(t, fs.last(), "Merged into milk")

	// A second collaborator tapping the same button changes nothing.
	answered := len(fs.answers)
	b.handleCallbackQuery(query("res|keep_separate|" + p.ID))
	require.Len(t, fs.answers, answered+1)
	assert.Equal(t, "This question was already answered.", fs.answers[answered])

	list, err := a.GetList(ctx, p.ListID, "")
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 3.0, list.Items[0].Qty)
}

func TestBot_NotifyProposalToWatchingChats(t *testing.T) {
	ctx := context.Background()
	b, fs, a := newTestBot(t)
	a.Engine().AddListener(b)

	b.processMessage(command(aliceID, "/new Groceries"))
	b.processMessage(command(aliceID, "/add milk @Aldi"))
	b.processMessage(command(aliceID, "/add milk"))
	require.NoError(t, a.Drain(ctx))

	assert.Eventually(t, func() bool {
		return strings.Contains(fs.last(), "Merge these items?")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBot_Authorization(t *testing.T) {
	b, fs, _ := newTestBot(t)

	assert.False(t, b.isAllowed(&tgbotapi.User{ID: 999}))
	assert.False(t, b.isAllowed(nil))
	assert.True(t, b.isAllowed(&tgbotapi.User{ID: aliceID}))

	b.processMessage(command(aliceID, "/metrics"))
	assert.Contains(t, fs.last(), "Access Denied")

	b.processMessage(command(adminID, "/metrics"))
	assert.Contains(t, fs.last(), "Usage & Health Report")
}
