package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"smart-shopping-list/internal/app"
	"smart-shopping-list/internal/clipper"
	"smart-shopping-list/internal/config"
	"smart-shopping-list/internal/ingest"
	"smart-shopping-list/internal/logger"
	"smart-shopping-list/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the part of the Telegram API the bot talks to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot is the Telegram front-end of the shopping list.
type Bot struct {
	api      sender
	client   *tgbotapi.BotAPI
	app      *app.App
	sessions *SessionRepository
	cfg      *config.Config
	log      *logger.Logger
}

var _ ingest.Listener = (*Bot)(nil)

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, a *app.App, sessions *SessionRepository, log *logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Info("telegram authorized", "account", api.Self.UserName)

	if cfg.TelegramWebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
		}
		resp, err := api.Request(wh)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
		}
		log.Info("webhook set", "response", resp.Description)
	}

	b := newBot(api, cfg, a, sessions, log)
	b.client = api
	return b, nil
}

func newBot(api sender, cfg *config.Config, a *app.App, sessions *SessionRepository, log *logger.Logger) *Bot {
	return &Bot{
		api:      api,
		app:      a,
		sessions: sessions,
		cfg:      cfg,
		log:      log.With("component", "telegram"),
	}
}

// RegisterHandlers registers the webhook handler on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// WebhookHandler returns the handler for Telegram's webhook calls, for
// mounting on another router.
func (b *Bot) WebhookHandler() http.HandlerFunc {
	return b.handleWebhook
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.log.Warn("error parsing update", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	b.dispatch(update)
}

// Poll reads updates with long polling until ctx is cancelled. Used when no
// webhook URL is configured.
func (b *Bot) Poll(ctx context.Context) error {
	if b.client == nil {
		return fmt.Errorf("telegram client not initialized")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.client.GetUpdatesChan(u)
	b.log.Info("polling for telegram updates")
	for {
		select {
		case <-ctx.Done():
			b.client.StopReceivingUpdates()
			return nil
		case update := <-updates:
			b.dispatch(update)
		}
	}
}

func (b *Bot) dispatch(update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if !b.isAllowed(update.CallbackQuery.From) {
			return
		}
		go b.handleCallbackQuery(update.CallbackQuery)
	case update.Message != nil:
		if !b.isAllowed(update.Message.From) {
			return
		}
		go b.processMessage(update.Message)
	}
}

func (b *Bot) isAllowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if from.ID == id {
			return true
		}
	}
	b.log.Warn("⚠️ unauthorized access attempt", "user_id", from.ID, "username", from.UserName)
	return false
}

func userKey(u *tgbotapi.User) string {
	return strconv.FormatInt(u.ID, 10)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	text := strings.TrimSpace(msg.Text)
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// URLs are recipe pages, anything else is a free-form request.
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleClipperRequest(ctx, msg, text)
		return
	}
	if text != "" {
		b.handleSmartAdd(ctx, msg, text)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		b.reply(msg.Chat.ID, helpText)
	case "new":
		b.handleNewList(ctx, msg, args)
	case "lists":
		b.handleLists(ctx, msg)
	case "show":
		b.handleShow(ctx, msg.Chat.ID, msg.From)
	case "add":
		b.handleAdd(ctx, msg, args)
	case "recipe":
		b.handleRecipe(ctx, msg, args)
	case "proposal":
		b.handlePendingProposal(msg.Chat.ID)
	case "metrics":
		b.handleMetricsRequest(msg)
	default:
		b.reply(msg.Chat.ID, "🤔 Unknown command. Try /help.")
	}
}

const helpText = `🛒 *Smart Shopping List*

/new <name> – create a list and start using it
/lists – pick the list you are working on
/show – show the active list
/add <item> – add one item, e.g. ` + "`/add 2 kg tomatoes @SuperMart #ripe !`" + `
/recipe <dish> – add the ingredients of a dish
/proposal – show the merge question waiting for an answer

Send any other text to add items in your own words, or a recipe link to add its ingredients.`

// activeList resolves the chat's active list, replying with guidance when
// there is none.
func (b *Bot) activeList(ctx context.Context, chatID int64) (string, bool) {
	s, err := b.sessions.Get(ctx, chatID)
	if err != nil {
		b.log.Error("failed to load chat session", "chat_id", chatID, "error", err)
		b.reply(chatID, "❌ Could not load your session.")
		return "", false
	}
	if s == nil || s.ActiveListID == "" {
		b.reply(chatID, "📋 No active list yet. Create one with /new <name> or pick one with /lists.")
		return "", false
	}
	return s.ActiveListID, true
}

func (b *Bot) handleNewList(ctx context.Context, msg *tgbotapi.Message, name string) {
	if name == "" {
		b.reply(msg.Chat.ID, "Usage: /new <name>")
		return
	}
	list, err := b.app.CreateList(ctx, name, "", userKey(msg.From))
	if err != nil {
		b.replyError(msg.Chat.ID, "creating list", err)
		return
	}
	if err := b.sessions.SetActiveList(ctx, msg.Chat.ID, userKey(msg.From), list.ID); err != nil {
		b.replyError(msg.Chat.ID, "saving session", err)
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ Created *%s*. New items will go there.", escape(list.Name)))
}

func (b *Bot) handleLists(ctx context.Context, msg *tgbotapi.Message) {
	lists, err := b.app.ListsForUser(ctx, userKey(msg.From))
	if err != nil {
		b.replyError(msg.Chat.ID, "loading lists", err)
		return
	}
	if len(lists) == 0 {
		b.reply(msg.Chat.ID, "You have no lists yet. Create one with /new <name>.")
		return
	}
	out := tgbotapi.NewMessage(msg.Chat.ID, "📋 Which list do you want to work on?")
	out.ReplyMarkup = listsKeyboard(lists)
	b.send(out)
}

func (b *Bot) handleShow(ctx context.Context, chatID int64, from *tgbotapi.User) {
	listID, ok := b.activeList(ctx, chatID)
	if !ok {
		return
	}
	list, err := b.app.GetList(ctx, listID, userKey(from))
	if err != nil {
		b.replyError(chatID, "loading list", err)
		return
	}
	out := tgbotapi.NewMessage(chatID, formatList(list))
	out.ParseMode = tgbotapi.ModeMarkdown
	if kb, ok := itemsKeyboard(list); ok {
		out.ReplyMarkup = kb
	}
	b.send(out)
}

func (b *Bot) handleAdd(ctx context.Context, msg *tgbotapi.Message, line string) {
	listID, ok := b.activeList(ctx, msg.Chat.ID)
	if !ok {
		return
	}
	if _, err := b.app.AddLine(ctx, listID, userKey(msg.From), line); err != nil {
		b.replyError(msg.Chat.ID, "adding item", err)
		return
	}
	b.reply(msg.Chat.ID, "👍 Queued.")
}

func (b *Bot) handleSmartAdd(ctx context.Context, msg *tgbotapi.Message, text string) {
	listID, ok := b.activeList(ctx, msg.Chat.ID)
	if !ok {
		return
	}
	drafts, err := b.app.SmartAdd(ctx, listID, userKey(msg.From), text)
	if err != nil {
		b.replyError(msg.Chat.ID, "understanding your request", err)
		return
	}
	var sb strings.Builder
	sb.WriteString("👍 Adding:\n")
	for _, d := range drafts {
		fmt.Fprintf(&sb, "• %s\n", escape(describeDraft(d)))
	}
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) handleRecipe(ctx context.Context, msg *tgbotapi.Message, name string) {
	if name == "" {
		b.reply(msg.Chat.ID, "Usage: /recipe <dish>")
		return
	}
	listID, ok := b.activeList(ctx, msg.Chat.ID)
	if !ok {
		return
	}
	rec, err := b.app.AddRecipe(ctx, listID, userKey(msg.From), name)
	if err != nil {
		b.replyError(msg.Chat.ID, "breaking down recipe", err)
		return
	}
	b.reply(msg.Chat.ID, escape(clipper.Summary(clipper.ClipResult{Recipe: rec})))
}

func (b *Bot) handleClipperRequest(ctx context.Context, msg *tgbotapi.Message, url string) {
	listID, ok := b.activeList(ctx, msg.Chat.ID)
	if !ok {
		return
	}
	sent, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "✂️ Clipping recipe..."))
	if err != nil {
		b.log.Error("failed to send initial reply", "error", err)
		return
	}

	res, err := b.app.AddRecipeFromURL(ctx, listID, userKey(msg.From), url)
	finalText := ""
	if err != nil {
		b.log.Error("error clipping recipe", "url", url, "error", err)
		finalText = fmt.Sprintf("❌ *Error clipping recipe:*\n```\n%v\n```", strings.ReplaceAll(err.Error(), "`", "'"))
	} else {
		finalText = escape(clipper.Summary(res))
	}
	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, sent.MessageID, finalText)
	edit.ParseMode = tgbotapi.ModeMarkdown
	b.send(edit)
}

func (b *Bot) handlePendingProposal(chatID int64) {
	p, ok := b.app.Proposal()
	if !ok {
		b.reply(chatID, "Nothing waiting for you. 🎉")
		return
	}
	b.sendProposal(chatID, p)
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}
	b.handleMetricsCommand(msg.Chat.ID)
}

func (b *Bot) handleMetricsCommand(chatID int64) {
	usage, err := b.app.Usage(7)
	if err != nil {
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}
	health := b.app.Health(context.Background())

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	if agents, err := b.app.AgentUsage(7); err == nil && len(agents) > 0 {
		sb.WriteString("\n🤖 *By Agent*\n")
		for _, a := range agents {
			sb.WriteString(fmt.Sprintf("• %s: %d tokens, %d calls, ~%s\n",
				escape(a.AgentName), a.PromptTokens+a.CompletionTokens, a.Executions, a.AvgLatency.Round(time.Millisecond)))
		}
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Uptime: %s\n", health.Uptime))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))
	if health.Schema != "" {
		sb.WriteString(fmt.Sprintf("• Schema: %s\n", health.Schema))
	}
	if b.app.Pending() {
		sb.WriteString("• Queue: busy\n")
	}

	b.reply(chatID, sb.String())
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID

	cb, err := parseCallback(query.Data)
	if err != nil {
		b.log.Warn("bad callback data", "data", query.Data, "error", err)
		b.answer(query.ID, "")
		return
	}

	switch cb.action {
	case actionUse:
		if _, err := b.app.GetList(ctx, cb.id, userKey(query.From)); err != nil {
			b.answer(query.ID, "That list is gone.")
			return
		}
		if err := b.sessions.SetActiveList(ctx, chatID, userKey(query.From), cb.id); err != nil {
			b.answer(query.ID, "Could not save your choice.")
			return
		}
		b.answer(query.ID, "List selected")
		b.handleShow(ctx, chatID, query.From)

	case actionToggle:
		listID, ok := b.activeList(ctx, chatID)
		if !ok {
			b.answer(query.ID, "")
			return
		}
		item, err := b.app.ToggleItem(ctx, listID, userKey(query.From), cb.id)
		if err != nil {
			b.answer(query.ID, "Could not update the item.")
			return
		}
		b.answer(query.ID, toggleText(item))
		b.handleShow(ctx, chatID, query.From)

	case actionResolve:
		p, ok := b.app.Proposal()
		if !ok || p.ID != cb.id {
			b.answer(query.ID, "This question was already answered.")
			return
		}
		if _, err := b.app.GetList(ctx, p.ListID, userKey(query.From)); err != nil {
			b.answer(query.ID, "Not your list.")
			return
		}
		accept, keep := cb.decision == ingest.DecisionMerge, cb.decision == ingest.DecisionKeepSeparate
		err := b.app.ResolveProposalID(ctx, p.ID, accept, keep)
		switch {
		case errors.Is(err, ingest.ErrProposalChanged):
			b.answer(query.ID, "This question was already answered.")
			return
		case err != nil:
			b.log.Error("failed to resolve proposal", "proposal_id", p.ID, "error", err)
			b.answer(query.ID, "Could not save, the item was skipped.")
		default:
			b.answer(query.ID, "Got it")
		}
		edit := tgbotapi.NewEditMessageText(chatID, query.Message.MessageID, resolvedText(p, cb.decision))
		b.send(edit)
	}
}

// OnEvent forwards engine events that need a human to the chats working on
// the event's list. Sending happens off the engine goroutine.
func (b *Bot) OnEvent(_ context.Context, ev ingest.Event) {
	switch ev.Kind {
	case ingest.EventProposalOpened, ingest.EventDropped, ingest.EventMerged:
	default:
		return
	}
	go b.notify(ev)
}

func (b *Bot) notify(ev ingest.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	chats, err := b.sessions.ChatsForList(ctx, ev.ListID)
	if err != nil {
		b.log.Error("failed to find chats for list", "list_id", ev.ListID, "error", err)
		return
	}
	for _, s := range chats {
		switch ev.Kind {
		case ingest.EventProposalOpened:
			if ev.Proposal != nil {
				b.sendProposal(s.ChatID, *ev.Proposal)
			}
		case ingest.EventMerged:
			if ev.Item != nil {
				b.send(tgbotapi.NewMessage(s.ChatID, fmt.Sprintf("➕ %s is now %s", ev.Item.Name, formatQty(ev.Item.Qty, ev.Item.Unit))))
			}
		case ingest.EventDropped:
			b.send(tgbotapi.NewMessage(s.ChatID, droppedText(ev)))
		}
	}
}

func (b *Bot) sendProposal(chatID int64, p ingest.Proposal) {
	out := tgbotapi.NewMessage(chatID, formatProposal(p))
	out.ParseMode = tgbotapi.ModeMarkdown
	out.ReplyMarkup = proposalKeyboard(p)
	b.send(out)
}

func (b *Bot) reply(chatID int64, text string) {
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	b.send(out)
}

func (b *Bot) replyError(chatID int64, doing string, err error) {
	b.log.Warn("request failed", "chat_id", chatID, "doing", doing, "error", err)
	text := fmt.Sprintf("❌ Error %s: %s", doing, err.Error())
	switch {
	case errors.Is(err, shopping.ErrListNotFound):
		text = "❌ That list no longer exists. Pick another with /lists."
	case errors.Is(err, app.ErrForbidden):
		text = "⛔ You are not a member of that list."
	}
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.Warn("failed to answer callback", "error", err)
	}
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Warn("failed to send telegram message", "error", err)
	}
}
