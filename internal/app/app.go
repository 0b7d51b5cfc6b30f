package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"smart-shopping-list/internal/assistant"
	"smart-shopping-list/internal/clipper"
	"smart-shopping-list/internal/database"
	"smart-shopping-list/internal/ingest"
	"smart-shopping-list/internal/llm"
	"smart-shopping-list/internal/logger"
	"smart-shopping-list/internal/metrics"
	"smart-shopping-list/internal/recipe"
	"smart-shopping-list/internal/shared"
	"smart-shopping-list/internal/shopping"
)

var (
	// ErrForbidden is returned when a user touches a list they are not a member of.
	ErrForbidden = errors.New("not a member of this list")
	// ErrMetricsDisabled is returned by usage reports when no metrics store is wired.
	ErrMetricsDisabled = errors.New("metrics are not enabled")
)

// Deps are the collaborators an App is built from. Metrics and Clipper are
// optional.
type Deps struct {
	Store    shopping.Store
	Engine   *ingest.Engine
	TextGen  llm.TextGenerator
	Clipper  *clipper.Clipper
	Metrics  *metrics.Store
	Logger   *logger.Logger
	DataPath string
	// DB is the SQLite handle shared by metrics and chat sessions.
	DB *sql.DB
}

// App is the façade the front-ends (HTTP API, Telegram bot, CLI) talk to.
// Every item addition goes through the ingestion engine.
type App struct {
	store        shopping.Store
	engine       *ingest.Engine
	textGen      llm.TextGenerator
	clipper      *clipper.Clipper
	metricsStore *metrics.Store
	log          *logger.Logger
	dataPath     string
	db           *sql.DB

	closers []func() error
}

// NewApp creates and initializes a new App instance.
func NewApp(d Deps) *App {
	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &App{
		store:        d.Store,
		engine:       d.Engine,
		textGen:      d.TextGen,
		clipper:      d.Clipper,
		metricsStore: d.Metrics,
		log:          log,
		dataPath:     d.DataPath,
		db:           d.DB,
	}
}

// Engine exposes the ingestion engine, e.g. to attach listeners.
func (a *App) Engine() *ingest.Engine {
	return a.engine
}

// SQL returns the shared database handle, or nil.
func (a *App) SQL() *sql.DB {
	return a.db
}

// CreateList creates an empty list owned by ownerID.
func (a *App) CreateList(ctx context.Context, name, icon, ownerID string) (*shopping.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("list name cannot be empty")
	}
	if icon == "" {
		icon = shopping.DefaultIcon
	}
	list := &shopping.List{Name: name, Icon: icon, OwnerID: ownerID}
	if _, err := a.store.Create(ctx, list); err != nil {
		return nil, err
	}
	a.log.Info("list created", "list_id", list.ID, "owner", ownerID)
	return list, nil
}

// GetList returns a list if userID may see it. An empty userID skips the
// membership check (CLI and trusted callers).
func (a *App) GetList(ctx context.Context, listID, userID string) (*shopping.List, error) {
	list, err := a.store.Read(ctx, listID)
	if err != nil {
		return nil, err
	}
	if userID != "" && !list.HasMember(userID) {
		return nil, ErrForbidden
	}
	return list, nil
}

// ListsForUser returns every list userID owns or shares.
func (a *App) ListsForUser(ctx context.Context, userID string) ([]shopping.List, error) {
	return a.store.ListByUser(ctx, userID)
}

// DeleteList removes a list. Only the owner may delete it.
func (a *App) DeleteList(ctx context.Context, listID, userID string) error {
	list, err := a.store.Read(ctx, listID)
	if err != nil {
		return err
	}
	if userID != "" && list.OwnerID != userID {
		return ErrForbidden
	}
	return a.store.Delete(ctx, listID)
}

// AddItem enqueues draft for normalization and matching.
func (a *App) AddItem(ctx context.Context, listID, userID string, draft shopping.Draft) (string, error) {
	if _, err := a.GetList(ctx, listID, userID); err != nil {
		return "", err
	}
	return a.engine.EnqueueAdd(ctx, listID, draft, false)
}

// AddLine parses a chat-style line ("2 kg tomatoes @SuperMart !") and enqueues it.
func (a *App) AddLine(ctx context.Context, listID, userID, line string) (string, error) {
	draft, err := shopping.ParseDraft(line)
	if err != nil {
		return "", err
	}
	return a.AddItem(ctx, listID, userID, draft)
}

// UpdateItem enqueues an edit of itemID.
func (a *App) UpdateItem(ctx context.Context, listID, userID, itemID string, draft shopping.Draft) (string, error) {
	if _, err := a.GetList(ctx, listID, userID); err != nil {
		return "", err
	}
	return a.engine.EnqueueUpdate(ctx, listID, itemID, draft)
}

// ToggleItem checks or unchecks an item directly, outside the queue.
func (a *App) ToggleItem(ctx context.Context, listID, userID, itemID string) (*shopping.Item, error) {
	if _, err := a.GetList(ctx, listID, userID); err != nil {
		return nil, err
	}
	return shopping.ToggleChecked(ctx, a.store, listID, itemID)
}

// RemoveItem deletes an item directly, outside the queue.
func (a *App) RemoveItem(ctx context.Context, listID, userID, itemID string) error {
	if _, err := a.GetList(ctx, listID, userID); err != nil {
		return err
	}
	return shopping.RemoveItem(ctx, a.store, listID, itemID)
}

// SmartAdd parses free-form text into items and enqueues them. The model
// already produced canonical names, so normalization is skipped.
func (a *App) SmartAdd(ctx context.Context, listID, userID, input string) ([]shopping.Draft, error) {
	if _, err := a.GetList(ctx, listID, userID); err != nil {
		return nil, err
	}
	res, err := assistant.SmartAdd(ctx, a.textGen, input)
	a.recordMeta(res.Meta)
	if err != nil {
		return nil, err
	}
	if err := a.enqueueAll(ctx, listID, res.Drafts, true); err != nil {
		return nil, err
	}
	return res.Drafts, nil
}

// AddRecipe asks the model for the ingredients of a dish and enqueues them.
func (a *App) AddRecipe(ctx context.Context, listID, userID, recipeName string) (recipe.Recipe, error) {
	if _, err := a.GetList(ctx, listID, userID); err != nil {
		return recipe.Recipe{}, err
	}
	res, err := recipe.Breakdown(ctx, a.textGen, recipeName)
	a.recordMeta(res.Meta)
	if err != nil {
		return recipe.Recipe{}, err
	}
	if err := a.enqueueAll(ctx, listID, res.Recipe.ToDrafts(), false); err != nil {
		return recipe.Recipe{}, err
	}
	return res.Recipe, nil
}

// AddRecipeFromURL clips the recipe at url and enqueues its ingredients.
func (a *App) AddRecipeFromURL(ctx context.Context, listID, userID, url string) (clipper.ClipResult, error) {
	if a.clipper == nil {
		return clipper.ClipResult{}, fmt.Errorf("recipe clipper is not configured")
	}
	if _, err := a.GetList(ctx, listID, userID); err != nil {
		return clipper.ClipResult{}, err
	}
	res, err := a.clipper.ClipURL(ctx, url)
	a.recordMeta(res.Meta)
	if err != nil {
		return clipper.ClipResult{}, err
	}
	if err := a.enqueueAll(ctx, listID, res.Recipe.ToDrafts(), false); err != nil {
		return clipper.ClipResult{}, err
	}
	return res, nil
}

func (a *App) enqueueAll(ctx context.Context, listID string, drafts []shopping.Draft, skip bool) error {
	for _, d := range drafts {
		if _, err := a.engine.EnqueueAdd(ctx, listID, d, skip); err != nil {
			return fmt.Errorf("failed to enqueue %q: %w", d.Name, err)
		}
	}
	return nil
}

// Proposal returns the open merge proposal, if any.
func (a *App) Proposal() (ingest.Proposal, bool) {
	return a.engine.Proposal()
}

// ResolveProposal settles the open merge proposal.
func (a *App) ResolveProposal(ctx context.Context, accept, keepSeparate bool) error {
	return a.engine.ResolveProposal(ctx, accept, keepSeparate)
}

// ResolveProposalID settles the open merge proposal if it is still proposalID.
func (a *App) ResolveProposalID(ctx context.Context, proposalID string, accept, keepSeparate bool) error {
	return a.engine.ResolveProposalID(ctx, proposalID, accept, keepSeparate)
}

// Pending reports whether the engine still has queued entries.
func (a *App) Pending() bool {
	return a.engine.Pending()
}

// Drain processes the queue in the caller's goroutine.
func (a *App) Drain(ctx context.Context) error {
	return a.engine.Drain(ctx)
}

// Run processes the queue until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.engine.Run(ctx)
}

// Usage reports LLM token usage per day.
func (a *App) Usage(days int) ([]metrics.DailyUsage, error) {
	if a.metricsStore == nil {
		return nil, ErrMetricsDisabled
	}
	return a.metricsStore.GetDailyUsage(days)
}

// AgentUsage reports LLM token usage per agent.
func (a *App) AgentUsage(days int) ([]metrics.AgentUsage, error) {
	if a.metricsStore == nil {
		return nil, ErrMetricsDisabled
	}
	return a.metricsStore.GetAgentUsage(days)
}

// CleanupMetrics removes metric records older than days.
func (a *App) CleanupMetrics(days int) (int64, error) {
	if a.metricsStore == nil {
		return 0, ErrMetricsDisabled
	}
	return a.metricsStore.Cleanup(days)
}

// Health reports process, data directory and schema statistics.
func (a *App) Health(ctx context.Context) metrics.SysHealth {
	h := metrics.GetSysHealth(a.dataPath)
	if a.db != nil {
		h.Schema = database.SchemaStatus(ctx, a.db)
	}
	return h
}

func (a *App) recordMeta(meta shared.AgentMeta) {
	if a.metricsStore == nil || meta.AgentName == "" {
		return
	}
	if err := a.metricsStore.RecordMeta(meta); err != nil {
		a.log.Warn("failed to record metrics", "agent", meta.AgentName, "error", err)
	}
}

// Close stops accepting work and releases resources in reverse order of
// acquisition.
func (a *App) Close() error {
	a.engine.Close()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
