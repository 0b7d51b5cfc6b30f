package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"smart-shopping-list/internal/app"
	"smart-shopping-list/internal/events"
	"smart-shopping-list/internal/ingest"
	"smart-shopping-list/internal/logger"
	"smart-shopping-list/internal/shopping"

	"github.com/gin-gonic/gin"
)

// Handler serves the JSON API on top of an App.
type Handler struct {
	app *app.App
	log *logger.Logger
}

// NewHandler creates a Handler.
func NewHandler(a *app.App, log *logger.Logger) *Handler {
	return &Handler{app: a, log: log.With("component", "httpapi")}
}

type createListRequest struct {
	Name string `json:"name" binding:"required"`
	Icon string `json:"icon"`
}

type addItemRequest struct {
	// Line is a chat-style item ("2 kg tomatoes @SuperMart !"). When set the
	// structured fields are ignored.
	Line string `json:"line"`
	shopping.Draft
}

type smartAddRequest struct {
	Text string `json:"text" binding:"required"`
}

type recipeRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type resolveRequest struct {
	// ProposalID pins the decision to the proposal the client was shown.
	// Empty means the currently open one.
	ProposalID   string `json:"proposalId"`
	Accept       bool   `json:"accept"`
	KeepSeparate bool   `json:"keepSeparate"`
}

type enqueuedResponse struct {
	EntryID string `json:"entryId"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"pending": h.app.Pending(),
		"system":  h.app.Health(c.Request.Context()),
	})
}

func (h *Handler) ListLists(c *gin.Context) {
	lists, err := h.app.ListsForUser(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lists)
}

func (h *Handler) CreateList(c *gin.Context) {
	var req createListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	list, err := h.app.CreateList(c.Request.Context(), req.Name, req.Icon, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

func (h *Handler) GetList(c *gin.Context) {
	list, err := h.app.GetList(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) DeleteList(c *gin.Context) {
	if err := h.app.DeleteList(c.Request.Context(), c.Param("id"), userID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}

	var (
		entryID string
		err     error
	)
	if strings.TrimSpace(req.Line) != "" {
		entryID, err = h.app.AddLine(c.Request.Context(), c.Param("id"), userID(c), req.Line)
	} else {
		if req.Qty == 0 {
			req.Qty = 1
		}
		entryID, err = h.app.AddItem(c.Request.Context(), c.Param("id"), userID(c), req.Draft)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, enqueuedResponse{EntryID: entryID})
}

func (h *Handler) UpdateItem(c *gin.Context) {
	var draft shopping.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		respondError(c, err)
		return
	}
	entryID, err := h.app.UpdateItem(c.Request.Context(), c.Param("id"), userID(c), c.Param("itemId"), draft)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, enqueuedResponse{EntryID: entryID})
}

func (h *Handler) ToggleItem(c *gin.Context) {
	item, err := h.app.ToggleItem(c.Request.Context(), c.Param("id"), userID(c), c.Param("itemId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) RemoveItem(c *gin.Context) {
	if err := h.app.RemoveItem(c.Request.Context(), c.Param("id"), userID(c), c.Param("itemId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) SmartAdd(c *gin.Context) {
	var req smartAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	drafts, err := h.app.SmartAdd(c.Request.Context(), c.Param("id"), userID(c), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"items": drafts})
}

func (h *Handler) AddRecipe(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	switch {
	case req.URL != "":
		res, err := h.app.AddRecipeFromURL(ctx, c.Param("id"), userID(c), req.URL)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"recipe": res.Recipe, "sourceUrl": res.SourceURL})
	case req.Name != "":
		rec, err := h.app.AddRecipe(ctx, c.Param("id"), userID(c), req.Name)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"recipe": rec})
	default:
		c.JSON(http.StatusBadRequest, errorEnvelope("either name or url is required", "bad_request"))
	}
}

// GetProposal returns the open merge proposal when the caller can see its
// list, or 204.
func (h *Handler) GetProposal(c *gin.Context) {
	p, ok := h.app.Proposal()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	if _, err := h.app.GetList(c.Request.Context(), p.ListID, userID(c)); err != nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, events.NewProposalView(p))
}

func (h *Handler) ResolveProposal(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	p, ok := h.app.Proposal()
	if !ok {
		respondError(c, ingest.ErrNoProposal)
		return
	}
	if req.ProposalID != "" && req.ProposalID != p.ID {
		respondError(c, fmt.Errorf("proposal %s: %w", req.ProposalID, ingest.ErrProposalChanged))
		return
	}
	if _, err := h.app.GetList(ctx, p.ListID, userID(c)); err != nil {
		respondError(c, err)
		return
	}
	// Bound to p.ID so the membership check above covers the proposal resolved.
	if err := h.app.ResolveProposalID(ctx, p.ID, req.Accept, req.KeepSeparate); err != nil {
		respondError(c, err)
		return
	}
	h.log.Info("proposal resolved over http", "list_id", p.ListID, "accept", req.Accept, "keep_separate", req.KeepSeparate)
	c.JSON(http.StatusOK, gin.H{"resolved": p.ID})
}

func (h *Handler) Usage(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 {
		c.JSON(http.StatusBadRequest, errorEnvelope("days must be a positive integer", "bad_request"))
		return
	}
	daily, err := h.app.Usage(days)
	if err != nil {
		respondError(c, err)
		return
	}
	agents, err := h.app.AgentUsage(days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"daily": daily, "agents": agents})
}
