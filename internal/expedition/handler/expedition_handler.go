package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jptechsolutions-a11y/APPOPERA/internal/expedition/service"
)

// ExpeditionHandler exposes the dispatch list and form intents.
type ExpeditionHandler struct {
	app *service.AppService
}

func NewExpeditionHandler(app *service.AppService) *ExpeditionHandler {
	return &ExpeditionHandler{app: app}
}

// State handles GET /state: the render-ready snapshot.
func (h *ExpeditionHandler) State(c *gin.Context) {
	Success(c, h.app.Snapshot())
}

type filterRequest struct {
	Status string `json:"status"`
	Busca  string `json:"busca"`
	Data   string `json:"data"`
}

// SetFilter handles PUT /filters.
func (h *ExpeditionHandler) SetFilter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	filter := service.FilterState{Status: req.Status, Busca: req.Busca}
	if err := h.app.SetFilter(c.Request.Context(), filter, req.Data); err != nil {
		FailFromError(c, err)
		return
	}
	Success(c, h.app.Snapshot())
}

// Create handles POST /expeditions.
func (h *ExpeditionHandler) Create(c *gin.Context) {
	var req service.CreateExpeditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	label, err := h.app.CreateExpedition(c.Request.Context(), req)
	if err != nil {
		FailFromError(c, err)
		return
	}
	Created(c, gin.H{
		"message": "Expedição para " + label + " lançada com sucesso!",
		"state":   h.app.Snapshot(),
	})
}

// Reload handles POST /reload: an explicit full data reload.
func (h *ExpeditionHandler) Reload(c *gin.Context) {
	if err := h.app.Reload(c.Request.Context()); err != nil {
		FailFromError(c, err)
		return
	}
	Success(c, h.app.Snapshot())
}

type viewRequest struct {
	View string `json:"view"`
}

// SetActiveView handles PUT /view.
func (h *ExpeditionHandler) SetActiveView(c *gin.Context) {
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := h.app.SetActiveView(c.Request.Context(), req.View); err != nil {
		FailFromError(c, err)
		return
	}
	Success(c, h.app.Snapshot())
}
