package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/services"
)

type HistoryHandler struct {
	svc *services.HistoryService
}

func NewHistoryHandler(svc *services.HistoryService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

type visitRequest struct {
	ChapterID        int    `json:"chapter_id" binding:"required"`
	ChapterName      string `json:"chapter_name"`
	ChapterLatinName string `json:"chapter_latin_name"`
}

func (h *HistoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	history := router.Group("/history")
	{
		history.GET("", h.List)
		history.POST("", h.Visit)
		history.DELETE("", h.Clear)
		history.GET("/last", h.LastRead)
	}
}

func (h *HistoryHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.List())
}

func (h *HistoryHandler) Visit(c *gin.Context) {
	var req visitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.svc.Visit(c.Request.Context(), req.ChapterID, req.ChapterName, req.ChapterLatinName)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *HistoryHandler) LastRead(c *gin.Context) {
	entry, ok := h.svc.LastRead()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no reading history"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *HistoryHandler) Clear(c *gin.Context) {
	h.svc.Clear(c.Request.Context())
	c.Status(http.StatusNoContent)
}
