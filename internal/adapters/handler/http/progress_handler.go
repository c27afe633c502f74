package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/services"
)

type ProgressHandler struct {
	svc     *services.ProgressService
	tracker *services.VerseTracker
}

func NewProgressHandler(svc *services.ProgressService, tracker *services.VerseTracker) *ProgressHandler {
	return &ProgressHandler{
		svc:     svc,
		tracker: tracker,
	}
}

type markReadRequest struct {
	ChapterID   int `json:"chapter_id" binding:"required"`
	VerseNumber int `json:"verse_number" binding:"required"`
	VerseCount  int `json:"verse_count" binding:"min=0"`
}

func (h *ProgressHandler) RegisterRoutes(router *gin.RouterGroup) {
	progress := router.Group("/progress")
	{
		progress.GET("", h.List)
		progress.DELETE("", h.Clear)
		progress.POST("/read", h.MarkRead)
		progress.GET("/:chapter", h.Get)
	}
}

func (h *ProgressHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.List())
}

func (h *ProgressHandler) Get(c *gin.Context) {
	chapterID, ok := bindChapter(c)
	if !ok {
		return
	}

	progress, err := h.svc.Get(chapterID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// MarkRead is called by the reader view whenever a verse scrolls into view.
func (h *ProgressHandler) MarkRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	progress, changed, err := h.tracker.MarkRead(c.Request.Context(), req.ChapterID, req.VerseNumber, req.VerseCount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"progress": progress,
		"changed":  changed,
	})
}

func (h *ProgressHandler) Clear(c *gin.Context) {
	h.svc.Clear(c.Request.Context())
	c.Status(http.StatusNoContent)
}
