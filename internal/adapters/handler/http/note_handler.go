package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/services"
)

type NoteHandler struct {
	svc *services.NoteService
}

func NewNoteHandler(svc *services.NoteService) *NoteHandler {
	return &NoteHandler{svc: svc}
}

type saveNoteRequest struct {
	Text string `json:"text"`
}

func (h *NoteHandler) RegisterRoutes(router *gin.RouterGroup) {
	notes := router.Group("/notes")
	{
		notes.GET("", h.List)
		notes.GET("/:chapter/:verse", h.Get)
		notes.PUT("/:chapter/:verse", h.Save)
		notes.DELETE("/:chapter/:verse", h.Delete)
	}
}

func (h *NoteHandler) List(c *gin.Context) {
	if c.Query("chapter") == "" {
		c.JSON(http.StatusOK, h.svc.List())
		return
	}

	var q struct {
		Chapter int `form:"chapter" binding:"min=1,max=114"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chapter filter"})
		return
	}

	c.JSON(http.StatusOK, h.svc.ListByChapter(q.Chapter))
}

func (h *NoteHandler) Get(c *gin.Context) {
	uri, ok := bindVerse(c)
	if !ok {
		return
	}

	note, err := h.svc.Get(uri.ChapterID, uri.VerseNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, note)
}

// Save creates or replaces the note. Blank text deletes it and answers 204.
func (h *NoteHandler) Save(c *gin.Context) {
	uri, ok := bindVerse(c)
	if !ok {
		return
	}

	var req saveNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	note, err := h.svc.Save(c.Request.Context(), uri.ChapterID, uri.VerseNumber, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	if note == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, note)
}

func (h *NoteHandler) Delete(c *gin.Context) {
	uri, ok := bindVerse(c)
	if !ok {
		return
	}

	if !h.svc.Delete(c.Request.Context(), uri.ChapterID, uri.VerseNumber) {
		c.JSON(http.StatusNotFound, gin.H{"error": "note not found"})
		return
	}

	c.Status(http.StatusNoContent)
}
