package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/services"
)

type PlaybackHandler struct {
	svc *services.PlaybackService
}

func NewPlaybackHandler(svc *services.PlaybackService) *PlaybackHandler {
	return &PlaybackHandler{svc: svc}
}

type playRequest struct {
	ChapterID   int    `json:"chapter_id" binding:"required"`
	VerseNumber int    `json:"verse_number" binding:"required"`
	Resource    string `json:"resource"`
}

type segmentEndedRequest struct {
	ChapterID   int `json:"chapter_id" binding:"required"`
	VerseNumber int `json:"verse_number" binding:"required"`
}

func (h *PlaybackHandler) RegisterRoutes(router *gin.RouterGroup) {
	playback := router.Group("/playback")
	{
		playback.GET("", h.State)
		playback.POST("/play", h.Play)
		playback.POST("/stop", h.Stop)
		playback.POST("/ended", h.SegmentEnded)
	}
}

func (h *PlaybackHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.State())
}

func (h *PlaybackHandler) Play(c *gin.Context) {
	var req playRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.svc.Play(c.Request.Context(), services.PlayInput{
		ChapterID:   req.ChapterID,
		VerseNumber: req.VerseNumber,
		Resource:    req.Resource,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *PlaybackHandler) Stop(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stop())
}

// SegmentEnded is posted by the audio element when a verse finishes.
func (h *PlaybackHandler) SegmentEnded(c *gin.Context) {
	var req segmentEndedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	decision, err := h.svc.OnSegmentEnded(c.Request.Context(), req.ChapterID, req.VerseNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"continuation": decision,
		"state":        h.svc.State(),
	})
}
