package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/services"
)

type BookmarkHandler struct {
	svc *services.BookmarkService
}

func NewBookmarkHandler(svc *services.BookmarkService) *BookmarkHandler {
	return &BookmarkHandler{svc: svc}
}

type bookmarkRequest struct {
	ChapterID       int    `json:"chapter_id" binding:"required"`
	VerseNumber     int    `json:"verse_number" binding:"required"`
	ChapterName     string `json:"chapter_name"`
	ArabicText      string `json:"arabic_text"`
	LatinText       string `json:"latin_text"`
	TranslationText string `json:"translation_text"`
}

func (r bookmarkRequest) input() services.AddBookmarkInput {
	return services.AddBookmarkInput{
		ChapterID:       r.ChapterID,
		VerseNumber:     r.VerseNumber,
		ChapterName:     r.ChapterName,
		ArabicText:      r.ArabicText,
		LatinText:       r.LatinText,
		TranslationText: r.TranslationText,
	}
}

func (h *BookmarkHandler) RegisterRoutes(router *gin.RouterGroup) {
	bookmarks := router.Group("/bookmarks")
	{
		bookmarks.GET("", h.List)
		bookmarks.POST("", h.Add)
		bookmarks.POST("/toggle", h.Toggle)
		bookmarks.GET("/:chapter/:verse", h.Get)
		bookmarks.DELETE("/:chapter/:verse", h.Remove)
	}
}

// List returns every bookmark, or only one chapter's with ?chapter=N.
func (h *BookmarkHandler) List(c *gin.Context) {
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

func (h *BookmarkHandler) Add(c *gin.Context) {
	var req bookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bookmark, added, err := h.svc.Add(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	c.JSON(status, bookmark)
}

func (h *BookmarkHandler) Toggle(c *gin.Context) {
	var req bookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bookmarked, err := h.svc.Toggle(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"chapter_id":   req.ChapterID,
		"verse_number": req.VerseNumber,
		"bookmarked":   bookmarked,
	})
}

func (h *BookmarkHandler) Get(c *gin.Context) {
	uri, ok := bindVerse(c)
	if !ok {
		return
	}

	bookmark, err := h.svc.Get(uri.ChapterID, uri.VerseNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookmark)
}

func (h *BookmarkHandler) Remove(c *gin.Context) {
	uri, ok := bindVerse(c)
	if !ok {
		return
	}

	if !h.svc.Remove(c.Request.Context(), uri.ChapterID, uri.VerseNumber) {
		c.JSON(http.StatusNotFound, gin.H{"error": "bookmark not found"})
		return
	}

	c.Status(http.StatusNoContent)
}
