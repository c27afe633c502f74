package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
)

// ContentHandler proxies the scripture provider so the UI talks to a single
// origin.
type ContentHandler struct {
	content domain.ContentProvider
}

func NewContentHandler(content domain.ContentProvider) *ContentHandler {
	return &ContentHandler{content: content}
}

func (h *ContentHandler) RegisterRoutes(router *gin.RouterGroup) {
	chapters := router.Group("/chapters")
	{
		chapters.GET("", h.List)
		chapters.GET("/:chapter", h.Detail)
		chapters.GET("/:chapter/commentary", h.Commentary)
	}
}

func (h *ContentHandler) List(c *gin.Context) {
	chapters, err := h.content.ChapterList(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chapters)
}

func (h *ContentHandler) Detail(c *gin.Context) {
	chapterID, ok := bindChapter(c)
	if !ok {
		return
	}

	detail, err := h.content.ChapterDetail(c.Request.Context(), chapterID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *ContentHandler) Commentary(c *gin.Context) {
	chapterID, ok := bindChapter(c)
	if !ok {
		return
	}

	commentary, err := h.content.Commentary(c.Request.Context(), chapterID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, commentary)
}
