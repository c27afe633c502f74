package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
)

var badRequestErrors = []error{
	domain.ErrInvalidChapter,
	domain.ErrInvalidVerse,
	domain.ErrInvalidTheme,
	domain.ErrInvalidRepeatMode,
	domain.ErrInvalidTime,
	domain.ErrInvalidNarrator,
	domain.ErrNoteTooLong,
}

var notFoundErrors = []error{
	domain.ErrBookmarkNotFound,
	domain.ErrNoteNotFound,
	domain.ErrProgressNotFound,
	domain.ErrVerseNotFound,
	domain.ErrAudioUnavailable,
}

func respondError(c *gin.Context, err error) {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			c.JSON(http.StatusBadRequest, gin.H{"error": target.Error()})
			return
		}
	}

	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			c.JSON(http.StatusNotFound, gin.H{"error": target.Error()})
			return
		}
	}

	if errors.Is(err, domain.ErrContentUnavailable) {
		log.Printf("[HTTP] Content provider failure: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": domain.ErrContentUnavailable.Error()})
		return
	}

	log.Printf("[HTTP] Internal error on %s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

type verseURI struct {
	ChapterID   int `uri:"chapter" binding:"required,min=1,max=114"`
	VerseNumber int `uri:"verse" binding:"required,min=1"`
}

type chapterURI struct {
	ChapterID int `uri:"chapter" binding:"required,min=1,max=114"`
}

func bindVerse(c *gin.Context) (verseURI, bool) {
	var uri verseURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chapter or verse in path"})
		return uri, false
	}
	return uri, true
}

func bindChapter(c *gin.Context) (int, bool) {
	var uri chapterURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidChapter.Error()})
		return 0, false
	}
	return uri.ChapterID, true
}
