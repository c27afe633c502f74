package http_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
)

func TestNoteHandler(t *testing.T) {
	t.Run("Save Get Update", func(t *testing.T) {
		app := setupApp(t)

		w := app.do("PUT", "/api/v1/notes/2/255", `{"text": "  Ayat al-Kursi  "}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Ayat al-Kursi", decode[domain.Note](t, w).Text)

		app.do("PUT", "/api/v1/notes/2/255", `{"text": "memorised"}`)

		w = app.do("GET", "/api/v1/notes/2/255", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "memorised", decode[domain.Note](t, w).Text)

		list := decode[[]domain.Note](t, app.do("GET", "/api/v1/notes", ""))
		assert.Len(t, list, 1)
	})

	t.Run("Blank Text Deletes", func(t *testing.T) {
		app := setupApp(t)
		app.do("PUT", "/api/v1/notes/1/1", `{"text": "first"}`)

		w := app.do("PUT", "/api/v1/notes/1/1", `{"text": "   "}`)
		assert.Equal(t, http.StatusNoContent, w.Code)

		assert.Equal(t, http.StatusNotFound, app.do("GET", "/api/v1/notes/1/1", "").Code)
	})

	t.Run("Too Long", func(t *testing.T) {
		app := setupApp(t)

		long := strings.Repeat("a", domain.MaxNoteLen+1)
		w := app.do("PUT", "/api/v1/notes/1/1", `{"text": "`+long+`"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Delete And Filter", func(t *testing.T) {
		app := setupApp(t)
		app.do("PUT", "/api/v1/notes/1/1", `{"text": "a"}`)
		app.do("PUT", "/api/v1/notes/3/1", `{"text": "b"}`)

		filtered := decode[[]domain.Note](t, app.do("GET", "/api/v1/notes?chapter=3", ""))
		require.Len(t, filtered, 1)
		assert.Equal(t, "b", filtered[0].Text)

		assert.Equal(t, http.StatusNoContent, app.do("DELETE", "/api/v1/notes/1/1", "").Code)
		assert.Equal(t, http.StatusNotFound, app.do("DELETE", "/api/v1/notes/1/1", "").Code)
		assert.Equal(t, http.StatusBadRequest, app.do("DELETE", "/api/v1/notes/0/1", "").Code)
	})
}
