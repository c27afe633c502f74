package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
	"github.com/comitanigiacomo/tilawa-engine/internal/core/services"
)

type ReminderSchedule interface {
	NextFire() (time.Time, bool)
}

type SettingsHandler struct {
	svc      *services.PreferenceService
	reminder ReminderSchedule
}

func NewSettingsHandler(svc *services.PreferenceService, reminder ReminderSchedule) *SettingsHandler {
	return &SettingsHandler{
		svc:      svc,
		reminder: reminder,
	}
}

type reminderResponse struct {
	Enabled      bool       `json:"enabled"`
	ReminderTime string     `json:"reminder_time"`
	NextFire     *time.Time `json:"next_fire,omitempty"`
}

func (h *SettingsHandler) RegisterRoutes(router *gin.RouterGroup) {
	settings := router.Group("/settings")
	{
		settings.GET("", h.Get)
		settings.PATCH("", h.Update)
		settings.POST("/theme/toggle", h.ToggleTheme)
		settings.POST("/reset", h.Reset)
		settings.GET("/reminder", h.Reminder)
	}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Get())
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var patch domain.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.svc.Update(c.Request.Context(), patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

func (h *SettingsHandler) ToggleTheme(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ToggleTheme(c.Request.Context()))
}

func (h *SettingsHandler) Reset(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Reset(c.Request.Context()))
}

func (h *SettingsHandler) Reminder(c *gin.Context) {
	settings := h.svc.Get()

	resp := reminderResponse{
		Enabled:      settings.DailyReminderEnabled,
		ReminderTime: settings.ReminderTime,
	}
	if h.reminder != nil {
		if at, ok := h.reminder.NextFire(); ok {
			resp.NextFire = &at
		}
	}

	c.JSON(http.StatusOK, resp)
}
