package notification

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jwalitptl/notify-api/internal/model"
	"github.com/jwalitptl/notify-api/internal/service/scheduler"
	apperrors "github.com/jwalitptl/notify-api/pkg/errors"
)

type Handler struct {
	service *scheduler.Service
}

func NewHandler(service *scheduler.Service) *Handler {
	registerValidations()
	return &Handler{service: service}
}

// registerValidations adds the entity_type rule to gin's binding engine so
// bad tags are rejected before they reach the service.
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("entity_type", func(fl validator.FieldLevel) bool {
			_, err := model.ParseEntityType(fl.Field().String())
			return err == nil
		})
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/notifications/schedule", h.ScheduleNotification)
	r.GET("/notifications", h.ListNotifications)
	r.POST("/reminders", h.SetDeadlineReminder)
	r.DELETE("/reminders/:entityType/:entityId", h.DeactivateReminder)
	r.POST("/process", h.Process)
	r.GET("/process", h.Process)
}

func (h *Handler) ScheduleNotification(c *gin.Context) {
	var req model.ScheduleNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	notification, err := h.service.ScheduleNotification(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": notification})
}

func (h *Handler) ListNotifications(c *gin.Context) {
	recipientID, err := uuid.Parse(c.Query("recipient_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid recipient ID"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid limit"})
			return
		}
	}

	notifications, err := h.service.ListNotifications(c.Request.Context(), recipientID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": notifications})
}

func (h *Handler) SetDeadlineReminder(c *gin.Context) {
	var req model.SetReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	id, err := h.service.SetDeadlineReminder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"reminder_id": id}})
}

func (h *Handler) DeactivateReminder(c *gin.Context) {
	entityID, err := uuid.Parse(c.Param("entityId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid entity ID"})
		return
	}

	if err := h.service.DeactivateReminder(c.Request.Context(), c.Param("entityType"), entityID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Process runs one combined cycle: drain due notifications, then expand
// deadline reminders. Exposed over GET as well so a plain cron curl works.
func (h *Handler) Process(c *gin.Context) {
	result, err := h.service.ProcessDue(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": result})
}

func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrBadRequest:
			status = http.StatusBadRequest
		case apperrors.ErrNotFound:
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"status": "error", "message": appErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
}
