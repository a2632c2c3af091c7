package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wellness-platform/analytics"
	"wellness-platform/apperrors"
	"wellness-platform/models"
	"wellness-platform/monitoring"
	"wellness-platform/scheduling"
	"wellness-platform/utils"
)

type AppointmentHandler struct {
	repo      models.Repository
	kafka     utils.KafkaProducer
	checker   *scheduling.ConflictChecker
	generator *scheduling.Generator
}

func NewAppointmentHandler(repo models.Repository, kafka utils.KafkaProducer,
	checker *scheduling.ConflictChecker, generator *scheduling.Generator) *AppointmentHandler {
	return &AppointmentHandler{repo: repo, kafka: kafka, checker: checker, generator: generator}
}

type AppointmentRequest struct {
	ClientID         string                   `json:"client_id" binding:"required"`
	Time             time.Time                `json:"time" binding:"required"`
	Status           string                   `json:"status" binding:"omitempty,oneof=scheduled completed cancelled no-show"`
	Notes            string                   `json:"notes"`
	IsRecurring      bool                     `json:"is_recurring"`
	RecurringPattern *models.RecurringPattern `json:"recurring_pattern"`
	ReminderTime     *time.Time               `json:"reminder_time"`
}

type AppointmentUpdateRequest struct {
	ClientID         *string                  `json:"client_id"`
	Time             *time.Time               `json:"time"`
	Status           *string                  `json:"status" binding:"omitempty,oneof=scheduled completed cancelled no-show"`
	Notes            *string                  `json:"notes"`
	IsRecurring      *bool                    `json:"is_recurring"`
	RecurringPattern *models.RecurringPattern `json:"recurring_pattern"`
	ReminderTime     *time.Time               `json:"reminder_time"`
}

type RecurringRequest struct {
	BaseAppointment  AppointmentRequest       `json:"base_appointment" binding:"required"`
	RecurringPattern *models.RecurringPattern `json:"recurring_pattern" binding:"required"`
}

func (h *AppointmentHandler) ListAppointments(c *gin.Context) {
	filter := models.AppointmentFilter{
		ClientID: c.Query("client_id"),
		Status:   c.Query("status"),
	}

	var err error
	if filter.DateFrom, err = parseTimeParam(c, "date_from"); err != nil {
		validationError(c, err)
		return
	}
	if filter.DateTo, err = parseTimeParam(c, "date_to"); err != nil {
		validationError(c, err)
		return
	}
	if raw := c.Query("is_recurring"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			validationError(c, err)
			return
		}
		filter.IsRecurring = &v
	}

	appointments, err := h.repo.ListAppointments(filter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointments)
}

// CheckConflicts — проверка окна без побочных эффектов.
func (h *AppointmentHandler) CheckConflicts(c *gin.Context) {
	clientID := c.Query("client_id")
	if clientID == "" {
		validationError(c, fmt.Errorf("client_id is required"))
		return
	}

	appointmentTime, err := time.Parse(time.RFC3339, c.Query("appointment_time"))
	if err != nil {
		validationError(c, fmt.Errorf("invalid appointment_time: %w", err))
		return
	}

	duration := scheduling.DefaultDurationMinutes
	if raw := c.Query("appointment_duration"); raw != "" {
		if duration, err = strconv.Atoi(raw); err != nil {
			validationError(c, fmt.Errorf("invalid appointment_duration: %w", err))
			return
		}
	}

	result, err := h.checker.Check(clientID, appointmentTime, duration, c.Query("exclude_appointment_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	observeConflictCheck(result)
	c.JSON(http.StatusOK, result)
}

func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req AppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	if _, err := h.repo.GetClientByID(req.ClientID); err != nil {
		if err == models.ErrNotFound {
			abortWithError(c, apperrors.Newf(apperrors.KindNotFound, "NOT_FOUND", "Client not found"))
			return
		}
		abortWithError(c, err)
		return
	}

	conflicts, err := h.checker.Check(req.ClientID, req.Time, scheduling.DefaultDurationMinutes, "")
	if err != nil {
		abortWithError(c, err)
		return
	}
	observeConflictCheck(conflicts)
	if conflicts.HasConflicts {
		abortWithError(c, apperrors.Newf(apperrors.KindBusinessLogic,
			"APPOINTMENT_CONFLICT", "Appointment conflicts with existing appointments").
			WithDetails(gin.H{"conflicts": conflicts.Conflicts}))
		return
	}

	status := req.Status
	if status == "" {
		status = models.AppointmentStatusScheduled
	}

	appointment := &models.Appointment{
		ID:               uuid.New().String(),
		ClientID:         req.ClientID,
		Time:             req.Time,
		Status:           status,
		Notes:            req.Notes,
		IsRecurring:      req.IsRecurring,
		RecurringPattern: req.RecurringPattern,
		ReminderTime:     req.ReminderTime,
		IsActive:         true,
	}

	if err := h.repo.CreateAppointment(appointment); err != nil {
		abortWithError(c, err)
		return
	}

	go publishEvent(h.kafka, AppointmentEventsTopic, "appointment_created", appointment)

	c.JSON(http.StatusCreated, appointment)
}

// CreateRecurring разворачивает серию; конфликтующие экземпляры пропускаются
// молча, ответ содержит только то, что реально создано.
func (h *AppointmentHandler) CreateRecurring(c *gin.Context) {
	var req RecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	if req.RecurringPattern == nil {
		abortWithError(c, apperrors.Newf(apperrors.KindBusinessLogic,
			"INVALID_PATTERN", "Invalid recurring pattern"))
		return
	}

	if _, err := h.repo.GetClientByID(req.BaseAppointment.ClientID); err != nil {
		if err == models.ErrNotFound {
			abortWithError(c, apperrors.Newf(apperrors.KindNotFound, "NOT_FOUND", "Client not found"))
			return
		}
		abortWithError(c, err)
		return
	}

	base := &models.Appointment{
		ClientID:     req.BaseAppointment.ClientID,
		Time:         req.BaseAppointment.Time,
		Status:       req.BaseAppointment.Status,
		Notes:        req.BaseAppointment.Notes,
		ReminderTime: req.BaseAppointment.ReminderTime,
	}

	result, err := h.generator.Generate(base, *req.RecurringPattern)
	if err != nil {
		abortWithError(c, err)
		return
	}

	ids := make([]string, 0, len(result.Created))
	for _, apt := range result.Created {
		ids = append(ids, apt.ID)
		go publishEvent(h.kafka, AppointmentEventsTopic, "appointment_created", apt)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      fmt.Sprintf("Created %d recurring appointments", len(ids)),
		"appointments": ids,
	})
}

func (h *AppointmentHandler) GetAppointment(c *gin.Context) {
	appointment, err := h.repo.GetAppointmentByID(c.Param("id"))
	if err != nil {
		if err == models.ErrNotFound {
			abortWithError(c, apperrors.Newf(apperrors.KindNotFound, "NOT_FOUND", "Appointment not found"))
			return
		}
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointment)
}

func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	id := c.Param("id")

	var req AppointmentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	appointment, err := h.repo.GetAppointmentByID(id)
	if err != nil {
		if err == models.ErrNotFound {
			abortWithError(c, apperrors.Newf(apperrors.KindNotFound, "NOT_FOUND", "Appointment not found"))
			return
		}
		abortWithError(c, err)
		return
	}

	// Конфликты перепроверяются только при смене времени
	if req.Time != nil && !req.Time.Equal(appointment.Time) {
		conflicts, err := h.checker.Check(appointment.ClientID, *req.Time,
			scheduling.DefaultDurationMinutes, id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		observeConflictCheck(conflicts)
		if conflicts.HasConflicts {
			abortWithError(c, apperrors.Newf(apperrors.KindBusinessLogic,
				"APPOINTMENT_CONFLICT", "Appointment conflicts with existing appointments").
				WithDetails(gin.H{"conflicts": conflicts.Conflicts}))
			return
		}
		appointment.Time = *req.Time
	}

	if req.ClientID != nil {
		appointment.ClientID = *req.ClientID
	}
	if req.Status != nil {
		appointment.Status = *req.Status
	}
	if req.Notes != nil {
		appointment.Notes = *req.Notes
	}
	if req.IsRecurring != nil {
		appointment.IsRecurring = *req.IsRecurring
	}
	if req.RecurringPattern != nil {
		appointment.RecurringPattern = req.RecurringPattern
	}
	if req.ReminderTime != nil {
		appointment.ReminderTime = req.ReminderTime
	}

	appointment.Client = nil
	if err := h.repo.UpdateAppointment(appointment); err != nil {
		abortWithError(c, err)
		return
	}

	go publishEvent(h.kafka, AppointmentEventsTopic, "appointment_updated", appointment)

	c.JSON(http.StatusOK, appointment)
}

func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	id := c.Param("id")

	if err := h.repo.DeleteAppointment(id); err != nil {
		if err == models.ErrNotFound {
			abortWithError(c, apperrors.Newf(apperrors.KindNotFound, "NOT_FOUND", "Appointment not found"))
			return
		}
		abortWithError(c, err)
		return
	}

	go publishEvent(h.kafka, AppointmentEventsTopic, "appointment_deleted", models.Appointment{ID: id})

	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted successfully"})
}

func (h *AppointmentHandler) GetAppointmentAnalytics(c *gin.Context) {
	filter := models.AppointmentFilter{}

	var err error
	if filter.DateFrom, err = parseTimeParam(c, "date_from"); err != nil {
		validationError(c, err)
		return
	}
	if filter.DateTo, err = parseTimeParam(c, "date_to"); err != nil {
		validationError(c, err)
		return
	}

	appointments, err := h.repo.ListAppointments(filter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics.ComputeAppointmentAnalytics(appointments, time.Now()))
}

func (h *AppointmentHandler) GetAppointmentTrends(c *gin.Context) {
	days, err := parseDaysParam(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)

	appointments, err := h.repo.ListAppointments(models.AppointmentFilter{
		DateFrom: &start,
		DateTo:   &end,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics.ComputeAppointmentTrends(appointments, start, end, days))
}

func (h *AppointmentHandler) GetPendingReminders(c *gin.Context) {
	cutoff := time.Now().Add(24 * time.Hour)

	appointments, err := h.repo.ListPendingReminders(cutoff)
	if err != nil {
		abortWithError(c, err)
		return
	}

	reminders := make([]gin.H, 0, len(appointments))
	for i := range appointments {
		apt := &appointments[i]
		var reminderTime *string
		if apt.ReminderTime != nil {
			s := apt.ReminderTime.Format(time.RFC3339)
			reminderTime = &s
		}
		reminders = append(reminders, gin.H{
			"id":               apt.ID,
			"client_id":        apt.ClientID,
			"appointment_time": apt.Time.Format(time.RFC3339),
			"reminder_time":    reminderTime,
		})
	}

	c.JSON(http.StatusOK, gin.H{"pending_reminders": reminders})
}

func (h *AppointmentHandler) SendReminder(c *gin.Context) {
	appointment, err := h.repo.GetAppointmentByID(c.Param("id"))
	if err != nil {
		if err == models.ErrNotFound {
			abortWithError(c, apperrors.Newf(apperrors.KindNotFound, "NOT_FOUND", "Appointment not found"))
			return
		}
		abortWithError(c, err)
		return
	}

	appointment.ReminderSent = true
	appointment.Client = nil
	if err := h.repo.UpdateAppointment(appointment); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reminder marked as sent"})
}

// parseDaysParam валидирует days: деления на ноль быть не должно.
func parseDaysParam(c *gin.Context) (int, error) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindValidation, "Invalid days parameter", err)
	}
	if days <= 0 {
		return 0, apperrors.Newf(apperrors.KindValidation, "VALIDATION_ERROR", "days must be positive")
	}
	return days, nil
}

func observeConflictCheck(result *scheduling.ConflictResult) {
	outcome := "clear"
	if result.HasConflicts {
		outcome = "conflict"
	}
	monitoring.ConflictChecks.WithLabelValues(outcome).Inc()
}
