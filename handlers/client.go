package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wellness-platform/analytics"
	"wellness-platform/apperrors"
	"wellness-platform/models"
	"wellness-platform/utils"
)

type ClientHandler struct {
	repo  models.Repository
	kafka utils.KafkaProducer
}

func NewClientHandler(repo models.Repository, kafka utils.KafkaProducer) *ClientHandler {
	return &ClientHandler{repo: repo, kafka: kafka}
}

type ClientRequest struct {
	Name   string `json:"name" binding:"required,min=2,max=100"`
	Email  string `json:"email" binding:"required,email"`
	Phone  string `json:"phone" binding:"omitempty,max=20"`
	Status string `json:"status" binding:"omitempty,oneof=active inactive pending"`
	Notes  string `json:"notes"`
}

type ClientUpdateRequest struct {
	Name   *string `json:"name" binding:"omitempty,min=2,max=100"`
	Email  *string `json:"email" binding:"omitempty,email"`
	Phone  *string `json:"phone" binding:"omitempty,max=20"`
	Status *string `json:"status" binding:"omitempty,oneof=active inactive pending"`
	Notes  *string `json:"notes"`
}

func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	// Уникальность почты проверяем до вставки, чтобы отдать осмысленный 409
	if _, err := h.repo.GetClientByEmail(req.Email); err == nil {
		abortWithError(c, apperrors.Newf(apperrors.KindConflict,
			"DUPLICATE_RESOURCE", "Client with this email already exists"))
		return
	} else if err != models.ErrNotFound {
		abortWithError(c, err)
		return
	}

	status := req.Status
	if status == "" {
		status = models.ClientStatusActive
	}

	client := &models.Client{
		ID:       uuid.New().String(),
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Status:   status,
		Notes:    req.Notes,
		IsActive: true,
	}

	if err := h.repo.CreateClient(client); err != nil {
		abortWithError(c, err)
		return
	}

	go publishEvent(h.kafka, ClientEventsTopic, "client_created", client)

	c.JSON(http.StatusCreated, client)
}

func (h *ClientHandler) GetClient(c *gin.Context) {
	client, err := h.repo.GetClientWithAppointments(c.Param("id"))
	if err != nil {
		if err == models.ErrNotFound {
			abortWithError(c, apperrors.Newf(apperrors.KindNotFound, "NOT_FOUND", "Client not found"))
			return
		}
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) ListClients(c *gin.Context) {
	filter := models.ClientFilter{
		Search: c.Query("search"),
		Status: c.Query("status"),
	}

	var err error
	if filter.CreatedAfter, err = parseTimeParam(c, "created_after"); err != nil {
		validationError(c, err)
		return
	}
	if filter.CreatedBefore, err = parseTimeParam(c, "created_before"); err != nil {
		validationError(c, err)
		return
	}

	clients, err := h.repo.ListClients(filter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

func (h *ClientHandler) UpdateClient(c *gin.Context) {
	id := c.Param("id")

	var req ClientUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	client, err := h.repo.GetClientByID(id)
	if err != nil {
		if err == models.ErrNotFound {
			abortWithError(c, apperrors.Newf(apperrors.KindNotFound, "NOT_FOUND", "Client not found"))
			return
		}
		abortWithError(c, err)
		return
	}

	// Смена почты не должна сталкиваться с другим клиентом
	if req.Email != nil && *req.Email != client.Email {
		existing, err := h.repo.GetClientByEmail(*req.Email)
		if err == nil && existing.ID != id {
			abortWithError(c, apperrors.Newf(apperrors.KindConflict,
				"DUPLICATE_RESOURCE", "Client with this email already exists"))
			return
		}
		if err != nil && err != models.ErrNotFound {
			abortWithError(c, err)
			return
		}
		client.Email = *req.Email
	}

	if req.Name != nil {
		client.Name = *req.Name
	}
	if req.Phone != nil {
		client.Phone = *req.Phone
	}
	if req.Status != nil {
		client.Status = *req.Status
	}
	if req.Notes != nil {
		client.Notes = *req.Notes
	}

	if err := h.repo.UpdateClient(client); err != nil {
		abortWithError(c, err)
		return
	}

	go publishEvent(h.kafka, ClientEventsTopic, "client_updated", client)

	c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) DeleteClient(c *gin.Context) {
	id := c.Param("id")

	if _, err := h.repo.GetClientByID(id); err != nil {
		if err == models.ErrNotFound {
			abortWithError(c, apperrors.Newf(apperrors.KindNotFound, "NOT_FOUND", "Client not found"))
			return
		}
		abortWithError(c, err)
		return
	}

	// Клиент с визитами не удаляется, пока визиты не убраны явно
	count, err := h.repo.CountClientAppointments(id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if count > 0 {
		abortWithError(c, apperrors.Newf(apperrors.KindBusinessLogic,
			"CLIENT_HAS_APPOINTMENTS", "Cannot delete client with existing appointments"))
		return
	}

	if err := h.repo.DeleteClient(id); err != nil {
		abortWithError(c, err)
		return
	}

	go publishEvent(h.kafka, ClientEventsTopic, "client_deleted", models.Client{ID: id})

	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully"})
}

func (h *ClientHandler) GetClientAppointments(c *gin.Context) {
	id := c.Param("id")

	if _, err := h.repo.GetClientByID(id); err != nil {
		if err == models.ErrNotFound {
			abortWithError(c, apperrors.Newf(apperrors.KindNotFound, "NOT_FOUND", "Client not found"))
			return
		}
		abortWithError(c, err)
		return
	}

	appointments, err := h.repo.ListAppointments(models.AppointmentFilter{ClientID: id})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointments)
}

func (h *ClientHandler) GetClientAnalytics(c *gin.Context) {
	clients, err := h.repo.ListClients(models.ClientFilter{})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics.ComputeClientAnalytics(clients, time.Now()))
}

func (h *ClientHandler) GetSingleClientAnalytics(c *gin.Context) {
	id := c.Param("id")

	client, err := h.repo.GetClientByID(id)
	if err != nil {
		if err == models.ErrNotFound {
			abortWithError(c, apperrors.Newf(apperrors.KindNotFound, "NOT_FOUND", "Client not found"))
			return
		}
		abortWithError(c, err)
		return
	}

	appointments, err := h.repo.ListAppointments(models.AppointmentFilter{ClientID: id})
	if err != nil {
		abortWithError(c, err)
		return
	}

	stats := analytics.ComputeAppointmentAnalytics(appointments, time.Now())

	c.JSON(http.StatusOK, gin.H{
		"client_id":              client.ID,
		"client_name":            client.Name,
		"total_appointments":     stats.TotalAppointments,
		"completed_appointments": stats.CompletedAppointments,
		"cancelled_appointments": stats.CancelledAppointments,
		"no_show_appointments":   stats.NoShowAppointments,
		"upcoming_appointments":  stats.UpcomingAppointments,
		"completion_rate":        stats.CompletionRate,
		"cancellation_rate":      stats.CancellationRate,
		"client_since":           client.CreatedAt.Format(time.RFC3339),
	})
}

func (h *ClientHandler) ExportClientsCSV(c *gin.Context) {
	clients, err := h.repo.ListClients(models.ClientFilter{Status: c.Query("status")})
	if err != nil {
		abortWithError(c, err)
		return
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	_ = w.Write([]string{"ID", "Name", "Email", "Phone", "Status", "Notes", "Created At", "Updated At"})
	for i := range clients {
		cl := &clients[i]
		updatedAt := ""
		if cl.UpdatedAt != nil {
			updatedAt = cl.UpdatedAt.Format(time.RFC3339)
		}
		_ = w.Write([]string{
			cl.ID, cl.Name, cl.Email, cl.Phone, cl.Status, cl.Notes,
			cl.CreatedAt.Format(time.RFC3339), updatedAt,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		abortWithError(c, fmt.Errorf("failed to build CSV export: %w", err))
		return
	}

	c.Header("Content-Disposition", "attachment; filename=clients_export.csv")
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}
