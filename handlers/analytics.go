package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wellness-platform/analytics"
	"wellness-platform/models"
)

type AnalyticsHandler struct {
	repo models.Repository
}

func NewAnalyticsHandler(repo models.Repository) *AnalyticsHandler {
	return &AnalyticsHandler{repo: repo}
}

// GetDashboard — сводка по клиентам и визитам для главного экрана.
func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	clients, err := h.repo.ListClients(models.ClientFilter{})
	if err != nil {
		abortWithError(c, err)
		return
	}
	appointments, err := h.repo.ListAppointments(models.AppointmentFilter{})
	if err != nil {
		abortWithError(c, err)
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"clients":      analytics.ComputeClientAnalytics(clients, now),
		"appointments": analytics.ComputeAppointmentAnalytics(appointments, now),
		"performance_metrics": gin.H{
			"last_refresh": now.Format(time.RFC3339),
			"clients":      len(clients),
			"appointments": len(appointments),
		},
	})
}

func (h *AnalyticsHandler) GetSystemTrends(c *gin.Context) {
	days, err := parseDaysParam(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)

	clients, err := h.repo.ListClients(models.ClientFilter{
		CreatedAfter:  &start,
		CreatedBefore: &end,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	appointments, err := h.repo.ListAppointments(models.AppointmentFilter{
		DateFrom: &start,
		DateTo:   &end,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics.ComputeSystemTrends(clients, appointments, start, end, days))
}

func (h *AnalyticsHandler) GetClientActivityReport(c *gin.Context) {
	filter := models.AppointmentFilter{ClientID: c.Query("client_id")}

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

	clients, err := h.repo.ListClients(models.ClientFilter{})
	if err != nil {
		abortWithError(c, err)
		return
	}
	lookup := make(map[string]*models.Client, len(clients))
	for i := range clients {
		lookup[clients[i].ID] = &clients[i]
	}

	c.JSON(http.StatusOK, gin.H{
		"report_period": gin.H{
			"date_from": formatOptionalTime(filter.DateFrom),
			"date_to":   formatOptionalTime(filter.DateTo),
		},
		"client_activity": analytics.ComputeClientActivity(appointments, lookup),
	})
}

func (h *AnalyticsHandler) GetPerformanceReport(c *gin.Context) {
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

	report, distribution := analytics.ComputePerformance(appointments)
	stats := analytics.ComputeAppointmentAnalytics(appointments, time.Now())

	c.JSON(http.StatusOK, gin.H{
		"report_period": gin.H{
			"date_from": formatOptionalTime(filter.DateFrom),
			"date_to":   formatOptionalTime(filter.DateTo),
		},
		"performance_metrics": report,
		"time_distribution":   distribution,
		"status_breakdown": gin.H{
			"completed": stats.CompletedAppointments,
			"cancelled": stats.CancelledAppointments,
			"no_show":   stats.NoShowAppointments,
			"scheduled": stats.ScheduledAppointments,
		},
	})
}

func formatOptionalTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
