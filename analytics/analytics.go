// Package analytics — чистые вычисления агрегатов по клиентам и визитам.
// Никакого собственного состояния: на входе выборки, на выходе отчёты.
package analytics

import (
	"time"

	"wellness-platform/models"
)

type ClientAnalytics struct {
	TotalClients        int     `json:"total_clients"`
	ActiveClients       int     `json:"active_clients"`
	InactiveClients     int     `json:"inactive_clients"`
	NewClientsThisMonth int     `json:"new_clients_this_month"`
	ClientGrowthRate    float64 `json:"client_growth_rate"`
}

type AppointmentAnalytics struct {
	TotalAppointments     int     `json:"total_appointments"`
	ScheduledAppointments int     `json:"scheduled_appointments"`
	CompletedAppointments int     `json:"completed_appointments"`
	CancelledAppointments int     `json:"cancelled_appointments"`
	NoShowAppointments    int     `json:"no_show_appointments"`
	UpcomingAppointments  int     `json:"upcoming_appointments"`
	CompletionRate        float64 `json:"completion_rate"`
	CancellationRate      float64 `json:"cancellation_rate"`
}

// ComputeClientAnalytics считает статистику клиентов на момент now.
// Рост месяц-к-месяцу равен 0, когда в прошлом месяце не было новых клиентов.
func ComputeClientAnalytics(clients []models.Client, now time.Time) ClientAnalytics {
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	startOfLastMonth := startOfMonth.AddDate(0, -1, 0)

	out := ClientAnalytics{TotalClients: len(clients)}
	newLastMonth := 0

	for i := range clients {
		c := &clients[i]
		switch c.Status {
		case models.ClientStatusActive:
			out.ActiveClients++
		case models.ClientStatusInactive:
			out.InactiveClients++
		}
		if !c.CreatedAt.Before(startOfMonth) {
			out.NewClientsThisMonth++
		} else if !c.CreatedAt.Before(startOfLastMonth) {
			newLastMonth++
		}
	}

	if newLastMonth > 0 {
		out.ClientGrowthRate = float64(out.NewClientsThisMonth-newLastMonth) / float64(newLastMonth) * 100
	}
	return out
}

// ComputeAppointmentAnalytics считает статистику визитов на момент now.
// Upcoming — запланированные строго позже now. Доли равны 0 при пустой выборке.
func ComputeAppointmentAnalytics(appointments []models.Appointment, now time.Time) AppointmentAnalytics {
	out := AppointmentAnalytics{TotalAppointments: len(appointments)}

	for i := range appointments {
		apt := &appointments[i]
		switch apt.Status {
		case models.AppointmentStatusScheduled:
			out.ScheduledAppointments++
			if apt.Time.After(now) {
				out.UpcomingAppointments++
			}
		case models.AppointmentStatusCompleted:
			out.CompletedAppointments++
		case models.AppointmentStatusCancelled:
			out.CancelledAppointments++
		case models.AppointmentStatusNoShow:
			out.NoShowAppointments++
		}
	}

	if out.TotalAppointments > 0 {
		total := float64(out.TotalAppointments)
		out.CompletionRate = float64(out.CompletedAppointments) / total * 100
		out.CancellationRate = float64(out.CancelledAppointments) / total * 100
	}
	return out
}

// --- Trends ---

type Period struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      int    `json:"days"`
}

type DailyAppointmentStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	NoShow    int `json:"no_show"`
}

type AppointmentTrends struct {
	Period     Period                            `json:"period"`
	DailyStats map[string]*DailyAppointmentStats `json:"daily_stats"`
	Summary    AppointmentTrendsSummary          `json:"summary"`
}

type AppointmentTrendsSummary struct {
	TotalAppointments    int     `json:"total_appointments"`
	AvgDailyAppointments float64 `json:"avg_daily_appointments"`
}

// ComputeAppointmentTrends раскладывает визиты по календарным датам.
// days должен быть валидирован (> 0) на границе до вызова.
func ComputeAppointmentTrends(appointments []models.Appointment, start, end time.Time, days int) AppointmentTrends {
	daily := make(map[string]*DailyAppointmentStats)

	for i := range appointments {
		apt := &appointments[i]
		key := apt.Time.Format("2006-01-02")
		stats, ok := daily[key]
		if !ok {
			stats = &DailyAppointmentStats{}
			daily[key] = stats
		}
		stats.Total++
		switch apt.Status {
		case models.AppointmentStatusCompleted:
			stats.Completed++
		case models.AppointmentStatusCancelled:
			stats.Cancelled++
		case models.AppointmentStatusNoShow:
			stats.NoShow++
		}
	}

	return AppointmentTrends{
		Period: Period{
			StartDate: start.Format(time.RFC3339),
			EndDate:   end.Format(time.RFC3339),
			Days:      days,
		},
		DailyStats: daily,
		Summary: AppointmentTrendsSummary{
			TotalAppointments:    len(appointments),
			AvgDailyAppointments: float64(len(appointments)) / float64(days),
		},
	}
}

type DailySystemStats struct {
	NewClients            int `json:"new_clients"`
	Appointments          int `json:"appointments"`
	CompletedAppointments int `json:"completed_appointments"`
}

type SystemTrends struct {
	Period     Period                       `json:"period"`
	DailyStats map[string]*DailySystemStats `json:"daily_stats"`
	Summary    SystemTrendsSummary          `json:"summary"`
}

type SystemTrendsSummary struct {
	TotalNewClients      int     `json:"total_new_clients"`
	TotalAppointments    int     `json:"total_appointments"`
	AvgDailyClients      float64 `json:"avg_daily_clients"`
	AvgDailyAppointments float64 `json:"avg_daily_appointments"`
}

// ComputeSystemTrends — сводные дневные корзины по клиентам и визитам.
func ComputeSystemTrends(clients []models.Client, appointments []models.Appointment, start, end time.Time, days int) SystemTrends {
	daily := make(map[string]*DailySystemStats)

	bucket := func(key string) *DailySystemStats {
		stats, ok := daily[key]
		if !ok {
			stats = &DailySystemStats{}
			daily[key] = stats
		}
		return stats
	}

	for i := range clients {
		bucket(clients[i].CreatedAt.Format("2006-01-02")).NewClients++
	}
	for i := range appointments {
		apt := &appointments[i]
		stats := bucket(apt.Time.Format("2006-01-02"))
		stats.Appointments++
		if apt.Status == models.AppointmentStatusCompleted {
			stats.CompletedAppointments++
		}
	}

	return SystemTrends{
		Period: Period{
			StartDate: start.Format(time.RFC3339),
			EndDate:   end.Format(time.RFC3339),
			Days:      days,
		},
		DailyStats: daily,
		Summary: SystemTrendsSummary{
			TotalNewClients:      len(clients),
			TotalAppointments:    len(appointments),
			AvgDailyClients:      float64(len(clients)) / float64(days),
			AvgDailyAppointments: float64(len(appointments)) / float64(days),
		},
	}
}

// --- Reports ---

type ClientActivity struct {
	ClientID          string     `json:"client_id"`
	ClientName        string     `json:"client_name,omitempty"`
	ClientEmail       string     `json:"client_email,omitempty"`
	ClientStatus      string     `json:"client_status,omitempty"`
	TotalAppointments int        `json:"total_appointments"`
	Completed         int        `json:"completed"`
	Cancelled         int        `json:"cancelled"`
	NoShow            int        `json:"no_show"`
	LastAppointment   *time.Time `json:"last_appointment,omitempty"`
}

// ComputeClientActivity группирует визиты по клиентам; имя/почта/статус
// заполняются из lookup, если клиент известен.
func ComputeClientActivity(appointments []models.Appointment, lookup map[string]*models.Client) []ClientActivity {
	byClient := make(map[string]*ClientActivity)
	var order []string

	for i := range appointments {
		apt := &appointments[i]
		activity, ok := byClient[apt.ClientID]
		if !ok {
			activity = &ClientActivity{ClientID: apt.ClientID}
			byClient[apt.ClientID] = activity
			order = append(order, apt.ClientID)
		}

		activity.TotalAppointments++
		switch apt.Status {
		case models.AppointmentStatusCompleted:
			activity.Completed++
		case models.AppointmentStatusCancelled:
			activity.Cancelled++
		case models.AppointmentStatusNoShow:
			activity.NoShow++
		}
		if activity.LastAppointment == nil || apt.Time.After(*activity.LastAppointment) {
			t := apt.Time
			activity.LastAppointment = &t
		}
	}

	result := make([]ClientActivity, 0, len(order))
	for _, id := range order {
		activity := byClient[id]
		if c, ok := lookup[id]; ok {
			activity.ClientName = c.Name
			activity.ClientEmail = c.Email
			activity.ClientStatus = c.Status
		}
		result = append(result, *activity)
	}
	return result
}

type PerformanceReport struct {
	TotalAppointments     int     `json:"total_appointments"`
	CompletionRate        float64 `json:"completion_rate"`
	CancellationRate      float64 `json:"cancellation_rate"`
	NoShowRate            float64 `json:"no_show_rate"`
	ScheduledAppointments int     `json:"scheduled_appointments"`
}

type TimeDistribution struct {
	Morning   int `json:"morning"`
	Afternoon int `json:"afternoon"`
	Evening   int `json:"evening"`
}

// ComputePerformance — доли по статусам плюс распределение по времени суток
// (утро 6-12, день 12-18, вечер 18-22).
func ComputePerformance(appointments []models.Appointment) (PerformanceReport, TimeDistribution) {
	report := PerformanceReport{TotalAppointments: len(appointments)}
	var dist TimeDistribution
	completed, cancelled, noShow := 0, 0, 0

	for i := range appointments {
		apt := &appointments[i]
		switch apt.Status {
		case models.AppointmentStatusCompleted:
			completed++
		case models.AppointmentStatusCancelled:
			cancelled++
		case models.AppointmentStatusNoShow:
			noShow++
		case models.AppointmentStatusScheduled:
			report.ScheduledAppointments++
		}

		switch hour := apt.Time.Hour(); {
		case hour >= 6 && hour < 12:
			dist.Morning++
		case hour >= 12 && hour < 18:
			dist.Afternoon++
		case hour >= 18 && hour < 22:
			dist.Evening++
		}
	}

	if report.TotalAppointments > 0 {
		total := float64(report.TotalAppointments)
		report.CompletionRate = float64(completed) / total * 100
		report.CancellationRate = float64(cancelled) / total * 100
		report.NoShowRate = float64(noShow) / total * 100
	}
	return report, dist
}
