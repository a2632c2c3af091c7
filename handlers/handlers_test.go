package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"wellness-platform/apperrors"
	"wellness-platform/middleware"
	"wellness-platform/models"
	"wellness-platform/scheduling"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memRepo — полная реализация репозитория в памяти для тестов обработчиков.
type memRepo struct {
	clients      map[string]*models.Client
	appointments map[string]*models.Appointment
}

func newMemRepo() *memRepo {
	return &memRepo{
		clients:      make(map[string]*models.Client),
		appointments: make(map[string]*models.Appointment),
	}
}

func (m *memRepo) CreateClient(client *models.Client) error {
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now()
	}
	stored := *client
	m.clients[client.ID] = &stored
	return nil
}

func (m *memRepo) GetClientByID(id string) (*models.Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (m *memRepo) GetClientWithAppointments(id string) (*models.Client, error) {
	c, err := m.GetClientByID(id)
	if err != nil {
		return nil, err
	}
	for _, a := range m.appointments {
		if a.ClientID == id {
			c.Appointments = append(c.Appointments, *a)
		}
	}
	return c, nil
}

func (m *memRepo) GetClientByEmail(email string) (*models.Client, error) {
	for _, c := range m.clients {
		if c.Email == email {
			out := *c
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memRepo) ListClients(filter models.ClientFilter) ([]models.Client, error) {
	var out []models.Client
	for _, c := range m.clients {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *memRepo) UpdateClient(client *models.Client) error {
	if _, ok := m.clients[client.ID]; !ok {
		return models.ErrNotFound
	}
	stored := *client
	m.clients[client.ID] = &stored
	return nil
}

func (m *memRepo) DeleteClient(id string) error {
	if _, ok := m.clients[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.clients, id)
	return nil
}

func (m *memRepo) CountClientAppointments(clientID string) (int64, error) {
	var count int64
	for _, a := range m.appointments {
		if a.ClientID == clientID {
			count++
		}
	}
	return count, nil
}

func (m *memRepo) CreateAppointment(appointment *models.Appointment) error {
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = time.Now()
	}
	stored := *appointment
	m.appointments[appointment.ID] = &stored
	return nil
}

func (m *memRepo) CreateAppointments(appointments []*models.Appointment) error {
	for _, a := range appointments {
		if err := m.CreateAppointment(a); err != nil {
			return err
		}
	}
	return nil
}

func (m *memRepo) GetAppointmentByID(id string) (*models.Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *a
	if c, ok := m.clients[a.ClientID]; ok {
		client := *c
		out.Client = &client
	}
	return &out, nil
}

func (m *memRepo) ListAppointments(filter models.AppointmentFilter) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range m.appointments {
		if filter.ClientID != "" && a.ClientID != filter.ClientID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.IsRecurring != nil && a.IsRecurring != *filter.IsRecurring {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (m *memRepo) ListActiveAppointments(clientID, excludeID string) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range m.appointments {
		if a.ClientID != clientID || !a.CountsAsConflict() {
			continue
		}
		if excludeID != "" && a.ID == excludeID {
			continue
		}
		apt := *a
		if c, ok := m.clients[a.ClientID]; ok {
			client := *c
			apt.Client = &client
		}
		out = append(out, apt)
	}
	return out, nil
}

func (m *memRepo) ListPendingReminders(cutoff time.Time) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range m.appointments {
		if a.ReminderTime == nil || a.ReminderSent || a.Status != models.AppointmentStatusScheduled {
			continue
		}
		if a.ReminderTime.After(cutoff) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (m *memRepo) UpdateAppointment(appointment *models.Appointment) error {
	if _, ok := m.appointments[appointment.ID]; !ok {
		return models.ErrNotFound
	}
	stored := *appointment
	stored.Client = nil
	m.appointments[appointment.ID] = &stored
	return nil
}

func (m *memRepo) DeleteAppointment(id string) error {
	if _, ok := m.appointments[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.appointments, id)
	return nil
}

func (m *memRepo) Ping() error  { return nil }
func (m *memRepo) Close() error { return nil }

// --- Роутер и запросы ---

func newTestRouter(repo models.Repository) *gin.Engine {
	router := gin.New()
	router.Use(middleware.ErrorHandler())

	checker := scheduling.NewConflictChecker(repo)
	generator := scheduling.NewGenerator(checker, repo)

	clientHandler := NewClientHandler(repo, nil)
	appointmentHandler := NewAppointmentHandler(repo, nil, checker, generator)

	api := router.Group("/api")

	clients := api.Group("/clients")
	clients.GET("", clientHandler.ListClients)
	clients.POST("", clientHandler.CreateClient)
	clients.GET("/analytics", clientHandler.GetClientAnalytics)
	clients.GET("/export/csv", clientHandler.ExportClientsCSV)
	clients.GET("/:id", clientHandler.GetClient)
	clients.PUT("/:id", clientHandler.UpdateClient)
	clients.DELETE("/:id", clientHandler.DeleteClient)
	clients.GET("/:id/appointments", clientHandler.GetClientAppointments)
	clients.GET("/:id/analytics", clientHandler.GetSingleClientAnalytics)

	appointments := api.Group("/appointments")
	appointments.GET("", appointmentHandler.ListAppointments)
	appointments.POST("", appointmentHandler.CreateAppointment)
	appointments.GET("/conflicts", appointmentHandler.CheckConflicts)
	appointments.GET("/trends", appointmentHandler.GetAppointmentTrends)
	appointments.POST("/recurring", appointmentHandler.CreateRecurring)
	appointments.GET("/reminders/pending", appointmentHandler.GetPendingReminders)
	appointments.GET("/:id", appointmentHandler.GetAppointment)
	appointments.PUT("/:id", appointmentHandler.UpdateAppointment)
	appointments.DELETE("/:id", appointmentHandler.DeleteAppointment)
	appointments.POST("/:id/send-reminder", appointmentHandler.SendReminder)

	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) apperrors.EnvelopeBody {
	t.Helper()
	var envelope apperrors.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response is not an error envelope: %v (%s)", err, w.Body.String())
	}
	return envelope.Error
}

func seedClient(t *testing.T, repo *memRepo, id, name, email string) {
	t.Helper()
	err := repo.CreateClient(&models.Client{
		ID: id, Name: name, Email: email,
		Status: models.ClientStatusActive, IsActive: true,
	})
	if err != nil {
		t.Fatalf("failed to seed client: %v", err)
	}
}

func seedAppointment(t *testing.T, repo *memRepo, id, clientID string, at time.Time, status string) {
	t.Helper()
	err := repo.CreateAppointment(&models.Appointment{
		ID: id, ClientID: clientID, Time: at, Status: status, IsActive: true,
	})
	if err != nil {
		t.Fatalf("failed to seed appointment: %v", err)
	}
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, want, w.Body.String())
	}
}
