package external

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ClientRecord / AppointmentRecord — записи в формате внешнего провайдера.
type ClientRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type AppointmentRecord struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	Time     string `json:"time"`
}

// FallbackClients — фиксированный демо-набор, подставляемый когда
// провайдер выключен или недоступен.
func FallbackClients() []ClientRecord {
	return []ClientRecord{
		{ID: "1", Name: "John Doe", Email: "john@example.com", Phone: "1234567890"},
		{ID: "2", Name: "Jane Smith", Email: "jane@example.com", Phone: "9876543210"},
		{ID: "3", Name: "Ahmed Hassan", Email: "ahmed@example.com", Phone: "5555555555"},
		{ID: "4", Name: "Fatima Ali", Email: "fatima@example.com", Phone: "4444444444"},
		{ID: "5", Name: "Omar Khan", Email: "omar@example.com", Phone: "3333333333"},
	}
}

func FallbackAppointments() []AppointmentRecord {
	return []AppointmentRecord{
		{ID: "a1", ClientID: "1", Time: "2025-07-15T10:00:00Z"},
		{ID: "a2", ClientID: "2", Time: "2025-07-16T11:00:00Z"},
		{ID: "a3", ClientID: "3", Time: "2025-07-17T14:00:00Z"},
		{ID: "a4", ClientID: "4", Time: "2025-07-18T09:00:00Z"},
		{ID: "a5", ClientID: "5", Time: "2025-07-19T15:00:00Z"},
	}
}

// mockResponse — детерминированный ответ вместо сетевого вызова.
func mockResponse(method, endpoint string, payload map[string]interface{}) json.RawMessage {
	switch {
	case endpoint == "/health":
		return mustMarshal(map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	case endpoint == "/clients" && method == "GET":
		return mustMarshal(FallbackClients())
	case endpoint == "/appointments" && method == "GET":
		return mustMarshal(FallbackAppointments())
	case method == "POST" && strings.Contains(endpoint, "/appointments"):
		// Эхо отправленных данных с синтетическим id
		resp := map[string]interface{}{
			"id": fmt.Sprintf("demo_%d", time.Now().UnixNano()),
		}
		if payload != nil {
			resp["client_id"] = payload["client_id"]
			resp["time"] = payload["time"]
		}
		return mustMarshal(resp)
	default:
		return mustMarshal(map[string]interface{}{
			"message":  "Mock response",
			"endpoint": endpoint,
		})
	}
}

func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}
