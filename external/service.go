// Package external — адаптер внешнего провайдера данных. Все сетевые вызовы
// идут через ретраи и автоматический выключатель; при исчерпании попыток
// адаптер деградирует к демо-данным и никогда не отдаёт наружу сбой провайдера.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"wellness-platform/config"
	"wellness-platform/monitoring"
	"wellness-platform/resilience"
	"wellness-platform/utils"
)

const healthCacheKey = "external:health"

type HealthStatus struct {
	Status      string          `json:"status"`
	Timestamp   string          `json:"timestamp"`
	ExternalAPI json.RawMessage `json:"external_api,omitempty"`
	Error       string          `json:"error,omitempty"`
}

type Service struct {
	cfg        config.ExternalAPIConfig
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	retry      *resilience.RetryHandler
	cache      utils.RedisClient // может быть nil, тогда кэш в памяти

	mu          sync.Mutex
	memHealth   *HealthStatus
	memHealthAt time.Time
}

func NewService(cfg config.ExternalAPIConfig, cache utils.RedisClient) *Service {
	return &Service{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    resilience.NewCircuitBreaker(cfg.FailureThreshold, cfg.RecoveryTimeout),
		retry:      resilience.NewRetryHandler(cfg.MaxRetries, cfg.RetryBaseDelay, cfg.RetryMaxDelay),
		cache:      cache,
	}
}

// request выполняет вызов провайдера с ретраями поверх выключателя.
// Любой финальный сбой подменяется демо-ответом.
func (s *Service) request(ctx context.Context, method, endpoint string, payload map[string]interface{}) json.RawMessage {
	if !s.cfg.Enabled {
		return mockResponse(method, endpoint, payload)
	}

	var response json.RawMessage
	err := s.retry.Do(ctx, func() error {
		return s.breaker.Call(func() error {
			body, err := s.doRequest(ctx, method, endpoint, payload)
			if err != nil {
				return err
			}
			response = body
			return nil
		})
	})
	if err != nil {
		log.Printf("External API call failed, falling back to demo data: %s %s: %v", method, endpoint, err)
		utils.CaptureError(err, map[string]interface{}{
			"service":  "external_api",
			"endpoint": endpoint,
			"method":   method,
		})
		monitoring.ExternalFallbacks.Inc()
		return mockResponse(method, endpoint, payload)
	}
	return response
}

func (s *Service) doRequest(ctx context.Context, method, endpoint string, payload map[string]interface{}) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.BaseURL+endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limit exceeded, retry-after=%s", resp.Header.Get("Retry-After"))
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("external service error: status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("http error: status %d", resp.StatusCode)
	}

	return data, nil
}

// CheckHealth — проверка провайдера с кэшем результата (по умолчанию 300с),
// чтобы не пробивать провайдера на каждый запрос.
func (s *Service) CheckHealth(ctx context.Context) *HealthStatus {
	if cached := s.cachedHealth(ctx); cached != nil {
		return cached
	}

	now := time.Now().UTC()
	status := &HealthStatus{
		Status:      "healthy",
		Timestamp:   now.Format(time.RFC3339),
		ExternalAPI: s.request(ctx, http.MethodGet, "/health", nil),
	}

	s.storeHealth(ctx, status)
	return status
}

func (s *Service) cachedHealth(ctx context.Context) *HealthStatus {
	if s.cache != nil {
		raw, err := s.cache.GetFromCache(ctx, healthCacheKey)
		if err == nil && raw != "" {
			var status HealthStatus
			if json.Unmarshal([]byte(raw), &status) == nil {
				return &status
			}
		}
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memHealth != nil && time.Since(s.memHealthAt) < s.cfg.HealthCacheTTL {
		return s.memHealth
	}
	return nil
}

func (s *Service) storeHealth(ctx context.Context, status *HealthStatus) {
	if s.cache != nil {
		if data, err := json.Marshal(status); err == nil {
			if err := s.cache.SetToCache(ctx, healthCacheKey, string(data), s.cfg.HealthCacheTTL); err != nil {
				log.Printf("Failed to cache external health status: %v", err)
			}
		}
		return
	}

	s.mu.Lock()
	s.memHealth = status
	s.memHealthAt = time.Now()
	s.mu.Unlock()
}

// CreateAppointment отправляет новый визит провайдеру.
func (s *Service) CreateAppointment(ctx context.Context, clientID string, t time.Time) (json.RawMessage, error) {
	if clientID == "" {
		return nil, fmt.Errorf("missing required field: client_id")
	}
	payload := map[string]interface{}{
		"client_id": clientID,
		"time":      t.UTC().Format(time.RFC3339),
	}
	return s.request(ctx, http.MethodPost, "/appointments", payload), nil
}

func (s *Service) DeleteAppointment(ctx context.Context, appointmentID string) json.RawMessage {
	return s.request(ctx, http.MethodDelete, "/appointments/"+appointmentID, nil)
}

// BreakerStatus — состояние выключателя для мониторинга.
func (s *Service) BreakerStatus() resilience.Status {
	status := s.breaker.Status()
	monitoring.SetBreakerState(string(status.State))
	return status
}
