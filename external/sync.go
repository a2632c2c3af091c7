package external

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"wellness-platform/models"
)

// SyncAll сверяет коллекции провайдера с локальным хранилищем.
// Клиенты идут первыми: демо-визиты ссылаются на демо-клиентов.
func (s *Service) SyncAll(ctx context.Context, repo models.Repository) error {
	if err := s.SyncClients(ctx, repo); err != nil {
		return fmt.Errorf("client sync failed: %w", err)
	}
	if err := s.SyncAppointments(ctx, repo); err != nil {
		return fmt.Errorf("appointment sync failed: %w", err)
	}
	return nil
}

// SyncClients — upsert по id: существующие записи обновляются полями
// провайдера, новые вставляются. При сбое подколлекции сажаем демо-набор.
func (s *Service) SyncClients(ctx context.Context, repo models.Repository) error {
	raw := s.request(ctx, http.MethodGet, "/clients", nil)

	var records []ClientRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		log.Printf("Error syncing clients, seeding fallback set: %v", err)
		return s.seedFallbackClients(repo)
	}

	for _, rec := range records {
		if err := upsertClient(repo, rec); err != nil {
			log.Printf("Error syncing clients, seeding fallback set: %v", err)
			return s.seedFallbackClients(repo)
		}
	}

	log.Printf("Synced %d clients", len(records))
	return nil
}

func (s *Service) SyncAppointments(ctx context.Context, repo models.Repository) error {
	raw := s.request(ctx, http.MethodGet, "/appointments", nil)

	var records []AppointmentRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		log.Printf("Error syncing appointments, seeding fallback set: %v", err)
		return s.seedFallbackAppointments(repo)
	}

	for _, rec := range records {
		if err := upsertAppointment(repo, rec); err != nil {
			log.Printf("Error syncing appointments, seeding fallback set: %v", err)
			return s.seedFallbackAppointments(repo)
		}
	}

	log.Printf("Synced %d appointments", len(records))
	return nil
}

func upsertClient(repo models.Repository, rec ClientRecord) error {
	existing, err := repo.GetClientByID(rec.ID)
	if err == nil {
		existing.Name = rec.Name
		existing.Email = rec.Email
		existing.Phone = rec.Phone
		return repo.UpdateClient(existing)
	}
	if err != models.ErrNotFound {
		return err
	}

	return repo.CreateClient(&models.Client{
		ID:       rec.ID,
		Name:     rec.Name,
		Email:    rec.Email,
		Phone:    rec.Phone,
		Status:   models.ClientStatusActive,
		IsActive: true,
	})
}

func upsertAppointment(repo models.Repository, rec AppointmentRecord) error {
	t, err := parseProviderTime(rec.Time)
	if err != nil {
		return fmt.Errorf("bad appointment time %q: %w", rec.Time, err)
	}

	existing, err := repo.GetAppointmentByID(rec.ID)
	if err == nil {
		existing.ClientID = rec.ClientID
		existing.Time = t
		existing.Client = nil
		return repo.UpdateAppointment(existing)
	}
	if err != models.ErrNotFound {
		return err
	}

	return repo.CreateAppointment(&models.Appointment{
		ID:       rec.ID,
		ClientID: rec.ClientID,
		Time:     t,
		Status:   models.AppointmentStatusScheduled,
		IsActive: true,
	})
}

// parseProviderTime нормализует метки времени провайдера: литеральный UTC
// суффикс "Z" приводится к явному смещению, строка разбирается как RFC3339.
func parseProviderTime(raw string) (time.Time, error) {
	normalized := strings.Replace(raw, "Z", "+00:00", 1)
	return time.Parse(time.RFC3339, normalized)
}

// Идемпотентная посадка демо-данных: вставляем только отсутствующие id.

func (s *Service) seedFallbackClients(repo models.Repository) error {
	for _, rec := range FallbackClients() {
		if _, err := repo.GetClientByID(rec.ID); err == nil {
			continue
		} else if err != models.ErrNotFound {
			return err
		}
		if err := upsertClient(repo, rec); err != nil {
			return err
		}
	}
	log.Println("Created fallback clients for demo")
	return nil
}

func (s *Service) seedFallbackAppointments(repo models.Repository) error {
	for _, rec := range FallbackAppointments() {
		if _, err := repo.GetAppointmentByID(rec.ID); err == nil {
			continue
		} else if err != models.ErrNotFound {
			return err
		}
		if err := upsertAppointment(repo, rec); err != nil {
			return err
		}
	}
	log.Println("Created fallback appointments for demo")
	return nil
}
