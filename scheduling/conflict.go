// Package scheduling содержит проверку пересечений визитов и генерацию
// повторяющихся серий.
package scheduling

import (
	"time"

	"wellness-platform/models"
)

// DefaultDurationMinutes — фиксированная длительность существующего визита.
// Настраивается только длительность нового окна, не существующих записей.
const DefaultDurationMinutes = 60

type Conflict struct {
	ID         string    `json:"id"`
	Time       time.Time `json:"time"`
	Status     string    `json:"status"`
	ClientName string    `json:"client_name"`
}

type ConflictResult struct {
	HasConflicts bool       `json:"has_conflicts"`
	Conflicts    []Conflict `json:"conflicts"`
}

// Overlaps — пересечение полуоткрытых интервалов:
// existing.Time < propEnd && existing.Time+60m > propStart.
// Визит, начинающийся ровно в конце окна, конфликтом не считается.
func Overlaps(existingStart, proposedStart time.Time, durationMinutes int) bool {
	proposedEnd := proposedStart.Add(time.Duration(durationMinutes) * time.Minute)
	existingEnd := existingStart.Add(DefaultDurationMinutes * time.Minute)
	return existingStart.Before(proposedEnd) && existingEnd.After(proposedStart)
}

// ConflictChecker отвечает на вопрос, занято ли окно у клиента.
type ConflictChecker struct {
	repo models.Repository
}

func NewConflictChecker(repo models.Repository) *ConflictChecker {
	return &ConflictChecker{repo: repo}
}

// Check возвращает все активные визиты клиента, пересекающие окно
// [start, start+duration). Только чтение, ничего не меняет.
func (c *ConflictChecker) Check(clientID string, start time.Time, durationMinutes int, excludeID string) (*ConflictResult, error) {
	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}

	existing, err := c.repo.ListActiveAppointments(clientID, excludeID)
	if err != nil {
		return nil, err
	}

	result := &ConflictResult{Conflicts: []Conflict{}}
	for i := range existing {
		apt := &existing[i]
		if !apt.CountsAsConflict() {
			continue
		}
		if Overlaps(apt.Time, start, durationMinutes) {
			result.Conflicts = append(result.Conflicts, Conflict{
				ID:         apt.ID,
				Time:       apt.Time,
				Status:     apt.Status,
				ClientName: apt.ClientName(),
			})
		}
	}
	result.HasConflicts = len(result.Conflicts) > 0
	return result, nil
}
