package scheduling

import (
	"github.com/google/uuid"

	"wellness-platform/models"
)

// GenerateResult — итог развёртывания серии.
type GenerateResult struct {
	Created []*models.Appointment
	Skipped int
}

// Generator разворачивает базовый визит в серию по паттерну.
type Generator struct {
	checker *ConflictChecker
	repo    models.Repository
}

func NewGenerator(checker *ConflictChecker, repo models.Repository) *Generator {
	return &Generator{checker: checker, repo: repo}
}

// Generate создаёт до pattern.Count визитов начиная с base.Time с шагом
// pattern.Step(). Каждый экземпляр отдельно проверяется на конфликт;
// конфликтующие молча пропускаются. Успешные сохраняются одной транзакцией.
func (g *Generator) Generate(base *models.Appointment, pattern models.RecurringPattern) (*GenerateResult, error) {
	if err := pattern.Validate(); err != nil {
		return nil, err
	}

	status := base.Status
	if status == "" {
		status = models.AppointmentStatusScheduled
	}

	result := &GenerateResult{}
	step := pattern.Step()
	occurrence := base.Time

	for i := 0; i < pattern.Count; i++ {
		conflicts, err := g.checker.Check(base.ClientID, occurrence, DefaultDurationMinutes, "")
		if err != nil {
			return nil, err
		}

		if conflicts.HasConflicts {
			result.Skipped++
		} else {
			p := pattern
			result.Created = append(result.Created, &models.Appointment{
				ID:               uuid.New().String(),
				ClientID:         base.ClientID,
				Time:             occurrence,
				Status:           status,
				Notes:            base.Notes,
				IsRecurring:      true,
				RecurringPattern: &p,
				ReminderTime:     base.ReminderTime,
				IsActive:         true,
			})
		}

		occurrence = occurrence.Add(step)
	}

	if err := g.repo.CreateAppointments(result.Created); err != nil {
		return nil, err
	}
	return result, nil
}
