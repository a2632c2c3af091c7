package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Статусы визита
const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCancelled = "cancelled"
	AppointmentStatusNoShow    = "no-show"
)

// Frequency шаг повторения визита.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

const (
	MinRecurringCount = 1
	MaxRecurringCount = 52
)

var ErrInvalidPattern = errors.New("invalid recurring pattern")

// RecurringPattern описывает серию визитов: частота + количество.
type RecurringPattern struct {
	Frequency Frequency `json:"frequency"`
	Count     int       `json:"count"`
}

// Validate проверяет частоту и границы количества (1..52).
func (p RecurringPattern) Validate() error {
	switch p.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidPattern, p.Frequency)
	}
	if p.Count < MinRecurringCount || p.Count > MaxRecurringCount {
		return fmt.Errorf("%w: count must be between %d and %d, got %d",
			ErrInvalidPattern, MinRecurringCount, MaxRecurringCount, p.Count)
	}
	return nil
}

// Step возвращает интервал между соседними визитами серии.
// Месяц намеренно считается как 30 дней, без календарной арифметики.
func (p RecurringPattern) Step() time.Duration {
	switch p.Frequency {
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	case FrequencyMonthly:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Value / Scan — хранение паттерна в JSON-колонке.
func (p RecurringPattern) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *RecurringPattern) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type for RecurringPattern: %T", value)
	}
	return json.Unmarshal(raw, p)
}

type Appointment struct {
	ID               string            `gorm:"primaryKey" json:"id"`
	ClientID         string            `gorm:"not null;index" json:"client_id"`
	Time             time.Time         `gorm:"not null" json:"time"`
	Status           string            `gorm:"size:20;default:scheduled" json:"status"`
	Notes            string            `gorm:"type:text" json:"notes,omitempty"`
	IsRecurring      bool              `gorm:"default:false" json:"is_recurring"`
	RecurringPattern *RecurringPattern `gorm:"type:jsonb" json:"recurring_pattern,omitempty"`
	ReminderSent     bool              `gorm:"default:false" json:"reminder_sent"`
	ReminderTime     *time.Time        `json:"reminder_time,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        *time.Time        `json:"updated_at,omitempty"`
	IsActive         bool              `gorm:"default:true" json:"is_active"`

	Client *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}

// CountsAsConflict — отменённые и неявки не блокируют окно.
func (a *Appointment) CountsAsConflict() bool {
	return a.Status == AppointmentStatusScheduled || a.Status == AppointmentStatusCompleted
}

// ClientName возвращает имя клиента для отчётов о конфликтах.
func (a *Appointment) ClientName() string {
	if a.Client != nil {
		return a.Client.Name
	}
	return "Unknown"
}
