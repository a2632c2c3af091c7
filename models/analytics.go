package models

import "time"

// AnalyticsRecord — зарезервированная таблица метрик.
// Мигрируется вместе с остальными, но пока ничем не заполняется.
type AnalyticsRecord struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Date        time.Time `gorm:"not null" json:"date"`
	MetricType  string    `gorm:"size:50;not null" json:"metric_type"`
	MetricValue int       `gorm:"not null" json:"metric_value"`
	Metadata    string    `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (AnalyticsRecord) TableName() string {
	return "analytics"
}
