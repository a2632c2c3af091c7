package models

import "time"

// Статусы клиента
const (
	ClientStatusActive   = "active"
	ClientStatusInactive = "inactive"
	ClientStatusPending  = "pending"
)

type Client struct {
	ID        string     `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"size:100;not null" json:"name"`
	Email     string     `gorm:"size:100;not null;unique" json:"email"`
	Phone     string     `gorm:"size:20" json:"phone,omitempty"`
	Status    string     `gorm:"size:20;default:active" json:"status"`
	Notes     string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`

	Appointments []Appointment `gorm:"foreignKey:ClientID" json:"appointments,omitempty"`
}
