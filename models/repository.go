package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("record not found")

// ClientFilter — параметры списка клиентов.
type ClientFilter struct {
	Search        string
	Status        string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// AppointmentFilter — параметры списка визитов.
type AppointmentFilter struct {
	ClientID    string
	Status      string
	DateFrom    *time.Time
	DateTo      *time.Time
	IsRecurring *bool
}

type Repository interface {
	CreateClient(client *Client) error
	GetClientByID(id string) (*Client, error)
	GetClientWithAppointments(id string) (*Client, error)
	GetClientByEmail(email string) (*Client, error)
	ListClients(filter ClientFilter) ([]Client, error)
	UpdateClient(client *Client) error
	DeleteClient(id string) error
	CountClientAppointments(clientID string) (int64, error)

	CreateAppointment(appointment *Appointment) error
	CreateAppointments(appointments []*Appointment) error
	GetAppointmentByID(id string) (*Appointment, error)
	ListAppointments(filter AppointmentFilter) ([]Appointment, error)
	ListActiveAppointments(clientID string, excludeID string) ([]Appointment, error)
	ListPendingReminders(cutoff time.Time) ([]Appointment, error)
	UpdateAppointment(appointment *Appointment) error
	DeleteAppointment(id string) error

	Ping() error
	Close() error
}

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&Client{}, &Appointment{}, &AnalyticsRecord{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// --- Clients ---

func (r *PostgresRepository) CreateClient(client *Client) error {
	return r.db.Create(client).Error
}

func (r *PostgresRepository) GetClientByID(id string) (*Client, error) {
	var client Client
	if err := r.db.First(&client, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &client, nil
}

func (r *PostgresRepository) GetClientWithAppointments(id string) (*Client, error) {
	var client Client
	err := r.db.Preload("Appointments", func(db *gorm.DB) *gorm.DB {
		return db.Order("time")
	}).First(&client, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &client, nil
}

func (r *PostgresRepository) GetClientByEmail(email string) (*Client, error) {
	var client Client
	if err := r.db.First(&client, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &client, nil
}

func (r *PostgresRepository) ListClients(filter ClientFilter) ([]Client, error) {
	q := r.db.Model(&Client{})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("name ILIKE ? OR email ILIKE ? OR phone ILIKE ?", pattern, pattern, pattern)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CreatedAfter != nil {
		q = q.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		q = q.Where("created_at <= ?", *filter.CreatedBefore)
	}

	var clients []Client
	if err := q.Order("created_at DESC").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *PostgresRepository) UpdateClient(client *Client) error {
	return r.db.Omit(clause.Associations).Save(client).Error
}

func (r *PostgresRepository) DeleteClient(id string) error {
	res := r.db.Delete(&Client{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) CountClientAppointments(clientID string) (int64, error) {
	var count int64
	err := r.db.Model(&Appointment{}).Where("client_id = ?", clientID).Count(&count).Error
	return count, err
}

// --- Appointments ---

func (r *PostgresRepository) CreateAppointment(appointment *Appointment) error {
	return r.db.Create(appointment).Error
}

// CreateAppointments сохраняет серию визитов одной транзакцией.
func (r *PostgresRepository) CreateAppointments(appointments []*Appointment) error {
	if len(appointments) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, a := range appointments {
			if err := tx.Create(a).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresRepository) GetAppointmentByID(id string) (*Appointment, error) {
	var appointment Appointment
	if err := r.db.Preload("Client").First(&appointment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *PostgresRepository) ListAppointments(filter AppointmentFilter) ([]Appointment, error) {
	q := r.db.Model(&Appointment{}).Preload("Client")

	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.DateFrom != nil {
		q = q.Where("time >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("time <= ?", *filter.DateTo)
	}
	if filter.IsRecurring != nil {
		q = q.Where("is_recurring = ?", *filter.IsRecurring)
	}

	var appointments []Appointment
	if err := q.Order("time").Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

// ListActiveAppointments возвращает визиты клиента, способные занять окно
// (scheduled или completed), кроме excludeID.
func (r *PostgresRepository) ListActiveAppointments(clientID string, excludeID string) ([]Appointment, error) {
	q := r.db.Model(&Appointment{}).Preload("Client").
		Where("client_id = ?", clientID).
		Where("status IN ?", []string{AppointmentStatusScheduled, AppointmentStatusCompleted})

	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var appointments []Appointment
	if err := q.Order("time").Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *PostgresRepository) ListPendingReminders(cutoff time.Time) ([]Appointment, error) {
	var appointments []Appointment
	err := r.db.Model(&Appointment{}).
		Where("reminder_time IS NOT NULL AND reminder_time <= ?", cutoff).
		Where("reminder_sent = ?", false).
		Where("status = ?", AppointmentStatusScheduled).
		Order("reminder_time").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *PostgresRepository) UpdateAppointment(appointment *Appointment) error {
	return r.db.Omit(clause.Associations).Save(appointment).Error
}

func (r *PostgresRepository) DeleteAppointment(id string) error {
	res := r.db.Delete(&Appointment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Service ---

func (r *PostgresRepository) Ping() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (r *PostgresRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
