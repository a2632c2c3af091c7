// Package consumer раскладывает события сущностей из Kafka
// по Postgres, Redis и Elasticsearch.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"wellness-platform/handlers"
	"wellness-platform/models"
	"wellness-platform/utils"
)

const clientsIndex = "clients"

type EntityEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type SyncConsumer struct {
	repo     models.Repository
	cache    utils.RedisClient
	es       utils.ElasticsearchClient
	reader   *kafka.Reader
	shutdown chan struct{}
}

func NewSyncConsumer(broker string, repo models.Repository, cache utils.RedisClient, es utils.ElasticsearchClient) *SyncConsumer {
	return &SyncConsumer{
		repo:  repo,
		cache: cache,
		es:    es,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     []string{broker},
			GroupTopics: []string{handlers.ClientEventsTopic, handlers.AppointmentEventsTopic},
			GroupID:     "wellness-platform-group",
			MaxWait:     10 * time.Second,
		}),
		shutdown: make(chan struct{}),
	}
}

func (c *SyncConsumer) Start(ctx context.Context) {
	log.Println("Starting Kafka consumer...")

	go func() {
		for {
			select {
			case <-c.shutdown:
				return
			default:
				c.processMessage(ctx)
			}
		}
	}()
}

func (c *SyncConsumer) Stop() {
	close(c.shutdown)
	if err := c.reader.Close(); err != nil {
		log.Printf("Error closing Kafka reader: %v", err)
	}
}

func (c *SyncConsumer) processMessage(ctx context.Context) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if err == context.Canceled {
			return
		}
		log.Printf("Kafka read error: %v (will retry)", err)
		time.Sleep(5 * time.Second)
		return
	}

	var event EntityEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Printf("Failed to unmarshal Kafka message: %v", err)
		return
	}

	switch event.Event {
	case "client_created", "client_updated":
		c.handleClientUpsert(ctx, event)
	case "client_deleted":
		c.handleClientDeleted(ctx, event)
	case "appointment_created", "appointment_updated":
		c.handleAppointmentUpsert(ctx, event)
	case "appointment_deleted":
		c.handleAppointmentDeleted(ctx, event)
	default:
		log.Printf("Unknown event type: %s", event.Event)
	}
}

func (c *SyncConsumer) handleClientUpsert(ctx context.Context, event EntityEvent) {
	var client models.Client
	if err := json.Unmarshal(event.Data, &client); err != nil {
		log.Printf("Failed to decode client event: %v", err)
		return
	}

	// 1. Postgres: вставка либо обновление по id
	existing, err := c.repo.GetClientByID(client.ID)
	switch {
	case err == models.ErrNotFound:
		if err := c.repo.CreateClient(&client); err != nil {
			log.Printf("Failed to create client from Kafka: %v", err)
			return
		}
	case err != nil:
		log.Printf("Failed to look up client from Kafka: %v", err)
		return
	default:
		existing.Name = client.Name
		existing.Email = client.Email
		existing.Phone = client.Phone
		existing.Status = client.Status
		existing.Notes = client.Notes
		if err := c.repo.UpdateClient(existing); err != nil {
			log.Printf("Failed to update client from Kafka: %v", err)
			return
		}
	}

	// 2. Redis
	c.cacheEntity(ctx, fmt.Sprintf("client:%s", client.ID), client)

	// 3. Elasticsearch
	if c.es != nil {
		if err := c.es.IndexDocument(ctx, clientsIndex, client.ID, client); err != nil {
			log.Printf("Failed to index client in Elasticsearch: %v", err)
		}
	}

	log.Printf("Processed %s event for client %s", event.Event, client.ID)
}

func (c *SyncConsumer) handleClientDeleted(ctx context.Context, event EntityEvent) {
	var client models.Client
	if err := json.Unmarshal(event.Data, &client); err != nil {
		log.Printf("Failed to decode client event: %v", err)
		return
	}

	if err := c.cache.DeleteFromCache(ctx, fmt.Sprintf("client:%s", client.ID)); err != nil {
		log.Printf("Failed to delete client from cache: %v", err)
	}
	if c.es != nil {
		if err := c.es.DeleteDocument(ctx, clientsIndex, client.ID); err != nil {
			log.Printf("Failed to delete client from Elasticsearch: %v", err)
		}
	}

	log.Printf("Processed client_deleted event for client %s", client.ID)
}

func (c *SyncConsumer) handleAppointmentUpsert(ctx context.Context, event EntityEvent) {
	var appointment models.Appointment
	if err := json.Unmarshal(event.Data, &appointment); err != nil {
		log.Printf("Failed to decode appointment event: %v", err)
		return
	}
	appointment.Client = nil

	existing, err := c.repo.GetAppointmentByID(appointment.ID)
	switch {
	case err == models.ErrNotFound:
		if err := c.repo.CreateAppointment(&appointment); err != nil {
			log.Printf("Failed to create appointment from Kafka: %v", err)
			return
		}
	case err != nil:
		log.Printf("Failed to look up appointment from Kafka: %v", err)
		return
	default:
		existing.ClientID = appointment.ClientID
		existing.Time = appointment.Time
		existing.Status = appointment.Status
		existing.Notes = appointment.Notes
		existing.IsRecurring = appointment.IsRecurring
		existing.RecurringPattern = appointment.RecurringPattern
		existing.ReminderSent = appointment.ReminderSent
		existing.ReminderTime = appointment.ReminderTime
		existing.Client = nil
		if err := c.repo.UpdateAppointment(existing); err != nil {
			log.Printf("Failed to update appointment from Kafka: %v", err)
			return
		}
	}

	c.cacheEntity(ctx, fmt.Sprintf("appointment:%s", appointment.ID), appointment)

	log.Printf("Processed %s event for appointment %s", event.Event, appointment.ID)
}

func (c *SyncConsumer) handleAppointmentDeleted(ctx context.Context, event EntityEvent) {
	var appointment models.Appointment
	if err := json.Unmarshal(event.Data, &appointment); err != nil {
		log.Printf("Failed to decode appointment event: %v", err)
		return
	}

	if err := c.cache.DeleteFromCache(ctx, fmt.Sprintf("appointment:%s", appointment.ID)); err != nil {
		log.Printf("Failed to delete appointment from cache: %v", err)
	}

	log.Printf("Processed appointment_deleted event for appointment %s", appointment.ID)
}

func (c *SyncConsumer) cacheEntity(ctx context.Context, key string, entity interface{}) {
	data, err := json.Marshal(entity)
	if err != nil {
		log.Printf("Failed to marshal entity for cache: %v", err)
		return
	}
	if err := c.cache.SetToCache(ctx, key, string(data), 24*time.Hour); err != nil {
		log.Printf("Failed to cache entity: %v", err)
	}
}
