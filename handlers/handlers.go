// Package handlers — HTTP-обработчики поверх gin.
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"wellness-platform/apperrors"
	"wellness-platform/utils"
)

// Топики событий сущностей
const (
	ClientEventsTopic      = "client_events"
	AppointmentEventsTopic = "appointment_events"
)

// abortWithError откладывает ошибку до middleware.ErrorHandler.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func validationError(c *gin.Context, err error) {
	abortWithError(c, apperrors.Wrap(apperrors.KindValidation, "Validation failed", err))
}

type entityEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// publishEvent отправляет событие в Kafka; сбой логируется и не влияет
// на ответ клиенту.
func publishEvent(producer utils.KafkaProducer, topic, event string, data interface{}) {
	if producer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	jsonData, err := json.Marshal(entityEvent{Event: event, Data: data})
	if err != nil {
		log.Printf("Failed to marshal Kafka event: %v", err)
		return
	}

	if err := producer.SendMessage(ctx, topic, nil, jsonData); err != nil {
		log.Printf("Failed to send Kafka message: %v", err)
	}
}

// parseTimeParam разбирает необязательный RFC3339-параметр запроса.
func parseTimeParam(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
