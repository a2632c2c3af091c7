package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"wellness-platform/models"
)

type fakeRepo struct {
	models.Repository

	clients      map[string]*models.Client
	appointments map[string]*models.Appointment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		clients:      make(map[string]*models.Client),
		appointments: make(map[string]*models.Appointment),
	}
}

func (f *fakeRepo) GetClientByID(id string) (*models.Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (f *fakeRepo) CreateClient(client *models.Client) error {
	f.clients[client.ID] = client
	return nil
}

func (f *fakeRepo) UpdateClient(client *models.Client) error {
	f.clients[client.ID] = client
	return nil
}

func (f *fakeRepo) GetAppointmentByID(id string) (*models.Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *a
	return &out, nil
}

func (f *fakeRepo) CreateAppointment(appointment *models.Appointment) error {
	f.appointments[appointment.ID] = appointment
	return nil
}

func (f *fakeRepo) UpdateAppointment(appointment *models.Appointment) error {
	f.appointments[appointment.ID] = appointment
	return nil
}

type fakeCache struct {
	values  map[string]string
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (f *fakeCache) GetFromCache(ctx context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeCache) SetToCache(ctx context.Context, key, value string, expiration time.Duration) error {
	f.values[key] = value
	return nil
}

func (f *fakeCache) DeleteFromCache(ctx context.Context, key string) error {
	delete(f.values, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeCache) Close() error { return nil }

type fakeES struct {
	indexed map[string]string
	deleted []string
}

func newFakeES() *fakeES {
	return &fakeES{indexed: make(map[string]string)}
}

func (f *fakeES) IndexDocument(ctx context.Context, index, id string, document interface{}) error {
	f.indexed[index+"/"+id] = index
	return nil
}

func (f *fakeES) SearchDocuments(ctx context.Context, index string, query map[string]interface{}) ([]map[string]interface{}, error) {
	return nil, nil
}

func (f *fakeES) DeleteDocument(ctx context.Context, index, id string) error {
	f.deleted = append(f.deleted, index+"/"+id)
	return nil
}

func (f *fakeES) Close() error { return nil }

func mustEvent(t *testing.T, event string, data interface{}) EntityEvent {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("failed to marshal event data: %v", err)
	}
	return EntityEvent{Event: event, Data: raw}
}

func TestClientCreatedEventFansOut(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	es := newFakeES()
	c := &SyncConsumer{repo: repo, cache: cache, es: es}

	client := models.Client{ID: "c1", Name: "John Doe", Email: "john@example.com"}
	c.handleClientUpsert(context.Background(), mustEvent(t, "client_created", client))

	if _, ok := repo.clients["c1"]; !ok {
		t.Error("client was not written to Postgres")
	}
	if cache.values["client:c1"] == "" {
		t.Error("client was not written to Redis")
	}
	if es.indexed["clients/c1"] == "" {
		t.Error("client was not indexed in Elasticsearch")
	}
}

func TestClientUpdatedEventUpserts(t *testing.T) {
	repo := newFakeRepo()
	repo.clients["c1"] = &models.Client{ID: "c1", Name: "Old Name", Email: "john@example.com"}
	c := &SyncConsumer{repo: repo, cache: newFakeCache(), es: newFakeES()}

	updated := models.Client{ID: "c1", Name: "New Name", Email: "john@example.com"}
	c.handleClientUpsert(context.Background(), mustEvent(t, "client_updated", updated))

	if repo.clients["c1"].Name != "New Name" {
		t.Errorf("client name = %q, want New Name", repo.clients["c1"].Name)
	}
}

func TestClientDeletedEventCleansUp(t *testing.T) {
	cache := newFakeCache()
	cache.values["client:c1"] = "{}"
	es := newFakeES()
	c := &SyncConsumer{repo: newFakeRepo(), cache: cache, es: es}

	c.handleClientDeleted(context.Background(), mustEvent(t, "client_deleted", models.Client{ID: "c1"}))

	if _, ok := cache.values["client:c1"]; ok {
		t.Error("client cache entry was not removed")
	}
	if len(es.deleted) != 1 || es.deleted[0] != "clients/c1" {
		t.Errorf("ES deletions = %v, want [clients/c1]", es.deleted)
	}
}

func TestAppointmentEventsFanOut(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	c := &SyncConsumer{repo: repo, cache: cache, es: newFakeES()}

	apt := models.Appointment{
		ID: "a1", ClientID: "c1",
		Time:   time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC),
		Status: models.AppointmentStatusScheduled,
	}
	c.handleAppointmentUpsert(context.Background(), mustEvent(t, "appointment_created", apt))

	if _, ok := repo.appointments["a1"]; !ok {
		t.Error("appointment was not written to Postgres")
	}
	if cache.values["appointment:a1"] == "" {
		t.Error("appointment was not cached")
	}

	c.handleAppointmentDeleted(context.Background(), mustEvent(t, "appointment_deleted", models.Appointment{ID: "a1"}))
	if _, ok := cache.values["appointment:a1"]; ok {
		t.Error("appointment cache entry was not removed")
	}
}

func TestConsumerWorksWithoutElasticsearch(t *testing.T) {
	repo := newFakeRepo()
	c := &SyncConsumer{repo: repo, cache: newFakeCache(), es: nil}

	client := models.Client{ID: "c1", Name: "John Doe", Email: "john@example.com"}
	c.handleClientUpsert(context.Background(), mustEvent(t, "client_created", client))

	if _, ok := repo.clients["c1"]; !ok {
		t.Error("client upsert failed without Elasticsearch")
	}
}
