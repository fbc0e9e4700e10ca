package events

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"catalog-service/internal/importer"
	"catalog-service/internal/models"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Catalog event subjects.
const (
	CategoryCreated = "catalog.category.created"
	CategoryUpdated = "catalog.category.updated"
	CategoryDeleted = "catalog.category.deleted"
	ImportCompleted = "catalog.import.completed"
)

// CategoryEvent is published on every category tree mutation.
type CategoryEvent struct {
	EventType    string    `json:"eventType"`
	CategoryID   string    `json:"categoryId"`
	CategoryName string    `json:"categoryName"`
	ParentID     string    `json:"parentId,omitempty"`
	Slug         string    `json:"slug,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// ImportEvent is published when an import run commits.
type ImportEvent struct {
	EventType string               `json:"eventType"`
	Entity    string               `json:"entity"`
	DryRun    bool                 `json:"dryRun"`
	Stats     importer.ImportStats `json:"stats"`
	Timestamp time.Time            `json:"timestamp"`
}

// Publisher emits catalog events over NATS. A nil Publisher (or one whose
// connection dropped) is safe to call; events are best-effort.
type Publisher struct {
	nc     *nats.Conn
	logger *logrus.Entry
}

// NewPublisher connects to NATS_URL (default nats://localhost:4222).
func NewPublisher(logger *logrus.Logger) (*Publisher, error) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = nats.DefaultURL
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("catalog-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	return &Publisher{
		nc:     nc,
		logger: logger.WithField("component", "events.publisher"),
	}, nil
}

func (p *Publisher) publish(subject string, event interface{}) error {
	if p == nil || p.nc == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.WithError(err).WithField("subject", subject).Warn("Failed to publish event")
		return err
	}
	return nil
}

// PublishCategoryCreated publishes a category created event
func (p *Publisher) PublishCategoryCreated(ctx context.Context, category *models.Category) error {
	return p.publishCategory(CategoryCreated, category)
}

// PublishCategoryUpdated publishes a category updated event
func (p *Publisher) PublishCategoryUpdated(ctx context.Context, category *models.Category) error {
	return p.publishCategory(CategoryUpdated, category)
}

// PublishCategoryDeleted publishes a category deleted event
func (p *Publisher) PublishCategoryDeleted(ctx context.Context, category *models.Category) error {
	return p.publishCategory(CategoryDeleted, category)
}

func (p *Publisher) publishCategory(eventType string, category *models.Category) error {
	parentID := ""
	if category.ParentID != nil {
		parentID = category.ParentID.String()
	}
	return p.publish(eventType, &CategoryEvent{
		EventType:    eventType,
		CategoryID:   category.ID.String(),
		CategoryName: category.Name,
		ParentID:     parentID,
		Slug:         category.Slug,
		Timestamp:    time.Now().UTC(),
	})
}

// PublishImportCompleted publishes the summary of a finished import run.
func (p *Publisher) PublishImportCompleted(ctx context.Context, entity string, dryRun bool, stats importer.ImportStats) error {
	return p.publish(ImportCompleted, &ImportEvent{
		EventType: ImportCompleted,
		Entity:    entity,
		DryRun:    dryRun,
		Stats:     stats,
		Timestamp: time.Now().UTC(),
	})
}

// IsConnected returns true if connected to NATS
func (p *Publisher) IsConnected() bool {
	return p.nc != nil && p.nc.IsConnected()
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}
