// Package events publishes lifecycle events of the placement service to Kafka
// and consumes them back for auditing.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gartstein/placement/internal/placement/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

const defaultQueueSize = 1000

type EventType string

const (
	CompanyRegistered        EventType = "company_registered"
	CompanyValidated         EventType = "company_validated"
	CompanyAdvisorRegistered EventType = "company_advisor_registered"
	OfferCreated             EventType = "offer_created"
	OfferUpdated             EventType = "offer_updated"
	OfferDeleted             EventType = "offer_deleted"
	ApplicationSubmitted     EventType = "application_submitted"
	ApplicationStatusChanged EventType = "application_status_changed"
	ApplicationDeleted       EventType = "application_deleted"
	InternshipCreated        EventType = "internship_created"
	InternshipUpdated        EventType = "internship_updated"
	EvaluationCreated        EventType = "evaluation_created"
	EvaluationUpdated        EventType = "evaluation_updated"
	EvaluationDeleted        EventType = "evaluation_deleted"
	DocumentAttached         EventType = "document_attached"
	DocumentDeleted          EventType = "document_deleted"
)

// Event describes a committed lifecycle change.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       EventType       `json:"type"`
	EntityID   int64           `json:"entity_id"`
	ActorID    int64           `json:"actor_id"`
	ActorRole  models.Role     `json:"actor_role"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an event for the entity changed by actor. payload is
// encoded as JSON; encoding failures leave the payload empty.
func NewEvent(eventType EventType, actor models.Identity, entityID int64, payload interface{}) Event {
	event := Event{
		ID:         uuid.New(),
		Type:       eventType,
		EntityID:   entityID,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		OccurredAt: time.Now().UTC(),
	}
	if payload != nil {
		if raw, err := jsonMarshal(payload); err == nil {
			event.Payload = raw
		}
	}
	return event
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
}

func NewProducer(brokers []string, logger *zap.Logger, topic string) (*Producer, error) {
	// Create topic if it doesn't exist
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	topicConfigs := []kafka.TopicConfig{
		{
			Topic:             topic,
			NumPartitions:     3,
			ReplicationFactor: 1,
		},
	}

	err = conn.CreateTopics(topicConfigs...)
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}

	p := newProducer(&kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.Hash{},
		Topic:    topic,
	}, logger, defaultQueueSize)

	go p.eventLoop()
	return p, nil
}

func newProducer(writer KafkaWriter, logger *zap.Logger, queueSize int) *Producer {
	return &Producer{
		writer:    writer,
		events:    make(chan Event, queueSize),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
	}
}

// Produce queues event without blocking. A full queue drops the event.
func (p *Producer) Produce(event Event) {
	select {
	case p.events <- event:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.Int64("entity_id", event.EntityID),
		)
	}
}

func (p *Producer) eventLoop() {
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			return
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.Int64("entity_id", event.EntityID),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(event.EntityID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.Int64("entity_id", event.EntityID),
		)
		return
	}
}

func (p *Producer) Close() {
	close(p.closeChan)
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}

// NopProducer discards events. It stands in when no broker is configured.
type NopProducer struct{}

func (NopProducer) Produce(Event) {}
