package kafka

import (
	"context"
	"encoding/json"
	"time"

	"concierge/internal/models"

	"github.com/segmentio/kafka-go"
)

const (
	TopicBookingUpdated   = "concierge.booking.updated"
	TopicBookingConfirmed = "concierge.booking.confirmed"
	TopicBookingCancelled = "concierge.booking.cancelled"
)

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
	})
	return &Producer{Writer: writer}
}

func (p *Producer) publish(topic string, booking models.Booking) error {
	event := models.BookingEvent{
		BookingID: booking.ID,
		SessionID: booking.SessionID,
		State:     booking.State,
		Timestamp: time.Now().UTC(),
	}
	if booking.GuestName != nil {
		event.GuestName = *booking.GuestName
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(booking.ID),
			Value: value,
		},
	)
}

// PublishBookingUpdated streams a draft-changed event to Kafka
func (p *Producer) PublishBookingUpdated(booking models.Booking) error {
	return p.publish(TopicBookingUpdated, booking)
}

// PublishBookingConfirmed streams the confirmation event to Kafka
func (p *Producer) PublishBookingConfirmed(booking models.Booking) error {
	return p.publish(TopicBookingConfirmed, booking)
}

// PublishBookingCancelled streams the cancellation event to Kafka
func (p *Producer) PublishBookingCancelled(booking models.Booking) error {
	return p.publish(TopicBookingCancelled, booking)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// NoopPublisher is wired when no broker is configured. Lifecycle events
// are best-effort; the dialogue never blocks on them.
type NoopPublisher struct{}

func (NoopPublisher) PublishBookingUpdated(models.Booking) error   { return nil }
func (NoopPublisher) PublishBookingConfirmed(models.Booking) error { return nil }
func (NoopPublisher) PublishBookingCancelled(models.Booking) error { return nil }
