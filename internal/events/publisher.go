// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/catalogsync/internal/catalog"
	"github.com/tomtom215/catalogsync/internal/config"
	"github.com/tomtom215/catalogsync/internal/logging"
	"github.com/tomtom215/catalogsync/internal/metrics"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// Publisher publishes imported-entry events.
type Publisher interface {
	PublishEntryImported(ctx context.Context, entry *catalog.Entry) error
	Close() error
}

// NewPublisher creates the publisher selected by cfg.Backend.
func NewPublisher(cfg *config.EventsConfig) (Publisher, error) {
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	switch cfg.Backend {
	case config.EventsNone, "":
		return NopPublisher{}, nil
	case config.EventsGoChannel:
		pub, _ := NewGoChannelPublisher(topic)
		return pub, nil
	case config.EventsNATS:
		return NewNATSPublisher(cfg.NATSURL, topic)
	case config.EventsKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, topic)
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// NopPublisher drops every event.
type NopPublisher struct{}

// PublishEntryImported implements Publisher.
func (NopPublisher) PublishEntryImported(context.Context, *catalog.Entry) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

// watermillLogger routes Watermill's logs through the process logger.
func watermillLogger() watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logging.NewSlogLogger())
}

// WatermillPublisher publishes through any Watermill message.Publisher.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
	backend   string

	mu     sync.RWMutex
	closed bool
}

// NewWatermillPublisher wraps publisher. backend labels metrics.
func NewWatermillPublisher(publisher message.Publisher, topic, backend string) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher, topic: topic, backend: backend}
}

// NewGoChannelPublisher creates an in-process publisher. The returned
// GoChannel doubles as the subscriber side.
func NewGoChannelPublisher(topic string) (*WatermillPublisher, *gochannel.GoChannel) {
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, watermillLogger())
	return NewWatermillPublisher(ch, topic, config.EventsGoChannel), ch
}

// NewNATSPublisher creates a publisher on core NATS subjects.
func NewNATSPublisher(url, topic string) (*WatermillPublisher, error) {
	logger := watermillLogger()

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}
	return NewWatermillPublisher(pub, topic, config.EventsNATS), nil
}

// PublishEntryImported implements Publisher.
func (p *WatermillPublisher) PublishEntryImported(ctx context.Context, entry *catalog.Entry) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	event := NewEntryImported(entry, logging.CorrelationIDFromContext(ctx))
	data, err := event.Marshal()
	if err != nil {
		return err
	}

	msg := message.NewMessage(event.EventID, data)
	msg.Metadata.Set("slug", event.Slug)
	msg.Metadata.Set("schema_version", fmt.Sprint(event.SchemaVersion))
	if event.CorrelationID != "" {
		msg.Metadata.Set("correlation_id", event.CorrelationID)
	}
	msg.SetContext(ctx)

	err = p.publisher.Publish(p.topic, msg)
	metrics.RecordEventPublish(p.backend, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", p.topic, err)
	}
	return nil
}

// Close implements Publisher.
func (p *WatermillPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}

// KafkaPublisher publishes to Kafka with a synchronous producer.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaConfig returns the producer settings used by NewKafkaPublisher.
func NewKafkaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = "catalogsync"
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	return cfg
}

// NewKafkaPublisher connects a producer to brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewKafkaConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, topic), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer.
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// PublishEntryImported implements Publisher. Messages are keyed by slug.
func (p *KafkaPublisher) PublishEntryImported(ctx context.Context, entry *catalog.Entry) error {
	event := NewEntryImported(entry, logging.CorrelationIDFromContext(ctx))
	data, err := event.Marshal()
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.Slug),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(event.EventID)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	metrics.RecordEventPublish(config.EventsKafka, err)
	if err != nil {
		return fmt.Errorf("write to kafka: %w", err)
	}

	logging.Ctx(ctx).Debug().
		Str("topic", p.topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Int64("entry_id", entry.ID).
		Msg("Published entry imported event")
	return nil
}

// Close implements Publisher.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
