package main

import (
	"context"
	"errors"
	"strconv"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/freightquote-backend/pkg/db/models"
	"github.com/angelmondragon/freightquote-backend/pkg/outbox/registry"
)

// topicPublisher sends one message and blocks until Pub/Sub acknowledges it.
type topicPublisher interface {
	Send(ctx context.Context, msg *gcppubsub.Message) (string, error)
}

// publisherSource hands out a publisher per topic, nil when the topic is unknown.
type publisherSource func(topic string) topicPublisher

type pubsubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

func gcpPublishers(client pubsubClient) publisherSource {
	return func(topic string) topicPublisher {
		p := client.Publisher(topic)
		if p == nil {
			return nil
		}
		return gcpPublisher{p: p}
	}
}

type gcpPublisher struct {
	p *gcppubsub.Publisher
}

func (g gcpPublisher) Send(ctx context.Context, msg *gcppubsub.Message) (string, error) {
	res := g.p.Publish(ctx, msg)
	if res == nil {
		return "", errors.New("publish returned no result")
	}
	return res.Get(ctx)
}

// message carries the stored envelope as-is; the attributes let consumers
// route and dedupe without decoding the body.
func message(event models.OutboxEvent, resolved *registry.Resolved) *gcppubsub.Message {
	return &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"schema_version": strconv.Itoa(resolved.Envelope.Version),
			"occurred_at":    resolved.Envelope.OccurredAt.UTC().Format(time.RFC3339Nano),
			"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
}
