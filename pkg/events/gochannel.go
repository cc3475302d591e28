package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// ChannelPublisher puts events on an in-process watermill topic.
type ChannelPublisher struct {
	pubSub *gochannel.GoChannel
	topic  string
}

var _ Publisher = (*ChannelPublisher)(nil)

func NewChannelPublisher(pubSub *gochannel.GoChannel, topic string) *ChannelPublisher {
	return &ChannelPublisher{pubSub: pubSub, topic: topic}
}

func (p *ChannelPublisher) Publish(ctx context.Context, event Event) error {
	id := uuid.NewString()
	if be, ok := event.(BaseEvent); ok && be.ID != "" {
		id = be.ID
	}
	payload, err := Encode(id, event)
	if err != nil {
		return err
	}
	msg := message.NewMessage(id, payload)
	msg.Metadata.Set("event_type", event.EventType())
	if err := p.pubSub.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event to topic %s: %w", p.topic, err)
	}
	return nil
}
