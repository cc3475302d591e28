package service

import (
	"context"
	"encoding/json"
	"fmt"

	"hr-assistant-be/internal/model"
	"hr-assistant-be/internal/pkg/logger"
	"hr-assistant-be/internal/repository/contract"
	"hr-assistant-be/internal/websocket"
	"hr-assistant-be/pkg/events"
	pktNats "hr-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	consumerModule = "CONSUMER"
	auditDurable   = "hr-activity-audit"
	FrameActivity  = "activity"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService pushes every in-process activity event to the session's
// websocket subscribers and stores it in the audit repository. With NATS
// configured the audit copy comes from the durable JetStream consumer
// instead, so one instance stores each event once.
type consumerService struct {
	pubSub  *gochannel.GoChannel
	topic   string
	natsSub *pktNats.Subscriber
	repo    contract.ActivityEventRepository
	hub     *websocket.Hub
	logger  logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topic string,
	natsSub *pktNats.Subscriber,
	repo contract.ActivityEventRepository,
	hub *websocket.Hub,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:  pubSub,
		topic:   topic,
		natsSub: natsSub,
		repo:    repo,
		hub:     hub,
		logger:  log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topic)
	if err != nil {
		return err
	}

	if cs.natsSub != nil {
		if err := cs.natsSub.Subscribe(ctx, pktNats.SubjectPrefix+".>", auditDurable, cs.persist); err != nil {
			return err
		}
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()
	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	event, err := events.Decode(msg.Payload)
	if err != nil {
		cs.logger.Error(consumerModule, "Dropping malformed event", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	if sessionID := sessionOf(event); sessionID != "" && cs.hub != nil {
		cs.hub.Publish(ctx, websocket.Message{
			Type:      FrameActivity,
			SessionID: sessionID,
			Data: map[string]interface{}{
				"id":          event.ID,
				"type":        event.Type,
				"data":        event.Data,
				"occurred_at": event.OccurredAt,
			},
		})
	}

	if cs.natsSub == nil {
		if err := cs.persist(ctx, event); err != nil {
			cs.logger.Warn(consumerModule, "Failed to store activity", map[string]interface{}{
				"type":  event.Type,
				"error": err.Error(),
			})
		}
	}
	msg.Ack()
}

func (cs *consumerService) persist(ctx context.Context, event events.BaseEvent) error {
	if cs.repo == nil {
		return nil
	}
	row, err := toActivityModel(event)
	if err != nil {
		return err
	}
	return cs.repo.Create(ctx, row)
}

func sessionOf(e events.BaseEvent) string {
	s, _ := e.Data["session_id"].(string)
	return s
}

func toActivityModel(e events.BaseEvent) (*model.ActivityEvent, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("encode activity %s: %w", e.Type, err)
	}
	eventID := e.ID
	if eventID == "" {
		eventID = uuid.NewString()
	}
	return &model.ActivityEvent{
		ID:         uuid.New(),
		EventID:    eventID,
		SessionID:  sessionOf(e),
		Type:       e.Type,
		Data:       datatypes.JSON(data),
		OccurredAt: e.OccurredAt,
	}, nil
}
