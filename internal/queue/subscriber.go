package queue

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/unclebandit/wa-router/internal/model"
)

// InboundProcessor is what the inbound subscriber feeds.
type InboundProcessor interface {
	Process(ctx context.Context, msg model.InboundMessage) model.ProcessResult
}

// PublishInbound queues msg keyed by its sender so one phone is processed in order.
func PublishInbound(ctx context.Context, q Queue, msg model.InboundMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return q.Publish(ctx, InboundTopic, Message{Key: msg.OrderingKey(), Body: body})
}

// StartInboundSubscriber wires the processor to the inbound topic. A failed
// ProcessResult is logged and acknowledged: processing attempts are not
// retried. Queue retries only cover handler panics.
func StartInboundSubscriber(q Queue, p InboundProcessor, logger *zap.Logger) error {
	log := logger.Named("subscriber")
	return q.Subscribe(InboundTopic, func(ctx context.Context, job Message) error {
		var msg model.InboundMessage
		if err := json.Unmarshal(job.Body, &msg); err != nil {
			log.Warn("dropping undecodable inbound job", zap.String("key", job.Key), zap.Error(err))
			return nil // no retry
		}

		res := p.Process(ctx, msg)
		if !res.Success {
			log.Error("inbound message failed, not retried",
				zap.String("message_id", msg.MessageID),
				zap.String("conversation_id", res.ConversationID),
				zap.String("reason", res.Message))
			return nil
		}
		log.Debug("inbound message processed",
			zap.String("conversation_id", res.ConversationID),
			zap.String("area", res.Area),
			zap.String("result", res.Message))
		return nil
	})
}
