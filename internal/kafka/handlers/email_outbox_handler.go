package kafkahandlers

import (
	"context"
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"

	"social-go/internal/mailer"
)

// EmailOutboxHandler delivers mails that the API server queued on the outbox topic.
type EmailOutboxHandler struct {
	sender mailer.Sender
	log    *logrus.Logger
}

func NewEmailOutboxHandler(sender mailer.Sender, log *logrus.Logger) *EmailOutboxHandler {
	if sender == nil {
		log.Panic("mail sender cannot be nil")
	}
	return &EmailOutboxHandler{sender: sender, log: log}
}

// Handle is the kafka.MessageHandler for the outbox topic.
// Undecodable messages are skipped; delivery failures are returned so the offset stays uncommitted.
func (h *EmailOutboxHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	var mail mailer.Message
	if err := json.Unmarshal(msg.Value, &mail); err != nil || mail.To == "" {
		h.log.WithFields(logrus.Fields{
			"offset": msg.TopicPartition.Offset,
			"value":  string(msg.Value),
		}).Warn("Skipping malformed outbox message")
		return nil
	}

	if err := h.sender.Send(ctx, mail); err != nil {
		return err
	}
	h.log.WithFields(logrus.Fields{"kind": mail.Kind, "to": mail.To}).Info("Mail delivered")
	return nil
}
