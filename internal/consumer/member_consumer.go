package consumer

import (
	"encoding/json"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Routing keys the consumer binds on the members exchange.
const (
	MemberUpdated = "member.updated"
	MemberDeleted = "member.deleted"
)

// NameInvalidator drops a cached member display name.
type NameInvalidator interface {
	Invalidate(tenant string, id uuid.UUID)
}

// MemberEvent is published by the user module on member.updated and member.deleted.
type MemberEvent struct {
	Tenant   string    `json:"tenant"`
	MemberID uuid.UUID `json:"member_id"`
}

type MemberConsumer struct {
	names NameInvalidator
	log   logrus.FieldLogger
}

func NewMemberConsumer(names NameInvalidator, log logrus.FieldLogger) *MemberConsumer {
	return &MemberConsumer{names: names, log: log}
}

// Start drains msgs in a goroutine until the channel closes.
func (mc *MemberConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			mc.handleMessage(msg)
		}
		mc.log.Info("member consumer channel closed, stopping")
	}()
}

func (mc *MemberConsumer) handleMessage(msg amqp.Delivery) {
	var event MemberEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil || event.Tenant == "" || event.MemberID == uuid.Nil {
		mc.log.WithField("routing_key", msg.RoutingKey).WithError(err).Warn("dropping malformed member event")
		_ = msg.Nack(false, false)
		return
	}

	mc.names.Invalidate(event.Tenant, event.MemberID)
	mc.log.WithFields(logrus.Fields{
		"routing_key": msg.RoutingKey,
		"tenant":      event.Tenant,
		"member_id":   event.MemberID,
	}).Debug("member name invalidated")
	_ = msg.Ack(false)
}
