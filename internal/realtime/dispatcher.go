package realtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/metrics"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/store"
)

// MaxMessageLength bounds chat message text, in bytes.
const MaxMessageLength = 4000

var (
	ErrEmptyMessage   = errors.New("message text is required")
	ErrMessageTooLong = errors.New("message text is too long")
	ErrNoRecipient    = errors.New("recipient is required")

	ErrUnknownRecipient = errors.New("recipient not found")
)

// Dispatcher persists messages and notifications, then forwards them to the
// recipient's live connection when one is registered.
type Dispatcher struct {
	users         store.UserStore
	messages      store.MessageStore
	notifications store.NotificationStore
	registry      Registry
	logger        zerolog.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

func NewDispatcher(users store.UserStore, messages store.MessageStore, notifications store.NotificationStore, registry Registry, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		users:         users,
		messages:      messages,
		notifications: notifications,
		registry:      registry,
		logger:        logger.With().Str("component", "dispatcher").Logger(),
		tracer:        otel.Tracer("nexthire/realtime"),
		now:           time.Now,
	}
}

// SendUserMessage sends a chat message to an existing account. to must be the
// recipient's user id; anything else is ErrUnknownRecipient.
func (d *Dispatcher) SendUserMessage(ctx context.Context, from, to, text string) (*models.Message, error) {
	if to == "" {
		return nil, ErrNoRecipient
	}
	id, err := uuid.Parse(to)
	if err != nil {
		return nil, ErrUnknownRecipient
	}
	recipient, err := d.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup recipient: %w", err)
	}
	if recipient == nil {
		return nil, ErrUnknownRecipient
	}
	return d.SendMessage(ctx, from, id.String(), text)
}

// SystemMessage posts a platform message to a user's inbox.
func (d *Dispatcher) SystemMessage(ctx context.Context, to uuid.UUID, text string) (*models.Message, error) {
	return d.SendMessage(ctx, models.SystemSender, to.String(), text)
}

// SendMessage stores a chat message from one user to another and relays it
// live when the recipient is connected. A storage failure is returned and
// nothing is delivered; a delivery failure is only logged.
func (d *Dispatcher) SendMessage(ctx context.Context, from, to, text string) (*models.Message, error) {
	ctx, span := d.tracer.Start(ctx, "dispatcher.SendMessage", trace.WithAttributes(
		attribute.String("message.from", from),
		attribute.String("message.to", to),
	))
	defer span.End()

	text = strings.TrimSpace(text)
	switch {
	case to == "":
		return nil, ErrNoRecipient
	case text == "":
		return nil, ErrEmptyMessage
	case len(text) > MaxMessageLength:
		return nil, ErrMessageTooLong
	}

	msg := &models.Message{
		ID:        ulid.Make().String(),
		From:      from,
		To:        to,
		Text:      text,
		CreatedAt: d.now().UTC(),
	}
	if err := d.messages.CreateMessage(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return nil, fmt.Errorf("persist message: %w", err)
	}

	delivered := d.deliver(to, EventReceiveMessage, msg)
	span.SetAttributes(attribute.Bool("message.delivered", delivered))
	if delivered {
		metrics.MessagesSent.WithLabelValues("live").Inc()
	} else {
		metrics.MessagesSent.WithLabelValues("stored").Inc()
	}
	return msg, nil
}

// Notify stores a notification for userID and relays it live when possible.
func (d *Dispatcher) Notify(ctx context.Context, userID uuid.UUID, typ models.NotificationType, message string, jobID *uuid.UUID) (*models.Notification, error) {
	ctx, span := d.tracer.Start(ctx, "dispatcher.Notify", trace.WithAttributes(
		attribute.String("notification.user", userID.String()),
		attribute.String("notification.type", string(typ)),
	))
	defer span.End()

	if typ == "" {
		typ = models.NotificationSystem
	}
	n := &models.Notification{
		UserID:  userID,
		Type:    typ,
		Message: message,
		JobID:   jobID,
	}
	if err := d.notifications.CreateNotification(ctx, n); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return nil, fmt.Errorf("persist notification: %w", err)
	}

	metrics.NotificationsSent.WithLabelValues(string(typ)).Inc()
	d.deliver(userID.String(), EventNotification, n)
	return n, nil
}

func (d *Dispatcher) deliver(userID, event string, payload any) bool {
	conn, ok := d.registry.Lookup(userID)
	if !ok {
		return false
	}
	if err := conn.Send(event, payload); err != nil {
		metrics.DeliveryFailures.WithLabelValues(event).Inc()
		d.logger.Warn().Err(err).Str("user_id", userID).Str("event", event).Msg("live delivery failed")
		return false
	}
	return true
}
