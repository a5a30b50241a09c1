package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/notify-api/internal/email"
	"github.com/jwalitptl/notify-api/internal/model"
	"github.com/jwalitptl/notify-api/internal/repository"
	"github.com/jwalitptl/notify-api/pkg/logger"
	"github.com/jwalitptl/notify-api/pkg/messaging"
	"github.com/jwalitptl/notify-api/pkg/metrics"
)

const (
	emailCacheTTL     = 10 * time.Minute
	emailCacheCleanup = 30 * time.Minute

	pushTopic = "notifications"
)

// Dispatcher attempts delivery of one notification through its requested
// channels. The database channel is satisfied by the record's own
// persistence. Channels the dispatcher does not know are counted satisfied.
type Dispatcher struct {
	recipients repository.RecipientRepository
	emailSvc   email.Service
	broker     messaging.Broker
	emailCache *cache.Cache
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

func NewDispatcher(
	recipients repository.RecipientRepository,
	emailSvc email.Service,
	broker messaging.Broker,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Dispatcher {
	return &Dispatcher{
		recipients: recipients,
		emailSvc:   emailSvc,
		broker:     broker,
		emailCache: cache.New(emailCacheTTL, emailCacheCleanup),
		logger:     logger,
		metrics:    metrics,
	}
}

// Dispatch returns nil once every requested channel is satisfied. A failing
// email send fails the whole dispatch; the record stays pending and the
// caller decides between retry and terminal failure. There is no partial
// state to roll back: the only side effect is the attempt itself.
func (d *Dispatcher) Dispatch(ctx context.Context, n *model.Notification) error {
	for _, channel := range n.Channels {
		switch channel {
		case model.ChannelDatabase:
			// The row already exists; nothing to deliver.
			d.metrics.DispatchesPerChannel.WithLabelValues(channel, "success").Inc()

		case model.ChannelEmail:
			if err := d.sendEmail(ctx, n); err != nil {
				d.metrics.DispatchesPerChannel.WithLabelValues(channel, "error").Inc()
				return fmt.Errorf("email channel: %w", err)
			}
			d.metrics.DispatchesPerChannel.WithLabelValues(channel, "success").Inc()

		case model.ChannelPush:
			// Best effort. A lost publish never fails the dispatch.
			if err := d.publishPush(ctx, n); err != nil {
				d.logger.Error(err, "push publish failed",
					"notification_id", n.ID.String())
			}
			d.metrics.DispatchesPerChannel.WithLabelValues(channel, "success").Inc()

		default:
			d.logger.Debug("skipping unknown channel",
				"channel", channel,
				"notification_id", n.ID.String())
			d.metrics.DispatchesPerChannel.WithLabelValues(channel, "skipped").Inc()
		}
	}
	return nil
}

func (d *Dispatcher) sendEmail(ctx context.Context, n *model.Notification) error {
	address, err := d.resolveEmail(ctx, n)
	if err != nil {
		return err
	}
	if err := d.emailSvc.Send(ctx, address, n.Title, n.Body, n.Kind); err != nil {
		return fmt.Errorf("failed to send to %s: %w", address, err)
	}
	return nil
}

func (d *Dispatcher) resolveEmail(ctx context.Context, n *model.Notification) (string, error) {
	key := n.RecipientID.String()
	if cached, ok := d.emailCache.Get(key); ok {
		return cached.(string), nil
	}

	recipient, err := d.recipients.Get(ctx, n.RecipientID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve recipient: %w", err)
	}
	if recipient.Email == "" {
		return "", fmt.Errorf("recipient %s has no email address", key)
	}

	d.emailCache.Set(key, recipient.Email, cache.DefaultExpiration)
	return recipient.Email, nil
}

func (d *Dispatcher) publishPush(ctx context.Context, n *model.Notification) error {
	if d.broker == nil {
		return nil
	}
	return d.broker.Publish(ctx, pushTopic, messaging.Message{
		Type: "push_notification",
		Payload: map[string]interface{}{
			"notification_id": n.ID,
			"recipient_id":    n.RecipientID,
			"kind":            n.Kind,
			"title":           n.Title,
			"body":            n.Body,
		},
	})
}
