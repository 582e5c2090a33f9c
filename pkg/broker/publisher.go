package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// Publish marshals the payload and publishes it to the configured exchange
// under the configured routing key with persistent delivery mode.
func (c *Client) Publish(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	err = c.channel.Publish(
		c.cfg.Exchange,
		c.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publishing to %s/%s: %w", c.cfg.Exchange, c.cfg.RoutingKey, err)
	}

	if c.logg != nil {
		c.logg.Debug(c.logg.WithField(ctx, "routing_key", c.cfg.RoutingKey), "event published")
	}
	return nil
}
