// Package broker wraps the RabbitMQ connection shared by the placement
// publisher and the reconciliation worker. Topology declarations are
// idempotent so every process declares the full set on connect.
package broker

import (
	"context"
	"errors"
	"fmt"

	"github.com/lucasfarias/orderflow-backend/pkg/config"
	"github.com/lucasfarias/orderflow-backend/pkg/logger"
	"github.com/streadway/amqp"
	"go.uber.org/multierr"
)

// Client owns one connection and one channel. A channel is not safe for
// concurrent publishers; callers needing parallel publishes open one Client
// each.
type Client struct {
	cfg     config.BrokerConfig
	logg    *logger.Logger
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Dial connects, opens a channel and declares the exchange/queue/binding.
func Dial(ctx context.Context, cfg config.BrokerConfig, logg *logger.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	c := &Client{cfg: cfg, logg: logg, conn: conn, channel: channel}
	if err := c.declareTopology(); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, err
	}

	if logg != nil {
		fields := map[string]any{
			"exchange":    cfg.Exchange,
			"queue":       cfg.Queue,
			"routing_key": cfg.RoutingKey,
		}
		logg.Info(logg.WithFields(ctx, fields), "broker connection established")
	}

	return c, nil
}

func (c *Client) declareTopology() error {
	if err := c.channel.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declaring exchange %q: %w", c.cfg.Exchange, err)
	}
	if _, err := c.channel.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declaring queue %q: %w", c.cfg.Queue, err)
	}
	if err := c.channel.QueueBind(c.cfg.Queue, c.cfg.RoutingKey, c.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("binding queue %q: %w", c.cfg.Queue, err)
	}
	return nil
}

// Ping verifies the connection is still open.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.conn == nil {
		return errors.New("broker client not initialized")
	}
	if c.conn.IsClosed() {
		return errors.New("broker connection closed")
	}
	return nil
}

// NotifyClose relays connection-level failures to the caller's loop.
func (c *Client) NotifyClose() <-chan *amqp.Error {
	return c.conn.NotifyClose(make(chan *amqp.Error, 1))
}

// Close releases the channel and the connection.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	var errs error
	if c.channel != nil {
		errs = multierr.Append(errs, c.channel.Close())
	}
	if c.conn != nil {
		errs = multierr.Append(errs, c.conn.Close())
	}
	return errs
}
