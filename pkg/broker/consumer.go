package broker

import "github.com/streadway/amqp"

// Consume opens a manually acknowledged delivery stream from the configured
// queue. The prefetch bound caps unacknowledged deliveries per channel; the
// worker runs with prefetch 1 so a slow payment call stalls only its own
// intake.
func (c *Client) Consume() (<-chan amqp.Delivery, error) {
	if c.cfg.Prefetch > 0 {
		if err := c.channel.Qos(c.cfg.Prefetch, 0, false); err != nil {
			return nil, err
		}
	}
	return c.channel.Consume(
		c.cfg.Queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
}
