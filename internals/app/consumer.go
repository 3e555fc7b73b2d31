package app

import (
	"context"
)

func StartConsumer(ctx context.Context, c *Container) {

	// runs as a separate goroutine as the consume method ranges on the delivery channel
	go func() {
		if err := c.Consumer.Consume(ctx, c.checkHandler); err != nil {
			c.Logger.Error().
				Err(err).
				Msg("rabbitmq consumer stopped")
		}
	}()
}
