package contracts

import "context"

// PushQueue is the durable hand-off between the relay path and the
// notification worker. Enqueue failures never fail the originating send.
type PushQueue interface {
	// Publish appends a job to the topic's stream.
	Publish(ctx context.Context, topic string, payload []byte) error
	// Subscribe consumes the topic through a consumer group, invoking
	// handler per entry. It returns after spawning the consumer loop.
	Subscribe(ctx context.Context, topic string, group string, handler func(ctx context.Context, messageID string, data []byte) error) error
	// Ack confirms an entry was processed.
	Ack(ctx context.Context, topic, group, messageID string) error
	// Delete removes a processed entry from the stream.
	Delete(ctx context.Context, topic, messageID string) error
}
