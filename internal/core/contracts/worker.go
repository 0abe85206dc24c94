package contracts

import "context"

// AsyncWorker consumes queued push jobs in the background.
type AsyncWorker interface {
	// Run starts the consumer loop; it blocks until ctx is cancelled.
	Run(ctx context.Context) error
	// ProcessJob handles one queued entry end to end, including ack and
	// stream cleanup.
	ProcessJob(ctx context.Context, messageID string, raw []byte) error
}
