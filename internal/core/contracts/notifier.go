package contracts

import "context"

// Notifier delivers a push notification to a device token.
type Notifier interface {
	SendPush(ctx context.Context, token, title, body string, data map[string]string) error
}
