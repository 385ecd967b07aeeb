package core

import "context"

// Receiver delivers updates from Telegram to a Dispatcher until ctx is cancelled.
type Receiver interface {
	Start(ctx context.Context) error
}
