package notify

import (
	"context"

	"github.com/harunnryd/latentstage/pkg/store"
)

// Notifier delivers an out-of-band notification for a finished game.
type Notifier interface {
	Name() string
	GameFinished(ctx context.Context, rec store.Record) error
}
