package store

import (
	"context"
	"time"

	"github.com/harunnryd/latentstage/pkg/game"
)

// Record is one archived show: the final game ledger plus the host's
// closing summary.
type Record struct {
	ID          string     `json:"id"`
	Timestamp   time.Time  `json:"timestamp"`
	User        string     `json:"user"`
	GameData    game.State `json:"game_data"`
	HostSummary string     `json:"host_summary"`
}

// Store archives finished games.
type Store interface {
	Append(ctx context.Context, rec Record) error
}
