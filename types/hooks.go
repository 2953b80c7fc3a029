package types

import "context"

// Hooks defines callbacks for selector lifecycle events.
//
// All hooks are optional. Unlike most callbacks in distributed code they run
// synchronously on the selecting goroutine, so a slow hook slows selection.
// Hook errors are logged and never fail a run.
//
// The Sequence field carried in RoundStats and ForcedMigration is the caller's
// run sequence number; use it to name diagnostic output such as mesh snapshots.
//
// Example:
//
//	hooks := &meshbal.Hooks{
//	    OnRoundComplete: func(ctx context.Context, rs meshbal.RoundStats) error {
//	        return writeSnapshot(fmt.Sprintf("vtxsel.%d.%d", rs.Sequence, rs.Round))
//	    },
//	}
type Hooks struct {
	// OnStateChanged is called when the selector changes state.
	OnStateChanged func(ctx context.Context, from, to SelectorState) error

	// OnRoundComplete is called after every selection round.
	OnRoundComplete func(ctx context.Context, stats RoundStats) error

	// OnForcedMigration is called when a disconnected cavity is moved regardless of targets.
	OnForcedMigration func(ctx context.Context, fm ForcedMigration) error
}
