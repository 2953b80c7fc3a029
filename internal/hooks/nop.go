// Package hooks provides default selector lifecycle hooks.
package hooks

import (
	"context"

	"github.com/arloliu/meshbal/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default implementation used when no custom hooks are provided,
// eliminating the need for nil checks throughout the codebase.
type NopHooks struct{}

// Compile-time assertions that NopHooks implements hook callbacks.
var (
	_ func(context.Context, types.SelectorState, types.SelectorState) error = (*NopHooks)(nil).OnStateChanged
	_ func(context.Context, types.RoundStats) error                         = (*NopHooks)(nil).OnRoundComplete
	_ func(context.Context, types.ForcedMigration) error                    = (*NopHooks)(nil).OnForcedMigration
)

// NewNop creates a new no-op hooks implementation.
//
// Returns:
//   - types.Hooks: Hooks with no-op implementations
func NewNop() types.Hooks {
	h := &NopHooks{}
	return types.Hooks{
		OnStateChanged:    h.OnStateChanged,
		OnRoundComplete:   h.OnRoundComplete,
		OnForcedMigration: h.OnForcedMigration,
	}
}

// Fill returns a copy of h with every nil callback replaced by a no-op.
//
// Parameters:
//   - h: Caller-supplied hooks (may be nil)
//
// Returns:
//   - types.Hooks: Hooks safe to call without nil checks
func Fill(h *types.Hooks) types.Hooks {
	out := NewNop()
	if h == nil {
		return out
	}
	if h.OnStateChanged != nil {
		out.OnStateChanged = h.OnStateChanged
	}
	if h.OnRoundComplete != nil {
		out.OnRoundComplete = h.OnRoundComplete
	}
	if h.OnForcedMigration != nil {
		out.OnForcedMigration = h.OnForcedMigration
	}

	return out
}

// OnStateChanged is a no-op implementation.
func (h *NopHooks) OnStateChanged(_ context.Context, _, _ types.SelectorState) error {
	return nil
}

// OnRoundComplete is a no-op implementation.
func (h *NopHooks) OnRoundComplete(_ context.Context, _ types.RoundStats) error {
	return nil
}

// OnForcedMigration is a no-op implementation.
func (h *NopHooks) OnForcedMigration(_ context.Context, _ types.ForcedMigration) error {
	return nil
}
