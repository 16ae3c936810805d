package ports

import (
	"context"

	"github.com/aretw0/vfxbridge/pkg/domain"
)

// ActionEngine executes graph actions. Adapters (HTTP, MCP, CLI) depend on
// this port rather than on the concrete bridge.
type ActionEngine interface {
	// Execute runs a single action. Failures are reported in the result,
	// never as a panic.
	Execute(ctx context.Context, action string, params map[string]any) domain.Result

	// Actions lists the action names accepted by Execute.
	Actions() []string

	// Aliases maps alternative action names to their canonical action.
	Aliases() map[string]string
}
