package mock

import (
	"context"

	"github.com/fwojciec/ckassist"
)

// Interface compliance check.
var _ ckassist.ToolExecutor = (*ToolExecutor)(nil)

// ToolExecutor is a test double for ckassist.ToolExecutor.
// Set ExecuteFn before calling Execute.
type ToolExecutor struct {
	ExecuteFn func(ctx context.Context, call ckassist.ToolCallBlock) ckassist.ToolResult
}

// Execute delegates to ExecuteFn.
func (e *ToolExecutor) Execute(ctx context.Context, call ckassist.ToolCallBlock) ckassist.ToolResult {
	return e.ExecuteFn(ctx, call)
}
