// Package mock provides test doubles for ckassist interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/ckassist"
)

// Interface compliance check.
var _ ckassist.Provider = (*Provider)(nil)

// Provider is a test double for ckassist.Provider.
// Set StreamFn before calling Stream.
type Provider struct {
	StreamFn func(ctx context.Context, req ckassist.Request) (ckassist.Stream, error)
}

// Stream delegates to StreamFn.
func (p *Provider) Stream(ctx context.Context, req ckassist.Request) (ckassist.Stream, error) {
	return p.StreamFn(ctx, req)
}
