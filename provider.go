package ckassist

import "context"

// Provider is a strategy pattern interface for LLM providers.
type Provider interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}
