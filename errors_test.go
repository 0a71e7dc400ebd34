package ckassist_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/ckassist"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want ckassist.ErrorKind
	}{
		{"not found", fmt.Errorf("exchange: %w", ckassist.ErrNotFound), ckassist.KindNotFound},
		{"auth", fmt.Errorf("exchange: %w", ckassist.ErrAuthenticationFailed), ckassist.KindAuthenticationFailed},
		{"remote", fmt.Errorf("exchange: %w", &ckassist.RemoteError{StatusCode: 500, Body: "boom"}), ckassist.KindRemoteError},
		{"unknown tool", ckassist.ErrUnknownTool, ckassist.KindUnknownTool},
		{"configuration", fmt.Errorf("config: %w", ckassist.ErrConfiguration), ckassist.KindConfigurationError},
		{"agent", fmt.Errorf("%w: reset", ckassist.ErrAgentCommunication), ckassist.KindAgentCommunicationError},
		{"anything else", errors.New("dial tcp: refused"), ckassist.KindClientExecutionError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ckassist.KindOf(tt.err))
		})
	}
}

func TestRemoteError_Error(t *testing.T) {
	t.Parallel()
	err := &ckassist.RemoteError{StatusCode: 400, Body: `{"error":"content required"}`}
	assert.EqualError(t, err, `API request failed with status 400: {"error":"content required"}`)
}
