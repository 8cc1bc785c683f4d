package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shambhavip19/CyberHope/internal/domain/evidence"
)

func TestAuthorize(t *testing.T) {
	engine, err := NewEngine(context.Background())
	require.NoError(t, err)

	owner := "0xOwner"
	stranger := "0xStranger"

	tests := []struct {
		name    string
		action  string
		caller  string
		wantErr error
	}{
		{"non-owner may request", evidence.ActionRequest, stranger, nil},
		{"owner may not request own evidence", evidence.ActionRequest, owner, evidence.ErrForbidden},
		{"owner may grant", evidence.ActionGrant, owner, nil},
		{"non-owner may not grant", evidence.ActionGrant, stranger, evidence.ErrForbidden},
		{"owner may deny", evidence.ActionDeny, owner, nil},
		{"non-owner may not deny", evidence.ActionDeny, stranger, evidence.ErrForbidden},
		{"owner may revoke", evidence.ActionRevoke, owner, nil},
		{"non-owner may not revoke", evidence.ActionRevoke, stranger, evidence.ErrForbidden},
		{"owner may list requests", evidence.ActionListRequests, owner, nil},
		{"non-owner may not list requests", evidence.ActionListRequests, stranger, evidence.ErrForbidden},
		{"unknown action is denied", "escalate", owner, evidence.ErrForbidden},
		{"empty caller is denied", evidence.ActionRequest, "", evidence.ErrForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := engine.Authorize(context.Background(), tc.action, tc.caller, owner)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestAuthorizeNormalizesCase(t *testing.T) {
	engine, err := NewEngine(context.Background())
	require.NoError(t, err)

	// Mixed-case caller and owner refer to the same wallet.
	err = engine.Authorize(context.Background(), evidence.ActionGrant, "0xABCDEF", "0xabcdef")
	assert.NoError(t, err)

	err = engine.Authorize(context.Background(), evidence.ActionRequest, "0xABCDEF", "0xabcdef")
	assert.ErrorIs(t, err, evidence.ErrForbidden)
}
