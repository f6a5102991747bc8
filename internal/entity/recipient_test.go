package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecipientSpec(t *testing.T) {
	tests := []struct {
		name       string
		recipients string
		zone       string
		ids        []string
		wantKind   SpecKind
		wantErr    error
	}{
		{name: "empty defaults to all", recipients: "", wantKind: SpecAll},
		{name: "all", recipients: "all", wantKind: SpecAll},
		{name: "admins", recipients: "admins", wantKind: SpecRole},
		{name: "operators", recipients: "operators", wantKind: SpecRole},
		{name: "responders", recipients: "responders", wantKind: SpecRole},
		{name: "singular role accepted", recipients: "admin", wantKind: SpecRole},
		{name: "zone with payload", recipients: "zone", zone: "north-gate", wantKind: SpecZone},
		{name: "zone without payload", recipients: "zone", wantErr: ErrEmptyZone},
		{name: "specific with ids", recipients: "specific", ids: []string{"u1"}, wantKind: SpecSpecific},
		{name: "specific without ids", recipients: "specific", wantErr: ErrEmptyRecipients},
		{name: "unknown value", recipients: "everyone", wantErr: ErrInvalidSpec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseRecipientSpec(tt.recipients, tt.zone, tt.ids)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, spec.Kind)
		})
	}
}

func TestRecipientSpecWire(t *testing.T) {
	assert.Equal(t, "all", SpecForAll().Wire())
	assert.Equal(t, "responders", SpecForRole(RoleResponder).Wire())
	assert.Equal(t, "zone", SpecForZone("north-gate").Wire())
	assert.Equal(t, "specific", SpecForUsers([]string{"u1"}).Wire())
}

func TestRecipientKeyFallsBackToEmail(t *testing.T) {
	withID := Recipient{ID: "u1", Email: "u1@ops.local"}
	assert.Equal(t, "u1", withID.Key())

	emailOnly := Recipient{Email: "ghost@ops.local"}
	assert.Equal(t, "ghost@ops.local", emailOnly.Key())
}
