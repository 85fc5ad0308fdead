package deals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncdeck/syncdeck-backend/pkg/enums"
)

var allDealStates = []enums.DealState{
	enums.DealStatePending,
	enums.DealStateCountered,
	enums.DealStateAccepted,
	enums.DealStateDeclined,
	enums.DealStateAwaitingResponse,
	enums.DealStateCancelled,
}

func TestAllowedRolesMatchesDeclaredTable(t *testing.T) {
	declared := map[[2]enums.DealState][]enums.UserRole{}
	for _, tr := range transitionTable {
		declared[[2]enums.DealState{tr.From, tr.To}] = tr.Roles
	}

	for _, from := range allDealStates {
		for _, to := range allDealStates {
			roles := allowedRoles(from, to)
			want, ok := declared[[2]enums.DealState{from, to}]
			if !ok {
				assert.Nil(t, roles, "unexpected transition %s -> %s", from, to)
				continue
			}
			assert.Equal(t, want, roles, "transition %s -> %s", from, to)
		}
	}
}

func TestTerminalStatesHaveNoOutgoingTransitions(t *testing.T) {
	for _, from := range allDealStates {
		if !from.IsTerminal() {
			continue
		}
		for _, to := range allDealStates {
			assert.Nil(t, allowedRoles(from, to), "terminal state %s must not transition to %s", from, to)
		}
	}
}

func TestRoleAllowed(t *testing.T) {
	roles := allowedRoles(enums.DealStatePending, enums.DealStateCountered)
	require.NotNil(t, roles)
	assert.True(t, roleAllowed(roles, enums.UserRoleArtist))
	assert.True(t, roleAllowed(roles, enums.UserRoleExec))
	assert.False(t, roleAllowed(roles, enums.UserRoleAdmin))

	roles = allowedRoles(enums.DealStatePending, enums.DealStateCancelled)
	require.NotNil(t, roles)
	assert.False(t, roleAllowed(roles, enums.UserRoleArtist))
	assert.True(t, roleAllowed(roles, enums.UserRoleExec))
}

func TestActionForTarget(t *testing.T) {
	cases := map[enums.DealState]enums.DealAction{
		enums.DealStateCountered: enums.DealActionCounter,
		enums.DealStateAccepted:  enums.DealActionAccept,
		enums.DealStateDeclined:  enums.DealActionDecline,
		enums.DealStateCancelled: enums.DealActionCancel,
		enums.DealStatePending:   enums.DealActionConfirm,
	}
	for target, want := range cases {
		action, err := actionForTarget(target)
		require.NoError(t, err)
		assert.Equal(t, want, action)
	}

	_, err := actionForTarget(enums.DealStateAwaitingResponse)
	assert.Error(t, err)
}
