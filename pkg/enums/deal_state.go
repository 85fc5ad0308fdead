package enums

import "fmt"

// DealState maps to the deal_state enum in Postgres.
type DealState string

const (
	DealStatePending          DealState = "pending"
	DealStateCountered        DealState = "countered"
	DealStateAccepted         DealState = "accepted"
	DealStateDeclined         DealState = "declined"
	DealStateAwaitingResponse DealState = "awaiting_response"
	DealStateCancelled        DealState = "cancelled"
)

var validDealStates = []DealState{
	DealStatePending,
	DealStateCountered,
	DealStateAccepted,
	DealStateDeclined,
	DealStateAwaitingResponse,
	DealStateCancelled,
}

// String implements fmt.Stringer.
func (d DealState) String() string {
	return string(d)
}

// IsValid reports whether the value matches the canonical deal_state enum.
func (d DealState) IsValid() bool {
	for _, candidate := range validDealStates {
		if candidate == d {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state has no outgoing transitions.
func (d DealState) IsTerminal() bool {
	switch d {
	case DealStateAccepted, DealStateDeclined, DealStateCancelled:
		return true
	default:
		return false
	}
}

// ParseDealState converts raw input into DealState.
func ParseDealState(value string) (DealState, error) {
	for _, candidate := range validDealStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deal state %q", value)
}
