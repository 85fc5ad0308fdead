package enums

import "fmt"

// DealAction labels a single negotiation move in the deal audit trail.
type DealAction string

const (
	DealActionCounter DealAction = "counter"
	DealActionAccept  DealAction = "accept"
	DealActionDecline DealAction = "decline"
	DealActionCancel  DealAction = "cancel"
	// DealActionConfirm records the exec accepting a counter offer, which
	// returns the deal to pending for the artist's final confirmation.
	DealActionConfirm DealAction = "confirm"
)

var validDealActions = []DealAction{
	DealActionCounter,
	DealActionAccept,
	DealActionDecline,
	DealActionCancel,
	DealActionConfirm,
}

// String implements fmt.Stringer.
func (d DealAction) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DealAction.
func (d DealAction) IsValid() bool {
	for _, candidate := range validDealActions {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDealAction converts raw input into DealAction.
func ParseDealAction(value string) (DealAction, error) {
	for _, candidate := range validDealActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deal action %q", value)
}
