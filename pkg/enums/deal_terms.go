package enums

import "fmt"

// UsageType maps to the usage_type enum in Postgres.
type UsageType string

const (
	UsageTypeSync   UsageType = "sync"
	UsageTypeMaster UsageType = "master"
)

var validUsageTypes = []UsageType{
	UsageTypeSync,
	UsageTypeMaster,
}

// String implements fmt.Stringer.
func (u UsageType) String() string {
	return string(u)
}

// IsValid reports whether the value matches the canonical usage_type enum.
func (u UsageType) IsValid() bool {
	for _, candidate := range validUsageTypes {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUsageType converts raw input into UsageType.
func ParseUsageType(value string) (UsageType, error) {
	for _, candidate := range validUsageTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid usage type %q", value)
}

// RightsType maps to the rights_type enum in Postgres.
type RightsType string

const (
	RightsTypeExclusive    RightsType = "exclusive"
	RightsTypeNonExclusive RightsType = "non_exclusive"
)

var validRightsTypes = []RightsType{
	RightsTypeExclusive,
	RightsTypeNonExclusive,
}

// String implements fmt.Stringer.
func (r RightsType) String() string {
	return string(r)
}

// IsValid reports whether the value matches the canonical rights_type enum.
func (r RightsType) IsValid() bool {
	for _, candidate := range validRightsTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRightsType converts raw input into RightsType.
func ParseRightsType(value string) (RightsType, error) {
	for _, candidate := range validRightsTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rights type %q", value)
}
