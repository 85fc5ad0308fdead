package types

import (
	"github.com/shopspring/decimal"

	"github.com/syncdeck/syncdeck-backend/pkg/enums"
)

// DealTerms is the negotiable part of a deal. It is replaced wholesale on
// every transition that carries changes; stored as JSONB on the deal row.
type DealTerms struct {
	UsageType      enums.UsageType  `json:"usage_type"`
	Rights         enums.RightsType `json:"rights"`
	DurationMonths int              `json:"duration_months"`
	Price          decimal.Decimal  `json:"price"`
}

// Validate checks that every field holds a usable value.
func (t DealTerms) Validate() error {
	if !t.UsageType.IsValid() {
		return errInvalidField("usage_type")
	}
	if !t.Rights.IsValid() {
		return errInvalidField("rights")
	}
	if t.DurationMonths <= 0 {
		return errInvalidField("duration_months")
	}
	if t.Price.IsNegative() {
		return errInvalidField("price")
	}
	return nil
}

// DealTermsChange is a partial terms diff. Nil fields are left untouched by
// Apply; present fields overwrite.
type DealTermsChange struct {
	UsageType      *enums.UsageType  `json:"usage_type,omitempty"`
	Rights         *enums.RightsType `json:"rights,omitempty"`
	DurationMonths *int              `json:"duration_months,omitempty"`
	Price          *decimal.Decimal  `json:"price,omitempty"`
}

// IsEmpty reports whether the change carries no fields.
func (c DealTermsChange) IsEmpty() bool {
	return c.UsageType == nil && c.Rights == nil && c.DurationMonths == nil && c.Price == nil
}

// Validate checks every present field.
func (c DealTermsChange) Validate() error {
	if c.UsageType != nil && !c.UsageType.IsValid() {
		return errInvalidField("usage_type")
	}
	if c.Rights != nil && !c.Rights.IsValid() {
		return errInvalidField("rights")
	}
	if c.DurationMonths != nil && *c.DurationMonths <= 0 {
		return errInvalidField("duration_months")
	}
	if c.Price != nil && c.Price.IsNegative() {
		return errInvalidField("price")
	}
	return nil
}

// Apply shallow-merges the change into a copy of the current terms. The
// receiver and argument are never mutated.
func (c DealTermsChange) Apply(current DealTerms) DealTerms {
	merged := current
	if c.UsageType != nil {
		merged.UsageType = *c.UsageType
	}
	if c.Rights != nil {
		merged.Rights = *c.Rights
	}
	if c.DurationMonths != nil {
		merged.DurationMonths = *c.DurationMonths
	}
	if c.Price != nil {
		merged.Price = *c.Price
	}
	return merged
}

type fieldError struct {
	field string
}

func (e fieldError) Error() string {
	return "invalid deal terms field " + e.field
}

func errInvalidField(field string) error {
	return fieldError{field: field}
}
