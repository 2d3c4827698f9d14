// Package flags holds the feature switches a console session reads once at start.
package flags

import (
	"github.com/spf13/cast"

	"keyring/internal/platform/models"
)

// Snapshot is a read-only copy of the server's feature switches.
type Snapshot struct {
	ModelRatioEnabled       bool
	BillingByRequestEnabled bool
	UserGroupEnabled        bool
}

// FromOptions decodes the string-encoded booleans returned by the options
// endpoint. Unknown keys are ignored and unparsable values read as false.
func FromOptions(opts []models.Option) Snapshot {
	var s Snapshot
	for _, opt := range opts {
		value := cast.ToBool(opt.Value)
		switch opt.Key {
		case models.OptionModelRatioEnabled:
			s.ModelRatioEnabled = value
		case models.OptionBillingByRequestEnabled:
			s.BillingByRequestEnabled = value
		case models.OptionUserGroupEnabled:
			s.UserGroupEnabled = value
		}
	}
	return s
}

// BillingSelectorVisible reports whether per-request billing may be chosen.
func (s Snapshot) BillingSelectorVisible() bool {
	return s.ModelRatioEnabled && s.BillingByRequestEnabled
}
