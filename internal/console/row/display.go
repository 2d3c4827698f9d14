package row

import (
	"fmt"
	"time"

	"keyring/internal/platform/models"
)

const (
	TimeLayout    = "2006-01-02 15:04:05"
	NotStarted    = "not yet started"
	NeverExpires  = "never expires"
	Unlimited     = "unlimited"
	QuotaPerUnit  = 500000.0
	quotaDecimals = 2
)

// FormatTime renders a unix timestamp in loc.
func FormatTime(ts int64, loc *time.Location) string {
	return time.Unix(ts, 0).In(loc).Format(TimeLayout)
}

// ExpiryText describes when t expires.
func ExpiryText(t models.Token, loc *time.Location) string {
	if t.ExpiryMode == models.ExpiryModeFirstUse {
		if t.FirstUsedTime == 0 {
			return NotStarted
		}
		return FormatTime(t.FirstUsedTime+t.Duration, loc)
	}
	if t.ExpiredTime == models.NeverExpires {
		return NeverExpires
	}
	return FormatTime(t.ExpiredTime, loc)
}

// GroupText is the group a token bills under.
func GroupText(t models.Token) string {
	if t.Group == "" {
		return models.DefaultGroup
	}
	return t.Group
}

// StatusText is the label for the server-side status.
func StatusText(status int) string {
	switch status {
	case models.TokenStatusEnabled:
		return "enabled"
	case models.TokenStatusDisabled:
		return "disabled"
	case models.TokenStatusExpired:
		return "expired"
	case models.TokenStatusExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// RenderQuota shows quota as a dollar amount.
func RenderQuota(quota int64) string {
	return fmt.Sprintf("$%.*f", quotaDecimals, float64(quota)/QuotaPerUnit)
}

// QuotaText returns the remaining and used quota columns.
func QuotaText(t models.Token) (remain, used string) {
	used = RenderQuota(t.UsedQuota)
	if t.UnlimitedQuota {
		return Unlimited, used
	}
	return RenderQuota(t.RemainQuota), used
}
