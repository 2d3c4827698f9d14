package editor

import (
	"sort"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/samber/lo"
	"github.com/spf13/cast"

	"keyring/internal/client"
	"keyring/internal/platform/models"
)

// TimeLayout is how expiry timestamps are shown and typed.
const TimeLayout = "2006-01-02 15:04:05"

// Never is the display value of a fixed expiry that never comes.
const Never = "-1"

type BillingMode int

const (
	BillingPerToken BillingMode = iota
	BillingPerRequest
)

const (
	DefaultQuota         = 500000
	DefaultDurationHours = 24
)

// Draft is the form state of the editor. Field names in Patch follow the
// JSON names of the token record.
type Draft struct {
	Name           string
	RemainQuota    int64
	UnlimitedQuota bool
	ExpiryMode     string
	ExpiredAt      string
	DurationHours  int64
	Models         []string
	Group          string
	Subnet         string
	FixedContent   string
	Billing        BillingMode
	CreateCount    int
}

func NewDraft() Draft {
	return Draft{
		RemainQuota:   DefaultQuota,
		ExpiryMode:    models.ExpiryModeFixed,
		ExpiredAt:     Never,
		DurationHours: DefaultDurationHours,
		Models:        []string{},
		Billing:       BillingPerToken,
		CreateCount:   1,
	}
}

func (d Draft) clone() Draft {
	d.Models = append([]string{}, d.Models...)
	return d
}

// hydrate fills a draft from a stored record.
func hydrate(t *models.Token, loc *time.Location) Draft {
	d := NewDraft()
	d.Name = t.Name
	d.RemainQuota = t.RemainQuota
	d.UnlimitedQuota = t.UnlimitedQuota
	d.Models = client.SplitModels(t.Models)
	d.Group = t.Group
	d.FixedContent = t.FixedContent
	if t.Subnet != nil {
		d.Subnet = *t.Subnet
	}
	if t.BillingEnabled {
		d.Billing = BillingPerRequest
	}

	if t.ExpiredTime == models.NeverExpires {
		d.ExpiredAt = Never
	} else {
		d.ExpiredAt = time.Unix(t.ExpiredTime, 0).In(loc).Format(TimeLayout)
	}
	// -1 is shown as first-use unless the record says it is a fixed token that never expires
	if t.ExpiredTime == models.NeverExpires && t.ExpiryMode != models.ExpiryModeFixed {
		d.ExpiryMode = models.ExpiryModeFirstUse
	} else {
		d.ExpiryMode = models.ExpiryModeFixed
	}
	if t.Duration > 0 {
		d.DurationHours = t.Duration / 3600
	}
	return d
}

// apply merges values into d. Keys are validated in a stable order so that
// the reported error does not depend on map iteration.
func (d *Draft) apply(values map[string]interface{}) error {
	keys := lo.Keys(values)
	sort.Strings(keys)

	for _, field := range keys {
		value := values[field]
		switch field {
		case "name":
			d.Name = cast.ToString(value)
		case "remain_quota":
			q, err := cast.ToInt64E(value)
			if err != nil {
				return client.Invalid(field, "quota must be an integer")
			}
			d.RemainQuota = q
		case "unlimited_quota":
			b, err := cast.ToBoolE(value)
			if err != nil {
				return client.Invalid(field, "must be true or false")
			}
			d.UnlimitedQuota = b
		case "expiry_mode":
			mode := cast.ToString(value)
			if mode != models.ExpiryModeFixed && mode != models.ExpiryModeFirstUse {
				return client.Invalid(field, "must be %q or %q", models.ExpiryModeFixed, models.ExpiryModeFirstUse)
			}
			d.ExpiryMode = mode
		case "expired_time":
			d.ExpiredAt = strings.TrimSpace(cast.ToString(value))
		case "duration":
			h, err := cast.ToInt64E(value)
			if err != nil || h <= 0 {
				return client.Invalid(field, "duration must be a positive number of hours")
			}
			d.DurationHours = h
		case "models":
			if s, ok := value.(string); ok {
				d.Models = client.SplitModels(s)
				continue
			}
			names, err := cast.ToStringSliceE(value)
			if err != nil {
				return client.Invalid(field, "must be a list of model names")
			}
			d.Models = lo.Uniq(lo.Compact(names))
		case "group":
			d.Group = cast.ToString(value)
		case "subnet":
			d.Subnet = strings.TrimSpace(cast.ToString(value))
		case "fixed_content":
			d.FixedContent = cast.ToString(value)
		case "billing_enabled":
			b, err := cast.ToBoolE(value)
			if err != nil {
				return client.Invalid(field, "must be true or false")
			}
			d.Billing = BillingPerToken
			if b {
				d.Billing = BillingPerRequest
			}
		case "create_count":
			n, err := cast.ToIntE(value)
			if err != nil || n < 1 {
				return client.Invalid(field, "count must be a positive integer")
			}
			d.CreateCount = n
		default:
			return client.Invalid(field, "unknown field")
		}
	}
	return nil
}

// parseExpiry turns a displayed timestamp into unix seconds, rounding up.
func parseExpiry(s string, loc *time.Location) (int64, error) {
	if s == Never {
		return models.NeverExpires, nil
	}
	if strings.TrimSpace(s) == "" {
		return 0, client.Invalid("expired_time", "expiry time is malformed")
	}
	t, err := now.ParseInLocation(loc, s)
	if err != nil {
		return 0, client.Invalid("expired_time", "expiry time is malformed")
	}
	sec := t.Unix()
	if t.Nanosecond() > 0 {
		sec++
	}
	return sec, nil
}

// payload serializes d for the wire. Nothing is sent when it fails.
func (d Draft) payload(loc *time.Location) (*models.Token, error) {
	t := &models.Token{
		Name:           d.Name,
		RemainQuota:    d.RemainQuota,
		UnlimitedQuota: d.UnlimitedQuota,
		Models:         client.JoinModels(d.Models),
		Group:          d.Group,
		FixedContent:   d.FixedContent,
		ExpiryMode:     d.ExpiryMode,
		Duration:       d.DurationHours * 3600,
	}
	if d.Subnet != "" {
		subnet := d.Subnet
		t.Subnet = &subnet
	}

	if d.ExpiryMode == models.ExpiryModeFirstUse {
		t.ExpiredTime = models.NeverExpires
		return t, nil
	}
	exp, err := parseExpiry(d.ExpiredAt, loc)
	if err != nil {
		return nil, err
	}
	t.ExpiredTime = exp
	return t, nil
}
