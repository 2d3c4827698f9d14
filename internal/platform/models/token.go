package models

const (
	TokenStatusEnabled   = 1
	TokenStatusDisabled  = 2
	TokenStatusExpired   = 3
	TokenStatusExhausted = 4
)

const (
	ExpiryModeFixed    = "fixed"
	ExpiryModeFirstUse = "first_use"
)

// NeverExpires is the expired_time sentinel for tokens without a fixed deadline.
const NeverExpires int64 = -1

type Token struct {
	ID             int64   `json:"id"`
	UserID         int64   `json:"user_id"`
	Key            string  `json:"key"`
	Status         int     `json:"status"`
	Name           string  `json:"name"`
	CreatedTime    int64   `json:"created_time"`
	AccessedTime   int64   `json:"accessed_time"`
	ExpiredTime    int64   `json:"expired_time"`
	RemainQuota    int64   `json:"remain_quota"`
	UnlimitedQuota bool    `json:"unlimited_quota"`
	UsedQuota      int64   `json:"used_quota"`
	Group          string  `json:"group"`
	BillingEnabled bool    `json:"billing_enabled"`
	Models         string  `json:"models"` // comma separated, empty means all
	FixedContent   string  `json:"fixed_content"`
	Subnet         *string `json:"subnet"`
	ExpiryMode     string  `json:"expiry_mode"`
	Duration       int64   `json:"duration"` // seconds, first_use mode
	FirstUsedTime  int64   `json:"first_used_time"`
}

// ExpiresAt returns the effective deadline in unix seconds, or NeverExpires.
// A first-use token that has not been used yet has no deadline either.
func (t *Token) ExpiresAt() int64 {
	if t.ExpiryMode == ExpiryModeFirstUse {
		if t.FirstUsedTime == 0 {
			return NeverExpires
		}
		return t.FirstUsedTime + t.Duration
	}
	return t.ExpiredTime
}

func (t *Token) IsExpired(now int64) bool {
	exp := t.ExpiresAt()
	return exp != NeverExpires && exp <= now
}

func (t *Token) IsExhausted() bool {
	return !t.UnlimitedQuota && t.RemainQuota <= 0
}
