package tokens

import (
	"fmt"
	"time"

	"keyring/internal/pkg/network"
	"keyring/internal/platform/models"
)

// ValidationError marks a request the caller can fix.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

type Limits struct {
	MaxNameLen  int
	MaxDuration time.Duration
}

func ValidateToken(t *models.Token, limits Limits) error {
	if limits.MaxNameLen > 0 && len([]rune(t.Name)) > limits.MaxNameLen {
		return invalid("token name is too long")
	}
	if t.Subnet != nil && *t.Subnet != "" {
		if err := network.ValidateSubnets(*t.Subnet); err != nil {
			return invalid("invalid subnet: %s", err.Error())
		}
	}
	if t.ExpiryMode != models.ExpiryModeFixed && t.ExpiryMode != models.ExpiryModeFirstUse {
		return invalid("invalid expiry mode")
	}
	if t.ExpiryMode == models.ExpiryModeFirstUse {
		if t.Duration <= 0 {
			return invalid("duration must be positive in first use mode")
		}
		if limits.MaxDuration > 0 && t.Duration > int64(limits.MaxDuration/time.Second) {
			return invalid("duration must not exceed %s", limits.MaxDuration)
		}
	}
	if !t.UnlimitedQuota && t.RemainQuota < 0 {
		return invalid("remain quota must not be negative")
	}
	return nil
}

// CheckEnable refuses to enable a token that could not serve requests.
func CheckEnable(t *models.Token, now int64) error {
	if t.Status != models.TokenStatusEnabled {
		return nil
	}
	if t.IsExpired(now) {
		return invalid("token has expired and cannot be enabled; change its expiry time or make it never expire first")
	}
	if t.IsExhausted() {
		return invalid("token quota is exhausted and cannot be enabled; raise its remaining quota or make it unlimited first")
	}
	return nil
}
