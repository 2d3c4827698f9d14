package tokens

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"keyring/internal/platform/models"
)

func TestValidateToken(t *testing.T) {
	limits := Limits{MaxNameLen: 30, MaxDuration: 8760 * time.Hour}
	bad := "10.0.0.1"
	good := "10.0.0.0/8,192.168.0.0/16"

	tests := []struct {
		name    string
		token   models.Token
		wantErr bool
	}{
		{"fixed ok", models.Token{Name: "ok", ExpiryMode: models.ExpiryModeFixed}, false},
		{"name too long", models.Token{Name: strings.Repeat("x", 31), ExpiryMode: models.ExpiryModeFixed}, true},
		{"bad subnet", models.Token{ExpiryMode: models.ExpiryModeFixed, Subnet: &bad}, true},
		{"good subnet", models.Token{ExpiryMode: models.ExpiryModeFixed, Subnet: &good}, false},
		{"unknown mode", models.Token{ExpiryMode: "sometimes"}, true},
		{"first use zero duration", models.Token{ExpiryMode: models.ExpiryModeFirstUse}, true},
		{"first use too long", models.Token{ExpiryMode: models.ExpiryModeFirstUse, Duration: 8761 * 3600}, true},
		{"first use max", models.Token{ExpiryMode: models.ExpiryModeFirstUse, Duration: 8760 * 3600}, false},
		{"negative quota", models.Token{ExpiryMode: models.ExpiryModeFixed, RemainQuota: -1}, true},
		{"negative quota unlimited", models.Token{ExpiryMode: models.ExpiryModeFixed, RemainQuota: -1, UnlimitedQuota: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateToken(&tt.token, limits)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckEnable(t *testing.T) {
	disabled := &models.Token{Status: models.TokenStatusDisabled, ExpiredTime: 1, ExpiryMode: models.ExpiryModeFixed}
	assert.NoError(t, CheckEnable(disabled, 100))

	neverExpires := &models.Token{Status: models.TokenStatusEnabled, ExpiredTime: -1, RemainQuota: 1, ExpiryMode: models.ExpiryModeFixed}
	assert.NoError(t, CheckEnable(neverExpires, 100))

	past := &models.Token{Status: models.TokenStatusEnabled, ExpiredTime: 50, RemainQuota: 1, ExpiryMode: models.ExpiryModeFixed}
	assert.Error(t, CheckEnable(past, 100))

	unstarted := &models.Token{Status: models.TokenStatusEnabled, ExpiredTime: -1, RemainQuota: 1, ExpiryMode: models.ExpiryModeFirstUse, Duration: 10}
	assert.NoError(t, CheckEnable(unstarted, 100))

	unlimited := &models.Token{Status: models.TokenStatusEnabled, ExpiredTime: -1, UnlimitedQuota: true, ExpiryMode: models.ExpiryModeFixed}
	assert.NoError(t, CheckEnable(unlimited, 100))
}

func TestGenerateKey(t *testing.T) {
	a, err := GenerateKey()
	assert.NoError(t, err)
	b, err := GenerateKey()
	assert.NoError(t, err)

	assert.Len(t, a, 48)
	assert.NotEqual(t, a, b)
	for _, c := range a {
		assert.True(t, strings.ContainsRune(keyChars, c), "unexpected char %q", c)
	}
	assert.Equal(t, a, StripKeyPrefix(KeyPrefix+a))
}
