package flags

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"keyring/internal/platform/models"
)

func TestFromOptions(t *testing.T) {
	s := FromOptions([]models.Option{
		{Key: models.OptionModelRatioEnabled, Value: "true"},
		{Key: models.OptionBillingByRequestEnabled, Value: "false"},
		{Key: models.OptionUserGroupEnabled, Value: "1"},
		{Key: "SomethingElse", Value: "true"},
	})
	assert.Equal(t, Snapshot{ModelRatioEnabled: true, UserGroupEnabled: true}, s)
	assert.False(t, s.BillingSelectorVisible())

	s = FromOptions([]models.Option{
		{Key: models.OptionModelRatioEnabled, Value: "true"},
		{Key: models.OptionBillingByRequestEnabled, Value: "true"},
	})
	assert.True(t, s.BillingSelectorVisible())

	s = FromOptions([]models.Option{{Key: models.OptionModelRatioEnabled, Value: "maybe"}})
	assert.False(t, s.ModelRatioEnabled)
}

func TestBillingSelectorNeedsBothFlags(t *testing.T) {
	assert.False(t, Snapshot{ModelRatioEnabled: true}.BillingSelectorVisible())
	assert.False(t, Snapshot{BillingByRequestEnabled: true}.BillingSelectorVisible())
	assert.False(t, Snapshot{}.BillingSelectorVisible())
}
