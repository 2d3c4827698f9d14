package row

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyring/internal/client"
	"keyring/internal/console/clipboard"
	"keyring/internal/console/flags"
	"keyring/internal/console/notify"
	"keyring/internal/platform/models"
)

type fakeService struct {
	statusErr   error
	billingErr  error
	statusCalls []int
	// billingReply overrides what the server reports back
	billingReply *bool
}

func (f *fakeService) SetTokenStatus(ctx context.Context, id int64, status int) (*models.Token, error) {
	f.statusCalls = append(f.statusCalls, status)
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &models.Token{ID: id, Name: "k", Status: status}, nil
}

func (f *fakeService) UpdateBillingStrategy(ctx context.Context, id int64, enabled bool) (*models.Token, error) {
	if f.billingErr != nil {
		return nil, f.billingErr
	}
	if f.billingReply != nil {
		enabled = *f.billingReply
	}
	return &models.Token{ID: id, Name: "k", BillingEnabled: enabled}, nil
}

var billingOn = flags.Snapshot{ModelRatioEnabled: true, BillingByRequestEnabled: true}

func newRow(t *testing.T, rec models.Token, snap flags.Snapshot) (*Row, *fakeService, *notify.Recorder, *clipboard.Memory) {
	t.Helper()
	svc := &fakeService{}
	notes := &notify.Recorder{}
	clip := &clipboard.Memory{}
	return New(rec, svc, snap, notes, clip), svc, notes, clip
}

func TestToggleStatus(t *testing.T) {
	r, svc, _, _ := newRow(t, models.Token{ID: 1, Status: models.TokenStatusEnabled}, flags.Snapshot{})
	ctx := context.Background()

	require.NoError(t, r.ToggleStatus(ctx))
	assert.Equal(t, models.TokenStatusDisabled, r.StatusSwitch())
	assert.Equal(t, "disabled", r.Tooltip())

	require.NoError(t, r.ToggleStatus(ctx))
	assert.Equal(t, models.TokenStatusEnabled, r.StatusSwitch())
	assert.Equal(t, []int{models.TokenStatusDisabled, models.TokenStatusEnabled}, svc.statusCalls)
}

func TestToggleStatusFailureKeepsSwitch(t *testing.T) {
	r, svc, notes, _ := newRow(t, models.Token{ID: 1, Status: models.TokenStatusEnabled}, flags.Snapshot{})
	svc.statusErr = &client.ServerError{Message: "token has expired and cannot be enabled"}

	require.Error(t, r.ToggleStatus(context.Background()))
	assert.Equal(t, models.TokenStatusEnabled, r.StatusSwitch())
	assert.Equal(t, []string{"token has expired and cannot be enabled"}, notes.Messages(notify.LevelError))
}

func TestToggleFromExhaustedEnables(t *testing.T) {
	r, svc, _, _ := newRow(t, models.Token{ID: 3, Status: models.TokenStatusExhausted}, flags.Snapshot{})
	assert.False(t, r.Enabled())
	assert.Equal(t, "exhausted", r.Tooltip())

	require.NoError(t, r.ToggleStatus(context.Background()))
	assert.Equal(t, []int{models.TokenStatusEnabled}, svc.statusCalls)
	assert.True(t, r.Enabled())
}

func TestBillingStrategyConfirmedOnly(t *testing.T) {
	r, svc, notes, _ := newRow(t, models.Token{ID: 2}, billingOn)
	ctx := context.Background()
	require.True(t, r.BillingSelectorVisible())

	svc.billingErr = &client.TransportError{Op: "PUT", Err: errors.New("connection reset")}
	require.Error(t, r.SetBillingStrategy(ctx, true))
	assert.False(t, r.BillingEnabled(), "no optimistic update on failure")
	assert.Len(t, notes.Messages(notify.LevelError), 1)

	svc.billingErr = nil
	require.NoError(t, r.SetBillingStrategy(ctx, true))
	assert.True(t, r.BillingEnabled())
	assert.Equal(t, []string{"Billing strategy updated"}, notes.Messages(notify.LevelSuccess))

	// the server reply wins over the requested value
	no := false
	svc.billingReply = &no
	require.NoError(t, r.SetBillingStrategy(ctx, true))
	assert.False(t, r.BillingEnabled())
}

func TestBillingStrategyHiddenWithoutFlags(t *testing.T) {
	r, _, _, _ := newRow(t, models.Token{ID: 2}, flags.Snapshot{ModelRatioEnabled: true})
	assert.False(t, r.BillingSelectorVisible())

	err := r.SetBillingStrategy(context.Background(), true)
	var verr *client.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.False(t, r.BillingEnabled())
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	r, _, notes, _ := newRow(t, models.Token{ID: 8}, flags.Snapshot{})
	var deleted []int64
	r.OnDelete = func(ctx context.Context, id int64) error {
		deleted = append(deleted, id)
		return nil
	}
	ctx := context.Background()

	assert.Error(t, r.ConfirmDelete(ctx))
	assert.Empty(t, deleted)

	r.RequestDelete()
	assert.True(t, r.DeleteConfirming())
	r.CancelDelete()
	assert.False(t, r.DeleteConfirming())
	assert.Error(t, r.ConfirmDelete(ctx))

	r.RequestDelete()
	require.NoError(t, r.ConfirmDelete(ctx))
	assert.Equal(t, []int64{8}, deleted)
	assert.False(t, r.DeleteConfirming())

	r.OnDelete = func(ctx context.Context, id int64) error {
		return &client.ServerError{Message: "Token not found"}
	}
	r.RequestDelete()
	assert.Error(t, r.ConfirmDelete(ctx))
	assert.False(t, r.DeleteConfirming())
	assert.Equal(t, []string{"Token not found"}, notes.Messages(notify.LevelError))
}

func TestCopy(t *testing.T) {
	r, _, notes, clip := newRow(t, models.Token{ID: 1, Name: "ci", Key: "abc123"}, flags.Snapshot{})

	require.NoError(t, r.CopyName())
	assert.Equal(t, "ci", clip.Text)
	require.NoError(t, r.CopySecret())
	assert.Equal(t, "sk-abc123", clip.Text)
	assert.Len(t, notes.Messages(notify.LevelSuccess), 2)

	clip.Err = errors.New("permission denied")
	err := r.CopySecret()
	var terr *client.TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, []string{"Copy failed, copy it manually: sk-abc123"}, notes.Messages(notify.LevelError))
}

func TestExpiryText(t *testing.T) {
	utc := time.UTC
	assert.Equal(t, NotStarted, ExpiryText(models.Token{ExpiryMode: models.ExpiryModeFirstUse, ExpiredTime: -1, Duration: 3600}, utc))
	assert.Equal(t, "1970-01-01 01:00:10", ExpiryText(models.Token{ExpiryMode: models.ExpiryModeFirstUse, FirstUsedTime: 10, Duration: 3600}, utc))
	assert.Equal(t, NeverExpires, ExpiryText(models.Token{ExpiryMode: models.ExpiryModeFixed, ExpiredTime: -1}, utc))
	assert.Equal(t, "2027-05-06 07:08:09", ExpiryText(models.Token{
		ExpiryMode: models.ExpiryModeFixed, ExpiredTime: time.Date(2027, 5, 6, 7, 8, 9, 0, utc).Unix(),
	}, utc))
}

func TestQuotaText(t *testing.T) {
	remain, used := QuotaText(models.Token{RemainQuota: 500000, UsedQuota: 250000})
	assert.Equal(t, "$1.00", remain)
	assert.Equal(t, "$0.50", used)

	remain, _ = QuotaText(models.Token{RemainQuota: 1, UnlimitedQuota: true})
	assert.Equal(t, Unlimited, remain)

	assert.Equal(t, "unknown", StatusText(99))
	assert.Equal(t, "expired", StatusText(models.TokenStatusExpired))
}

func TestGroupFollowsUserGroupSwitch(t *testing.T) {
	hidden, _, _, _ := newRow(t, models.Token{ID: 1, Group: "vip"}, flags.Snapshot{})
	assert.False(t, hidden.GroupVisible())

	shown, _, _, _ := newRow(t, models.Token{ID: 1, Group: "vip"}, flags.Snapshot{UserGroupEnabled: true})
	assert.True(t, shown.GroupVisible())
	assert.Equal(t, "vip", shown.GroupText())

	ungrouped, _, _, _ := newRow(t, models.Token{ID: 2}, flags.Snapshot{UserGroupEnabled: true})
	assert.Equal(t, models.DefaultGroup, ungrouped.GroupText())
}
