package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyring/internal/console/flags"
	"keyring/internal/platform/models"
)

type fakeSource struct {
	user    *models.User
	opts    []models.Option
	userErr error
	optErr  error
	calls   int
}

func (f *fakeSource) Self(ctx context.Context) (*models.User, error) {
	return f.user, f.userErr
}

func (f *fakeSource) Options(ctx context.Context) ([]models.Option, error) {
	f.calls++
	return f.opts, f.optErr
}

func TestOpen(t *testing.T) {
	src := &fakeSource{
		user: &models.User{ID: 1, Username: "root", Role: models.RoleRootUser},
		opts: []models.Option{
			{Key: models.OptionModelRatioEnabled, Value: "true"},
			{Key: models.OptionBillingByRequestEnabled, Value: "true"},
		},
	}

	s, err := Open(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, s.IsAdmin())
	assert.Equal(t, "default", s.Group())
	assert.True(t, s.Flags().BillingSelectorVisible())

	// repeated reads never refetch
	s.Flags()
	s.Flags()
	assert.Equal(t, 1, src.calls)

	s.Close()
	assert.True(t, s.Closed())
	assert.Equal(t, flags.Snapshot{}, s.Flags())
}

func TestOpenFailure(t *testing.T) {
	_, err := Open(context.Background(), &fakeSource{user: &models.User{}, optErr: errors.New("boom")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load options")
}

func TestGroup(t *testing.T) {
	s := New(models.User{Group: "vip"}, flags.Snapshot{})
	assert.Equal(t, "vip", s.Group())
	assert.False(t, s.IsAdmin())
}
