package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyring/internal/engine/tokens"
	"keyring/internal/platform/config"
	"keyring/internal/platform/database"
	"keyring/internal/platform/models"
)

type fakeSweeper struct {
	calls atomic.Int32
	err   error
}

func (f *fakeSweeper) Sweep(ctx context.Context) (int64, int64, error) {
	f.calls.Add(1)
	return 1, 2, f.err
}

func TestSweepTokensPropagatesError(t *testing.T) {
	s := &fakeSweeper{err: errors.New("db locked")}
	assert.EqualError(t, SweepTokens(s)(context.Background()), "db locked")
}

func TestRunStopsWithContext(t *testing.T) {
	s := &fakeSweeper{err: errors.New("transient")}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		Run(ctx, "sweep", 5*time.Millisecond, SweepTokens(s))
		close(done)
	}()

	require.Eventually(t, func() bool { return s.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestSweepAgainstDatabase(t *testing.T) {
	db, err := database.NewDB(config.DatabaseConfig{URL: ":memory:"})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.Migrate(db, "../../migrations"))

	repo := tokens.NewRepository(db)
	ctx := context.Background()
	past := time.Now().Add(-time.Hour).Unix()
	require.NoError(t, repo.Create(ctx, &models.Token{
		UserID: 1, Key: "expired-key", Status: models.TokenStatusEnabled, Name: "old",
		ExpiredTime: past, RemainQuota: 5, ExpiryMode: models.ExpiryModeFixed,
	}))
	require.NoError(t, repo.Create(ctx, &models.Token{
		UserID: 1, Key: "empty-key", Status: models.TokenStatusEnabled, Name: "empty",
		ExpiredTime: models.NeverExpires, RemainQuota: 0, ExpiryMode: models.ExpiryModeFixed,
	}))

	svc := tokens.NewService(repo, &config.Config{}, tokens.Limits{})
	require.NoError(t, SweepTokens(svc)(ctx))

	expired, err := repo.GetByKey(ctx, "expired-key")
	require.NoError(t, err)
	assert.Equal(t, models.TokenStatusExpired, expired.Status)

	empty, err := repo.GetByKey(ctx, "empty-key")
	require.NoError(t, err)
	assert.Equal(t, models.TokenStatusExhausted, empty.Status)
}
