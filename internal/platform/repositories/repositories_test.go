package repositories

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyring/internal/platform/models"
)

func TestUserRepository_GetByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "display_name", "role", "user_group", "created_at", "last_login_at"}).
		AddRow(1, "root", "hash", "Root", models.RoleRootUser, "default", 1700000000, nil)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = ?").
		WithArgs("root").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = ?").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	repo := NewUserRepository(db)
	user, err := repo.GetByUsername(context.Background(), "root")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.True(t, user.IsAdmin())
	assert.Nil(t, user.LastLoginAt)

	user, err = repo.GetByUsername(context.Background(), "ghost")
	assert.NoError(t, err)
	assert.Nil(t, user)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOptionRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT OR IGNORE INTO options").
		WithArgs(models.OptionModelRatioEnabled, "true").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO options (.+) ON CONFLICT").
		WithArgs(models.OptionModelRatioEnabled, "false").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT key, value FROM options").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).AddRow(models.OptionModelRatioEnabled, "false"))

	repo := NewOptionRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.SeedDefault(ctx, models.OptionModelRatioEnabled, "true"))
	require.NoError(t, repo.Upsert(ctx, models.OptionModelRatioEnabled, "false"))

	opts, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Option{{Key: models.OptionModelRatioEnabled, Value: "false"}}, opts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
