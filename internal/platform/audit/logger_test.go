package audit

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyring/internal/platform/config"
	"keyring/internal/platform/database"
)

func TestLoggerWritesAndLists(t *testing.T) {
	db, err := database.NewDB(config.DatabaseConfig{URL: ":memory:"})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.Migrate(db, filepath.Join("..", "..", "..", "migrations")))

	l := NewLogger(db)
	req := httptest.NewRequest("POST", "/api/token/", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Firefox/120.0")

	l.Log(req, 3, "token.create", "token", "12", map[string]interface{}{"name": "ci"})
	l.Wait()

	logs, err := l.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "token.create", logs[0].Action)
	assert.Equal(t, int64(3), logs[0].UserID)
	assert.Equal(t, "ci", logs[0].Metadata["name"])
	assert.Equal(t, "Linux", logs[0].Metadata["client_os"])
	assert.Equal(t, "Firefox", logs[0].Metadata["client_browser"])
}
