// Package apitest runs the full API over an in-memory database for tests.
package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"keyring/internal/api"
	"keyring/internal/platform/config"
	"keyring/internal/platform/database"
)

const (
	AdminUser     = "root"
	AdminPassword = "123456"
)

// Config returns a configuration suitable for tests.
func Config() *config.Config {
	return &config.Config{
		JWT:       config.JWTConfig{Secret: "test-secret", AccessTokenTTL: time.Hour},
		RateLimit: config.RateLimitConfig{APIReadPerMinute: 10000, APIWritePerMinute: 10000, KeyPerMinute: 10000},
		Tokens:    config.TokensConfig{ItemsPerPage: 10, MaxNameLen: 30, MaxDuration: 8760 * time.Hour},
		Groups: []config.GroupConfig{
			{Name: "default", Ratio: 1, Selectable: true, Models: []string{"gpt-4o", "gpt-4o-mini"}},
			{Name: "vip", Ratio: 0.5, Selectable: true, Models: []string{"gpt-4o", "o1-preview"}},
			{Name: "internal", Ratio: 0, Selectable: false},
		},
		Options: config.OptionsConfig{ModelRatioEnabled: true, BillingByRequestEnabled: true, UserGroupEnabled: true},
		Admin:   config.AdminConfig{Username: AdminUser, Password: AdminPassword, Group: "default"},
	}
}

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
}

// NewServer starts the API and returns it with a root session token.
func NewServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	return NewServerWithConfig(t, Config())
}

func NewServerWithConfig(t *testing.T, cfg *config.Config) (*httptest.Server, string) {
	t.Helper()

	db, err := database.NewDB(config.DatabaseConfig{URL: ":memory:"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db, migrationsDir()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	app, err := api.NewApp(context.Background(), cfg, db)
	if err != nil {
		t.Fatalf("build app: %v", err)
	}

	srv := httptest.NewServer(app.Handler)
	t.Cleanup(func() {
		srv.Close()
		app.Close()
		db.Close()
	})

	return srv, Login(t, srv.URL, AdminUser, AdminPassword)
}

// Login returns a bearer token for the given credentials.
func Login(t *testing.T, baseURL, username, password string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(baseURL+"/api/user/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()

	var env struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Data    struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil || !env.Success {
		t.Fatalf("login failed: %v %s", err, env.Message)
	}
	return env.Data.AccessToken
}
