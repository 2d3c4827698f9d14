package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyring/internal/api/apitest"
	"keyring/internal/platform/models"
)

func stub(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithAccessToken("session"))
}

func TestServerErrorKeepsMessage(t *testing.T) {
	c := stub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":false,"message":"令牌名称过长"}`))
	})

	_, err := c.GetToken(context.Background(), 1)
	var serr *ServerError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "令牌名称过长", serr.Message)
	assert.Equal(t, http.StatusOK, serr.Status)
	assert.Equal(t, "令牌名称过长", Message(err))
}

func TestNonJSONErrorStatus(t *testing.T) {
	c := stub(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := c.UserModels(context.Background())
	var serr *ServerError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusBadGateway, serr.Status)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := New(srv.URL).Groups(context.Background())
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "GET /api/group/", terr.Op)
	assert.Contains(t, Message(err), "request failed")
}

func TestGarbageSuccessBody(t *testing.T) {
	c := stub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	})
	_, err := c.Options(context.Background())
	var terr *TransportError
	assert.True(t, errors.As(err, &terr))
}

func TestRequestShape(t *testing.T) {
	var gotAuth, gotPath, gotQuery string
	var gotBody map[string]interface{}
	c := stub(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"success":true,"message":"","data":{"id":9,"status":2,"billing_enabled":true}}`))
	})
	ctx := context.Background()

	tok, err := c.SetTokenStatus(ctx, 9, models.TokenStatusDisabled)
	require.NoError(t, err)
	assert.Equal(t, "Bearer session", gotAuth)
	assert.Equal(t, "/api/token/", gotPath)
	assert.Equal(t, "status_only=true", gotQuery)
	assert.EqualValues(t, 9, gotBody["id"])
	assert.EqualValues(t, 2, gotBody["status"])
	assert.Equal(t, models.TokenStatusDisabled, tok.Status)

	_, err = c.UpdateBillingStrategy(ctx, 9, true)
	require.NoError(t, err)
	assert.Equal(t, "/api/token/9/billing_strategy", gotPath)
	assert.EqualValues(t, 1, gotBody["billing_enabled"])

	_, err = c.TokenStatus(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-abc", gotAuth)

	err = c.ManageToken(ctx, 9, "explode", 0)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestModelsRoundTrip(t *testing.T) {
	assert.Equal(t, "", JoinModels(nil))
	assert.Equal(t, "", JoinModels([]string{}))
	assert.Equal(t, "gpt-4,gpt-3.5", JoinModels([]string{"gpt-4", "gpt-3.5"}))

	assert.Equal(t, []string{}, SplitModels(""))
	assert.Equal(t, []string{"gpt-4", "gpt-3.5"}, SplitModels("gpt-4,gpt-3.5"))
	assert.Equal(t, []string{"a", "b"}, SplitModels(" a, ,b "))

	in := []string{"claude-3-5-sonnet", "gpt-4o-mini", "o1-preview"}
	assert.Equal(t, in, SplitModels(JoinModels(in)))
}

func TestAgainstServer(t *testing.T) {
	srv, _ := apitest.NewServer(t)
	ctx := context.Background()
	c := New(srv.URL)

	_, err := c.Login(ctx, apitest.AdminUser, "wrong")
	var serr *ServerError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusUnauthorized, serr.Status)

	user, err := c.Login(ctx, apitest.AdminUser, apitest.AdminPassword)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())
	assert.NotEmpty(t, c.AccessToken())

	created, err := c.CreateToken(ctx, &Token{
		Name:        "from-client",
		RemainQuota: 10,
		ExpiredTime: models.NeverExpires,
		ExpiryMode:  models.ExpiryModeFixed,
		Models:      JoinModels([]string{"gpt-4o"}),
	})
	require.NoError(t, err)

	got, err := c.GetToken(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o"}, SplitModels(got.Models))

	disabled, err := c.SetTokenStatus(ctx, created.ID, models.TokenStatusDisabled)
	require.NoError(t, err)
	assert.Equal(t, models.TokenStatusDisabled, disabled.Status)

	found, err := c.SearchTokens(ctx, "client", "")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	summary, err := c.TokenStatus(ctx, created.Key)
	var rejected *ServerError
	require.True(t, errors.As(err, &rejected), "disabled keys are refused")
	assert.Nil(t, summary)

	require.NoError(t, c.ManageToken(ctx, created.ID, "status", models.TokenStatusEnabled))
	summary, err = c.TokenStatus(ctx, created.Key)
	require.NoError(t, err)
	assert.EqualValues(t, 10, summary.TotalAvailable)

	require.NoError(t, c.DeleteToken(ctx, created.ID))
	_, err = c.GetToken(ctx, created.ID)
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusNotFound, serr.Status)
}
