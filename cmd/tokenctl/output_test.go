package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyring/internal/console/flags"
	"keyring/internal/platform/models"
)

func sampleTokens() []*models.Token {
	return []*models.Token{
		{ID: 1, Name: "ci", Key: "abc", Status: models.TokenStatusEnabled, Group: "vip", ExpiredTime: models.NeverExpires, ExpiryMode: models.ExpiryModeFixed},
		{ID: 2, Name: "dev", Key: "def", Status: models.TokenStatusDisabled, ExpiredTime: models.NeverExpires, ExpiryMode: models.ExpiryModeFixed},
	}
}

func TestPrintTokensGroupColumn(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTokens(&buf, "table", flags.Snapshot{}, sampleTokens(), false))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.NotContains(t, lines[0], "GROUP")
	assert.NotContains(t, buf.String(), "vip")

	buf.Reset()
	require.NoError(t, printTokens(&buf, "table", flags.Snapshot{UserGroupEnabled: true}, sampleTokens(), true))
	lines = strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ID", "NAME", "STATUS", "REMAIN", "USED", "EXPIRES", "GROUP", "SECRET"}, strings.Fields(lines[0]))
	assert.Contains(t, lines[1], "vip")
	assert.Contains(t, lines[1], "sk-abc")
	assert.Contains(t, lines[2], models.DefaultGroup)
}

func TestPrintTokensStructuredOmitsHiddenGroup(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTokens(&buf, "json", flags.Snapshot{}, sampleTokens(), false))
	assert.NotContains(t, buf.String(), `"group"`)

	buf.Reset()
	require.NoError(t, printToken(&buf, "yaml", flags.Snapshot{UserGroupEnabled: true}, sampleTokens()[1]))
	assert.Contains(t, buf.String(), "group: default")
}

func TestPrintTokensUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, printTokens(&buf, "xml", flags.Snapshot{}, sampleTokens(), false))
}
