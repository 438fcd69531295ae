package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlashCommand(t *testing.T) {
	command, args, ok := parseSlashCommand("/gpt_api sk-test123")
	require.True(t, ok)
	assert.Equal(t, "gpt_api", command)
	assert.Equal(t, []string{"sk-test123"}, args)
}

func TestParseSlashCommand_NoArgs(t *testing.T) {
	command, args, ok := parseSlashCommand("  /services  ")
	require.True(t, ok)
	assert.Equal(t, "services", command)
	assert.Empty(t, args)
}

func TestParseSlashCommand_FreeText(t *testing.T) {
	_, _, ok := parseSlashCommand("what is the weather")
	assert.False(t, ok)

	_, _, ok = parseSlashCommand("/")
	assert.False(t, ok)
}
