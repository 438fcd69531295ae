package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		id          string
		requiresKey bool
		display     string
	}{
		{Google, false, "Google Search"},
		{Gemini, true, "Gemini"},
		{GPT, true, "GPT"},
		{Claude, true, "Claude"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			d, err := Describe(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.id, d.ID)
			assert.Equal(t, tt.requiresKey, d.RequiresCredential)
			assert.Equal(t, tt.display, d.DisplayName)
			if tt.requiresKey {
				assert.Equal(t, "/"+tt.id+"_api", d.CredentialCommand)
			}
		})
	}
}

func TestDescribe_Unknown(t *testing.T) {
	_, err := Describe("bing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestAll_StableOrder(t *testing.T) {
	all := All()
	require.Len(t, all, 4)
	assert.Equal(t, Google, all[0].ID)
	assert.Equal(t, Gemini, all[1].ID)
	assert.Equal(t, GPT, all[2].ID)
	assert.Equal(t, Claude, all[3].ID)
}
