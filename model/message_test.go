package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstUserText(t *testing.T) {
	raw := `[
		{"id":"m0","role":"system","parts":[{"type":"text","text":"ignored"}]},
		{"id":"m1","role":"user","parts":[{"type":"text","text":"stok jatim berapa?"},{"type":"text","text":"second"}]},
		{"id":"m2","role":"user","parts":[{"type":"text","text":"later"}]}
	]`
	var messages []UIMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &messages))

	assert.Equal(t, "stok jatim berapa?", FirstUserText(messages))
}

func TestFirstUserTextWithoutText(t *testing.T) {
	assert.Equal(t, "", FirstUserText(nil))
	assert.Equal(t, "", FirstUserText([]UIMessage{
		{Role: RoleAssistant, Parts: []UIPart{{Type: PartTypeText, Text: "hi"}}},
	}))
	assert.Equal(t, "", FirstUserText([]UIMessage{
		{Role: RoleUser, Parts: []UIPart{{Type: PartTypeToolInvocation}}},
		{Role: RoleUser, Parts: []UIPart{{Type: PartTypeText, Text: "not first"}}},
	}))
}
