package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageResponseText(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "text", Text: `{"findings":`},
			{Type: "tool_use", Text: "ignored"},
			{Type: "text", Text: `[]}`},
		},
	}
	assert.Equal(t, `{"findings":[]}`, resp.Text())

	empty := &MessageResponse{}
	assert.Empty(t, empty.Text())
}

func TestTokenUsageAdd(t *testing.T) {
	u := TokenUsage{InputTokens: 100, OutputTokens: 50}
	u.Add(TokenUsage{InputTokens: 200, OutputTokens: 25, CacheReadInputTokens: 1000})

	assert.Equal(t, int64(300), u.InputTokens)
	assert.Equal(t, int64(75), u.OutputTokens)
	assert.Equal(t, int64(1000), u.CacheReadInputTokens)
}

func TestEstimateCost(t *testing.T) {
	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	assert.InDelta(t, 4.80, u.EstimateCost("claude-haiku-4-5-20251001"), 0.001)
	assert.Zero(t, u.EstimateCost("unknown-model"))

	// Cache reads bill at a tenth of the input rate.
	cached := TokenUsage{CacheReadInputTokens: 1_000_000}
	assert.InDelta(t, 0.08, cached.EstimateCost("claude-haiku-4-5-20251001"), 0.001)
}

func TestToSDKMessages(t *testing.T) {
	msgs := toSDKMessages([]Message{
		{Role: "user", Content: "analyze this"},
		{Role: "assistant", Content: "{"},
	})
	assert.Len(t, msgs, 2)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
}

func TestToSDKSystemBlocks(t *testing.T) {
	blocks := toSDKSystemBlocks([]SystemBlock{
		{Text: "instructions"},
		{Text: "rubric", CacheControl: &CacheControl{TTL: "5m"}},
	})
	assert.Len(t, blocks, 2)
	assert.Equal(t, "instructions", blocks[0].Text)
	assert.Equal(t, "5m", string(blocks[1].CacheControl.TTL))
}
