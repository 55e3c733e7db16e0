package model

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestResolvePricing(t *testing.T) {
	assert.Equal(t, defaultPricing["gpt-4o-mini"], ResolvePricing("openai-main/gpt-4o-mini"))
	assert.Equal(t, defaultPricing["gemini-2.5-flash"], ResolvePricing("gemini-2.5-flash"))
	assert.Equal(t, Pricing{}, ResolvePricing("unknown"))
}

func TestComputeCost(t *testing.T) {
	in, out, total := ComputeCost(&schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 500_000}, Pricing{InputPerM: 0.15, OutputPerM: 0.60})
	assert.InDelta(t, 0.15, in, 1e-9)
	assert.InDelta(t, 0.30, out, 1e-9)
	assert.InDelta(t, 0.45, total, 1e-9)

	in, out, total = ComputeCost(nil, Pricing{InputPerM: 1})
	assert.Zero(t, in+out+total)
}
