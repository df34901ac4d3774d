package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickedit/internal/analysis"
)

func TestProfileService_TiersGrowWithComplexity(t *testing.T) {
	for _, provider := range []string{"openai", "anthropic", "gemini", "ollama"} {
		svc := NewProfileService(provider, "")
		require.NoError(t, svc.Startup(context.Background()), provider)

		profiles, err := svc.Profiles()
		require.NoError(t, err)
		require.Len(t, profiles, len(analysis.Tiers))
		for i := 1; i < len(profiles); i++ {
			assert.GreaterOrEqual(t, profiles[i].MaxTokens, profiles[i-1].MaxTokens, provider)
			assert.LessOrEqual(t, profiles[i].Temperature, profiles[i-1].Temperature, provider)
		}
		assert.Equal(t, provider, profiles[0].ProviderID)
	}
}

func TestProfileService_TrivialProfile(t *testing.T) {
	svc := NewProfileService("OpenAI", "")
	require.NoError(t, svc.Startup(context.Background()))

	p, err := svc.Profile(analysis.Trivial)
	require.NoError(t, err)
	assert.Equal(t, 2048, p.MaxTokens)
	assert.InDelta(t, 0.3, p.Temperature, 1e-6)
	assert.Equal(t, "trivial", p.Tier)
}

func TestProfileService_ModelOverride(t *testing.T) {
	svc := NewProfileService("anthropic", "my-model")
	require.NoError(t, svc.Startup(context.Background()))

	p, err := svc.Profile(analysis.Complex)
	require.NoError(t, err)
	assert.Equal(t, "my-model", p.APIName)
	assert.Equal(t, 16384, p.MaxTokens)
}

func TestProfileService_UnknownProvider(t *testing.T) {
	svc := NewProfileService("nope", "")
	assert.Error(t, svc.Startup(context.Background()))

	loaded := NewProfileService("openai", "")
	require.NoError(t, loaded.Startup(context.Background()))
	assert.Equal(t, []string{"openai", "anthropic", "gemini", "ollama"}, loaded.Providers())
}
