package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEngine_Rejections(t *testing.T) {
	t.Parallel()

	_, err := ForEngine("", Config{})
	assert.Error(t, err, "empty engine")

	_, err = ForEngine("claude-sonnet", Config{})
	assert.Error(t, err, "unknown engine family")

	// Starting with "o" is not enough to be an OpenAI reasoning model.
	_, err = ForEngine("ollama-mistral", Config{APIKey: "test-key"})
	assert.Error(t, err, "ollama engine routed to a provider")
}

func TestForEngine_OpenAIFamilies(t *testing.T) {
	t.Parallel()

	for _, engine := range []string{"gpt-4o", "o1", "o3-mini", "o4-mini-high"} {
		p, err := ForEngine(engine, Config{APIKey: "test-key"})
		require.NoError(t, err, engine)
		assert.Equal(t, "openai", p.Name(), engine)
	}
}

func TestConfigTimeout(t *testing.T) {
	t.Parallel()

	assert.Equal(t, defaultTimeout, Config{}.timeout())
	assert.Equal(t, 5*time.Second, Config{Timeout: 5 * time.Second}.timeout())
}
