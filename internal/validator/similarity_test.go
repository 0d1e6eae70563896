package validator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordOverlapEmbedder maps text onto a fixed vocabulary axis so cosine
// similarity tracks word overlap. Deterministic and offline.
type wordOverlapEmbedder struct {
	vocab []string
}

func newWordOverlapEmbedder(vocab ...string) *wordOverlapEmbedder {
	return &wordOverlapEmbedder{vocab: vocab}
}

func (e *wordOverlapEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, len(e.vocab))
	words := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		words[strings.Trim(w, ".,!?")] = true
	}
	for i, term := range e.vocab {
		if words[term] {
			vec[i] = 1
		}
	}
	return vec, nil
}

func (e *wordOverlapEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *wordOverlapEmbedder) Name() string { return "word-overlap" }

func TestSimilarToDocument(t *testing.T) {
	t.Parallel()

	document := "The aurora is caused by charged particles hitting the atmosphere."
	embedder := newWordOverlapEmbedder(
		"aurora", "charged", "particles", "atmosphere", "caused", "pasta", "recipe", "tomato")

	env := Env{
		Embedder: embedder,
		Params:   map[string]string{"document": document},
	}
	v, err := newSimilarToDocument(map[string]string{"threshold": "0.60"}, env)
	require.NoError(t, err)
	ctx := context.Background()

	detail, err := v.Validate(ctx, "summary",
		"Charged particles hitting the atmosphere cause the aurora.", nil)
	require.NoError(t, err)
	assert.Nil(t, detail, "faithful summary should pass")

	detail, err = v.Validate(ctx, "summary",
		"A pasta recipe with tomato.", nil)
	require.NoError(t, err)
	require.NotNil(t, detail, "unrelated text should fail")
	assert.Contains(t, detail.Message, "below threshold")
}

func TestSimilarToDocument_FactoryErrors(t *testing.T) {
	t.Parallel()

	embedder := newWordOverlapEmbedder("a")
	params := map[string]string{"document": "some text"}

	_, err := newSimilarToDocument(nil, Env{Params: params})
	assert.Error(t, err, "missing embedder")

	_, err = newSimilarToDocument(map[string]string{"threshold": "1.5"},
		Env{Embedder: embedder, Params: params})
	assert.Error(t, err, "threshold outside (0, 1]")

	_, err = newSimilarToDocument(map[string]string{"threshold": "abc"},
		Env{Embedder: embedder, Params: params})
	assert.Error(t, err, "non-numeric threshold")

	_, err = newSimilarToDocument(nil, Env{Embedder: embedder, Params: map[string]string{}})
	assert.Error(t, err, "empty document param")
}

func TestSimilarToDocument_CustomParam(t *testing.T) {
	t.Parallel()

	embedder := newWordOverlapEmbedder("alpha", "beta")
	env := Env{
		Embedder: embedder,
		Params:   map[string]string{"source": "alpha beta"},
	}
	v, err := newSimilarToDocument(map[string]string{"param": "source"}, env)
	require.NoError(t, err)

	detail, err := v.Validate(context.Background(), "summary", "alpha beta", nil)
	require.NoError(t, err)
	assert.Nil(t, detail)
}

func TestSimilarToDocument_NonString(t *testing.T) {
	t.Parallel()

	embedder := newWordOverlapEmbedder("a")
	env := Env{Embedder: embedder, Params: map[string]string{"document": "a"}}
	v, err := newSimilarToDocument(nil, env)
	require.NoError(t, err)

	detail, err := v.Validate(context.Background(), "summary", 7, nil)
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, "value is not a string", detail.Message)
}
