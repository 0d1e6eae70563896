package validator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/railguard/railguard/internal/embedding"
)

// DefaultSimilarityThreshold is the minimum cosine similarity a value
// must reach against the source document when no threshold is declared.
const DefaultSimilarityThreshold = 0.60

// similarToDocument rejects values that are not semantically similar to
// a source document supplied as a prompt parameter. The document is
// chunked, each chunk is embedded, and the value passes when its best
// cosine similarity against any chunk meets the threshold.
type similarToDocument struct {
	embedder   embedding.Engine
	document   string
	threshold  float64
	chunkRunes int
}

func newSimilarToDocument(args map[string]string, env Env) (Validator, error) {
	if env.Embedder == nil {
		return nil, fmt.Errorf("similar-to-document requires an embedding engine")
	}

	threshold := DefaultSimilarityThreshold
	if raw := strings.TrimSpace(args["threshold"]); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("arg %q: %w", "threshold", err)
		}
		if parsed <= 0 || parsed > 1 {
			return nil, fmt.Errorf("threshold %v is outside (0, 1]", parsed)
		}
		threshold = parsed
	}

	param := args["param"]
	if param == "" {
		param = "document"
	}
	document := env.Params[param]
	if strings.TrimSpace(document) == "" {
		return nil, fmt.Errorf("similar-to-document: prompt param %q is empty", param)
	}

	return &similarToDocument{
		embedder:   env.Embedder,
		document:   document,
		threshold:  threshold,
		chunkRunes: env.ChunkRunes,
	}, nil
}

func (v *similarToDocument) Name() string { return "similar-to-document" }

func (v *similarToDocument) Validate(ctx context.Context, key string, value any, _ map[string]any) (*FailDetail, error) {
	s, ok := asString(value)
	if !ok {
		return &FailDetail{Key: key, Value: value, Message: "value is not a string"}, nil
	}
	if strings.TrimSpace(s) == "" {
		return &FailDetail{Key: key, Value: value, Message: "value is empty"}, nil
	}

	chunks := embedding.SplitChunks(v.document, v.chunkRunes)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("similar-to-document: document produced no chunks")
	}
	chunkVectors, err := v.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed document: %w", err)
	}
	candidate, err := v.embedder.Embed(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("embed value: %w", err)
	}

	score := embedding.MaxCosine(candidate, chunkVectors)
	if score < v.threshold {
		return &FailDetail{
			Key:   key,
			Value: value,
			Message: fmt.Sprintf("similarity to the source document is %.3f, below threshold %.2f",
				score, v.threshold),
		}, nil
	}
	return nil, nil
}
