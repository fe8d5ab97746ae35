package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floatchat/backend/pkg/config"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantErr  bool
	}{
		{name: "bare object", response: `{"intent":"summary"}`, want: `{"intent":"summary"}`},
		{name: "markdown fence", response: "Here you go:\n```json\n{\"a\": {\"b\": 1}}\n```", want: `{"a": {"b": 1}}`},
		{name: "braces inside strings", response: `note {"text":"use } carefully","n":2} trailing`, want: `{"text":"use } carefully","n":2}`},
		{name: "skips invalid first span", response: `{not json} then {"ok":true}`, want: `{"ok":true}`},
		{name: "no object", response: "I cannot help with that", wantErr: true},
		{name: "unterminated", response: `{"intent": "summary"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.response)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoJSON)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

var testSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"intent":     {Type: jsonschema.String},
		"confidence": {Type: jsonschema.Number},
		"bounds": {
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"min_lat": {Type: jsonschema.Number},
			},
		},
	},
	Required: []string{"intent", "confidence"},
}

type testReading struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Bounds     *struct {
		MinLat *float64 `json:"min_lat"`
	} `json:"bounds"`
}

func TestDecodeStructured(t *testing.T) {
	var r testReading
	err := DecodeStructured("```json\n{\"intent\":\"summary\",\"confidence\":0.9,\"bounds\":{\"min_lat\":null}}\n```", testSchema, &r)
	require.NoError(t, err)
	assert.Equal(t, "summary", r.Intent)
	assert.Equal(t, 0.9, r.Confidence)
	require.NotNil(t, r.Bounds)
	assert.Nil(t, r.Bounds.MinLat)
}

func TestDecodeStructuredRejectsWrongTypes(t *testing.T) {
	var r testReading
	err := DecodeStructured(`{"intent": 3, "confidence": 0.9}`, testSchema, &r)
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	err = DecodeStructured(`{"intent": "summary"}`, testSchema, &r)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestWithTimeoutReportsDeadline(t *testing.T) {
	slow := &MockOracle{GenerateFunc: func(ctx context.Context, _ string) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Second):
			return "too late", nil
		}
	}}

	_, err := WithTimeout(slow, 10*time.Millisecond).Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithTimeoutRejectsBlankReply(t *testing.T) {
	_, err := WithTimeout(NewMockOracle("   \n"), time.Second).Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestWithTimeoutPassesThrough(t *testing.T) {
	sentinel := errors.New("quota exceeded")
	_, err := WithTimeout(NewFailingOracle(sentinel), time.Second).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, sentinel)

	out, err := WithTimeout(NewMockOracle("fine"), time.Second).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "fine", out)
}

func TestDisabledOracle(t *testing.T) {
	_, err := Disabled().Generate(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrOracleDisabled)
}

func TestNewWithoutKeyIsDisabled(t *testing.T) {
	o, err := New(context.Background(), config.LLMConfig{Provider: "gemini", TimeoutSec: 1})
	require.NoError(t, err)
	assert.Equal(t, "none", o.Name())

	o, err = New(context.Background(), config.LLMConfig{Provider: "none", TimeoutSec: 1})
	require.NoError(t, err)
	assert.Equal(t, "none", o.Name())
}

func TestNewOpenAIOracleIsBounded(t *testing.T) {
	o, err := New(context.Background(), config.LLMConfig{Provider: "openai", APIKey: "sk-test", Model: "gpt-4o-mini", TimeoutSec: 2})
	require.NoError(t, err)
	assert.Equal(t, "openai", o.Name())
	_, bounded := o.(*boundedOracle)
	assert.True(t, bounded)
}

func TestNewEmbedder(t *testing.T) {
	assert.Nil(t, NewEmbedder(config.LLMConfig{Provider: "gemini", APIKey: "g-key"}))
	assert.NotNil(t, NewEmbedder(config.LLMConfig{Provider: "openai", APIKey: "sk-test"}))
	assert.NotNil(t, NewEmbedder(config.LLMConfig{Provider: "gemini", EmbeddingKey: "sk-test"}))
}
