package jsonschema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDraftPrecedence(t *testing.T) {
	d, err := detectDraft("https://json-schema.org/draft/2019-09/schema", &CompileOptions{Draft: Draft7}, DraftUnknown)
	require.NoError(t, err)
	assert.Equal(t, Draft7, d, "explicit option must win over $schema")

	d, err = detectDraft("https://json-schema.org/draft/2019-09/schema#", nil, DraftUnknown)
	require.NoError(t, err)
	assert.Equal(t, Draft2019, d)

	d, err = detectDraft("", nil, Draft6)
	require.NoError(t, err)
	assert.Equal(t, Draft6, d, "compiler default used when $schema absent")

	d, err = detectDraft("", nil, DraftUnknown)
	require.NoError(t, err)
	assert.Equal(t, defaultDraft, d, "package default used when nothing else specified")
}

func TestDetectDraftUnknownDialect(t *testing.T) {
	_, err := detectDraft("https://example.com/not-a-real-dialect", nil, DraftUnknown)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownDialect))

	d, err := detectDraft("https://example.com/not-a-real-dialect", &CompileOptions{AllowUnknownDialect: true}, Draft7)
	require.NoError(t, err)
	assert.Equal(t, Draft7, d)
}

func TestCompileRejectsTupleItemsUnder2020(t *testing.T) {
	compiler := NewCompiler()
	schemaJSON := []byte(`{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"items": [
			{"type": "string"},
			{"type": "number"}
		]
	}`)

	_, err := compiler.Compile(schemaJSON)
	require.Error(t, err, "tuple-form items must be rejected once the dialect is known to be 2020-12")

	var draftErr *DraftIncompatibleError
	require.True(t, errors.As(err, &draftErr), "expected a *DraftIncompatibleError, got %T: %v", err, err)
	assert.Equal(t, "items", draftErr.Keyword)
	assert.Equal(t, Draft2020, draftErr.Draft)
}

func TestCompileAllowsTupleItemsUnderDraft7(t *testing.T) {
	compiler := NewCompiler()
	schemaJSON := []byte(`{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"items": [
			{"type": "string"},
			{"type": "number"}
		]
	}`)

	schema, err := compiler.Compile(schemaJSON)
	require.NoError(t, err, "tuple-form items is legal under draft-07")
	require.Len(t, schema.PrefixItems, 2)
}

func TestCompileRejectsMixedRecursiveAndDynamicKeywords(t *testing.T) {
	compiler := NewCompiler()
	schemaJSON := []byte(`{
		"$schema": "https://json-schema.org/draft/2019-09/schema",
		"$recursiveAnchor": true,
		"$dynamicAnchor": "node"
	}`)

	_, err := compiler.Compile(schemaJSON)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMixedDynamicKeywords))
}

func TestEvaluateContextCancellation(t *testing.T) {
	compiler := NewCompiler()
	schema, err := compiler.Compile([]byte(`{"type": "string"}`))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := schema.EvaluateContext(ctx, "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, result.IsValid())
}

func TestFormatDispatch(t *testing.T) {
	compiler := NewCompiler()
	schema, err := compiler.Compile([]byte(`{
		"type": "object",
		"properties": {"name": {"type": "string", "minLength": 2}},
		"required": ["name"]
	}`))
	require.NoError(t, err)

	result := schema.Validate(map[string]interface{}{"name": "a"})

	flag, ok := result.Format(OutputFlag).(*Flag)
	require.True(t, ok)
	assert.False(t, flag.Valid)

	detailed, ok := result.Format(OutputDetailed).(*List)
	require.True(t, ok)
	assert.False(t, detailed.Valid)
}
