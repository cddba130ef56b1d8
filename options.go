package jsonschema

import "context"

// CompileOptions customizes a single Compile (or CompileWithOptions) call. The zero
// value behaves exactly like the bare Compile(data, uris...) call: dialect is taken
// from $schema (falling back to the compiler's configured default draft), and an
// unrecognized $schema is a compile error.
type CompileOptions struct {
	// Draft forces the dialect to compile against, overriding $schema entirely.
	Draft Draft

	// AllowUnknownDialect lets compilation proceed (using the compiler/package
	// default draft) when $schema names a URI the registry doesn't recognize,
	// instead of returning ErrUnknownDialect.
	AllowUnknownDialect bool
}

// Mode controls how much work the evaluator does once a node's validity is already
// decided.
type Mode int

const (
	// ModeCollectAll evaluates every keyword and subschema regardless of earlier
	// failures, building the full annotation/error tree. This is the default and
	// matches the historical, always-collect behavior.
	ModeCollectAll Mode = iota

	// ModeFailFast stops evaluating sibling keywords/subschemas as soon as a node is
	// known invalid, returning the first failure found along the traversal order.
	ModeFailFast

	// ModeAnnotationsOnly skips constructing EvaluationError messages once a node is
	// known invalid, still walking the tree far enough to collect annotations
	// (needed for unevaluatedProperties/unevaluatedItems) without the formatting
	// cost of full error messages. Useful when the caller will render only Flag
	// output.
	ModeAnnotationsOnly
)

// EvaluateOptions customizes a single Validate/EvaluateContext call.
type EvaluateOptions struct {
	Mode Mode

	// Localizer is not read by EvaluateContext, which uses only Mode; localized
	// output comes from ToLocalizeList, which takes its localizer as an argument.
	Localizer any
}

// evalConfig is the resolved, context-carrying state threaded through the
// recursive evaluate() walk via DynamicScope, keeping existing evaluator
// signatures (which all take *DynamicScope) unchanged.
type evalConfig struct {
	ctx  context.Context
	mode Mode
}
