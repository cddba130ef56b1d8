package jsonschema

import (
	"context"
	"fmt"
)

// Validate checks if the given instance conforms to the schema.
func (s *Schema) Validate(instance interface{}) *EvaluationResult {
	dynamicScope := NewDynamicScope()
	result, _, _ := s.evaluate(instance, dynamicScope)

	return result
}

// memoKey is the cache key for DynamicScope's per-run evaluation memo: a schema
// node's evaluation result only depends on the instance location reaching it and
// the active Mode (ModeFailFast/ModeAnnotationsOnly truncate what gets computed,
// so a result cached under one mode is not reusable under another). Nodes whose
// result also depends on dynamic scope ($dynamicRef/$recursiveRef) are never
// looked up or stored under this key — see evaluateAt.
type memoKey struct {
	locator InstanceLocator
	mode    Mode
}

type memoEntry struct {
	result         *EvaluationResult
	evaluatedProps map[string]bool
	evaluatedItems map[int]bool
}

// EvaluateContext behaves like Validate but accepts a context.Context (checked
// between subschema evaluations, so a cancelled or expired context stops a
// pathological schema early) and EvaluateOptions controlling short-circuiting.
// It returns ErrCancelled if the context was already done before evaluation
// completed.
func (s *Schema) EvaluateContext(ctx context.Context, instance interface{}, opts ...EvaluateOptions) (*EvaluationResult, error) {
	cfg := evalConfig{ctx: ctx, mode: ModeCollectAll}
	if len(opts) > 0 {
		cfg.mode = opts[0].Mode
	}

	dynamicScope := NewDynamicScope()
	dynamicScope.cfg = cfg

	result, _, _ := s.evaluate(instance, dynamicScope)

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return result, nil
}

// evaluate is the root entry point for a recursive walk: it evaluates s against
// instance at the document root ("").
func (s *Schema) evaluate(instance interface{}, dynamicScope *DynamicScope) (*EvaluationResult, map[string]bool, map[int]bool) {
	return s.evaluateAt(instance, dynamicScope, "")
}

// evaluateAt evaluates s against instance found at instancePath, walking s's
// compiled constraint graph (s.compiled()) in KeywordRegistry priority order
// instead of a hand-ordered chain of keyword checks. Results for a given
// (schema, instancePath, Mode) are memoized on dynamicScope so a schema node
// reachable by more than one path (a shared $defs entry, a $ref cycle closed by a
// static $ref) is evaluated once per distinct instance location.
//
// Nodes resolving $dynamicRef/$recursiveRef are excluded from the memo: their
// resolution depends on which $dynamicAnchor/$recursiveAnchor is outermost in the
// *current* dynamic scope, not just on (schema, instancePath), so the same node
// reached through two different enclosing anchors can legitimately resolve two
// different targets and must not share a cached result.
func (s *Schema) evaluateAt(instance interface{}, dynamicScope *DynamicScope, instancePath string) (*EvaluationResult, map[string]bool, map[int]bool) {
	if dynamicScope.cfg.ctx != nil && dynamicScope.cfg.ctx.Err() != nil {
		result := NewEvaluationResult(s)
		//nolint:errcheck
		result.AddError(NewEvaluationError("", "cancelled", "schema evaluation was cancelled"))
		return result, make(map[string]bool), make(map[int]bool)
	}

	memoizable := s.ResolvedDynamicRef == nil && s.ResolvedRecursiveRef == nil
	key := memoKey{locator: InstanceLocator{Schema: s, InstancePath: instancePath}, mode: dynamicScope.cfg.mode}
	if memoizable {
		if entry, ok := dynamicScope.memo[key]; ok {
			return entry.result, copyStringMap(entry.evaluatedProps), copyIntMap(entry.evaluatedItems)
		}
	}

	dynamicScope.Push(s)
	result := NewEvaluationResult(s)

	evaluatedProps := make(map[string]bool)
	evaluatedItems := make(map[int]bool)

	if s.Boolean != nil {
		// Check if the schema is a boolean
		if err := s.evaluateBoolean(instance, evaluatedProps, evaluatedItems); err != nil {
			//nolint:errcheck
			result.AddError(err)
		}
	} else {
		// Compile patterns for PatternProperties if not already compiled
		if s.PatternProperties != nil {
			s.compilePatterns()
		}

		for _, kc := range s.compiled().Constraints {
			// ModeFailFast: stop walking sibling keywords the instant this node is
			// known invalid, instead of collecting every failure.
			if dynamicScope.cfg.mode == ModeFailFast && !result.IsValid() {
				break
			}
			// ModeAnnotationsOnly: once invalid, skip keywords that only ever
			// produce pass/fail errors (no annotations), since their error message
			// would be discarded anyway. Annotating keywords still run — unevaluated*
			// depends on their evaluatedProps/evaluatedItems contributions.
			if dynamicScope.cfg.mode == ModeAnnotationsOnly && !kc.Annotating && !result.IsValid() {
				continue
			}

			kwResults, kwErrors := kc.Run(instance, instancePath, evaluatedProps, evaluatedItems, dynamicScope)
			for _, kwResult := range kwResults {
				//nolint:errcheck
				result.AddDetail(kwResult)
			}
			for _, kwError := range kwErrors {
				//nolint:errcheck
				result.AddError(kwError)
			}
		}
	}

	// Pop the schema from the dynamic scope
	dynamicScope.Pop()

	if memoizable {
		if dynamicScope.memo == nil {
			dynamicScope.memo = make(map[memoKey]memoEntry)
		}
		dynamicScope.memo[key] = memoEntry{
			result:         result,
			evaluatedProps: copyStringMap(evaluatedProps),
			evaluatedItems: copyIntMap(evaluatedItems),
		}
	}

	return result, evaluatedProps, evaluatedItems
}

func (s *Schema) evaluateBoolean(instance interface{}, evaluatedProps map[string]bool, evaluatedItems map[int]bool) *EvaluationError {
	if s.Boolean == nil {
		return nil
	}

	if *s.Boolean {
		switch v := instance.(type) {
		case map[string]interface{}:
			for key := range v {
				evaluatedProps[key] = true
			}
		case []interface{}:
			for index := range v {
				evaluatedItems[index] = true
			}
		}
		return nil // No error, validation passes as the schema is true
	} else {
		return NewEvaluationError("schema", "false_schema_mismatch", "No values are allowed because the schema is set to 'false'")
	}
}

// evaluateNumeric groups the validation of all numeric-specific keywords.
func evaluateNumeric(schema *Schema, data interface{}) []*EvaluationError {
	dataType := getDataType(data)

	if dataType != "number" && dataType != "integer" {
		// If data is not a number, then skip the numeric-specific validations.
		return nil
	}

	errors := []*EvaluationError{}

	value := NewRat(data)
	if value == nil {
		// If the type conversion fails, the data might not be a number.
		errors = append(errors, NewEvaluationError("type", "invalid_numberic", "Value is {received} but should be numeric", map[string]interface{}{
			"received": dataType,
		}))

		return errors
	}

	// Validation Keywords for Numeric Instances (number and integer)
	if schema.MultipleOf != nil {
		if err := evaluateMultipleOf(schema, value); err != nil {
			errors = append(errors, err)
		}
	}

	if schema.Maximum != nil {
		if err := evaluateMaximum(schema, value); err != nil {
			errors = append(errors, err)
		}
	}

	if schema.ExclusiveMaximum != nil {
		if err := evaluateExclusiveMaximum(schema, value); err != nil {
			errors = append(errors, err)
		}
	}

	if schema.Minimum != nil {
		if err := evaluateMinimum(schema, value); err != nil {
			errors = append(errors, err)
		}
	}

	if schema.ExclusiveMinimum != nil {
		if err := evaluateExclusiveMinimum(schema, value); err != nil {
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return errors
	}

	return nil
}

// evaluateString groups the validation of all string-specific keywords.
func evaluateString(schema *Schema, data interface{}) []*EvaluationError {
	value, ok := data.(string)
	if !ok {
		// If data is not a string, then skip the string-specific validations.
		return nil
	}

	errors := []*EvaluationError{}

	// Validation Keywords for Strings
	if schema.MaxLength != nil {
		if err := evaluateMaxLength(schema, value); err != nil {
			errors = append(errors, err)
		}
	}

	if schema.MinLength != nil {
		if err := evaluateMinLength(schema, value); err != nil {
			errors = append(errors, err)
		}
	}

	if schema.Pattern != nil {
		if err := evaluatePattern(schema, value); err != nil {
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return errors
	}

	return nil
}

// DynamicScope struct defines a stack specifically for handling Schema types
type DynamicScope struct {
	schemas []*Schema // Slice storing pointers to Schema
	cfg     evalConfig
	memo    map[memoKey]memoEntry // per-run cache, keyed by (schema, instance path, Mode)
}

// NewDynamicScope creates and returns a new empty DynamicScope
func NewDynamicScope() *DynamicScope {
	return &DynamicScope{schemas: make([]*Schema, 0), cfg: evalConfig{ctx: context.Background(), mode: ModeCollectAll}}
}

// Push adds a Schema to the dynamic scope
func (ds *DynamicScope) Push(schema *Schema) {
	ds.schemas = append(ds.schemas, schema)
}

// Pop removes and returns the top Schema from the dynamic scope
func (ds *DynamicScope) Pop() *Schema {
	if len(ds.schemas) == 0 {
		return nil // Or handle the error
	}
	lastIndex := len(ds.schemas) - 1
	schema := ds.schemas[lastIndex]
	ds.schemas = ds.schemas[:lastIndex]
	return schema
}

// Peek returns the top Schema without removing it
func (ds *DynamicScope) Peek() *Schema {
	if len(ds.schemas) == 0 {
		return nil // Or handle the error
	}
	return ds.schemas[len(ds.schemas)-1]
}

// IsEmpty checks if the dynamic scope is empty
func (ds *DynamicScope) IsEmpty() bool {
	return len(ds.schemas) == 0
}

// Size returns the number of Schemas in the dynamic scope
func (ds *DynamicScope) Size() int {
	return len(ds.schemas)
}

// LookupDynamicAnchor searches for a dynamic anchor in the dynamic scope
func (ds *DynamicScope) LookupDynamicAnchor(anchor string) *Schema {
	// use the first schema dynamic anchor matching the anchor
	for i := 0; i < len(ds.schemas); i++ {
		schema := ds.schemas[i]

		if schema.dynamicAnchors != nil && schema.dynamicAnchors[anchor] != nil {
			return schema.dynamicAnchors[anchor]
		}
	}

	return nil
}

// LookupRecursiveAnchor walks the dynamic scope outermost-first and returns the
// first schema marked $recursiveAnchor: true, per the Draft 2019-09 $recursiveRef
// resolution algorithm.
func (ds *DynamicScope) LookupRecursiveAnchor() *Schema {
	for i := 0; i < len(ds.schemas); i++ {
		schema := ds.schemas[i]
		if schema.RecursiveAnchor != nil && *schema.RecursiveAnchor {
			return schema
		}
	}

	return nil
}
