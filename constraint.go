package jsonschema

import "sort"

// InstanceLocator identifies one point an evaluation can reach: a compiled schema
// node paired with the instance-location prefix leading to it. It is the
// memoization key the constraint graph is evaluated under, so that a schema node
// reachable by more than one path (a shared $defs entry fanned in through allOf, a
// $ref cycle closed by a dynamic/recursive anchor) is evaluated once per distinct
// instance location instead of once per path that reaches it.
type InstanceLocator struct {
	Schema       *Schema
	InstancePath string
}

// KeywordConstraint is one compiled, priority-ordered step of a SchemaConstraint's
// evaluation plan. Building the plan once up front (instead of re-deciding "which
// keywords apply" on every call) is what lets evaluation walk keywords in
// KeywordRegistry priority order and honor short-circuit Mode uniformly, rather
// than through a hand-ordered chain of "if schema.X != nil" branches.
type KeywordConstraint struct {
	Keyword    string
	Priority   int
	Annotating bool // contributes evaluatedProps/evaluatedItems, not just pass/fail
	Run        func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError)
}

// SchemaConstraint is a Schema compiled once into its priority-ordered evaluation
// plan. It replaces validate.go's old flat chain of inline keyword checks: the
// plan is built from the same per-keyword evaluators, but the set of active
// keywords and their run order are decided once, at compile time, from the
// KeywordRegistry and the fields actually present on the schema.
type SchemaConstraint struct {
	Constraints []*KeywordConstraint
}

// compiled lazily builds and caches this schema's constraint graph. The graph is
// immutable once built and is shared by every evaluation of this schema node
// regardless of instance location, since it depends only on the schema itself.
func (s *Schema) compiled() *SchemaConstraint {
	s.constraintOnce.Do(func() {
		s.constraintGraph = buildSchemaConstraint(s)
	})
	return s.constraintGraph
}

func registryPriority(keyword string, fallback int) int {
	if meta, ok := defaultKeywordRegistry.Lookup(keyword); ok {
		return meta.Priority
	}
	return fallback
}

// buildSchemaConstraint inspects which keywords are present on s and binds each to
// the keyword-group evaluator that implements it, in KeywordRegistry priority
// order. Keywords absent from the schema contribute no constraint at all, so
// evaluation never visits a branch that couldn't possibly apply.
func buildSchemaConstraint(s *Schema) *SchemaConstraint {
	var constraints []*KeywordConstraint
	add := func(k *KeywordConstraint) { constraints = append(constraints, k) }

	if s.ResolvedRef != nil {
		add(&KeywordConstraint{Keyword: "$ref", Priority: registryPriority("$ref", 0), Annotating: true,
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				refResult, props, items := s.ResolvedRef.evaluateAt(instance, dynamicScope, instancePath)
				mergeStringMaps(evaluatedProps, props)
				mergeIntMaps(evaluatedItems, items)
				if refResult == nil {
					return nil, nil
				}
				if !refResult.IsValid() {
					return []*EvaluationResult{refResult}, []*EvaluationError{
						NewEvaluationError("$ref", "ref_mismatch", "Value does not match the reference schema"),
					}
				}
				return []*EvaluationResult{refResult}, nil
			}})
	}

	if s.ResolvedDynamicRef != nil {
		add(&KeywordConstraint{Keyword: "$dynamicRef", Priority: registryPriority("$dynamicRef", 0), Annotating: true,
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				anchorSchema := s.ResolvedDynamicRef
				_, anchor := splitRef(s.DynamicRef)
				if !isJSONPointer(anchor) {
					if dynamicAnchor := s.ResolvedDynamicRef.DynamicAnchor; dynamicAnchor != "" {
						if schema := dynamicScope.LookupDynamicAnchor(dynamicAnchor); schema != nil {
							anchorSchema = schema
						}
					}
				}
				dynamicRefResult, props, items := anchorSchema.evaluateAt(instance, dynamicScope, instancePath)
				mergeStringMaps(evaluatedProps, props)
				mergeIntMaps(evaluatedItems, items)
				if dynamicRefResult == nil {
					return nil, nil
				}
				if !dynamicRefResult.IsValid() {
					return []*EvaluationResult{dynamicRefResult}, []*EvaluationError{
						NewEvaluationError("$dynamicRef", "dynamic_ref_mismatch", "Value does not match the dynamic reference schema"),
					}
				}
				return []*EvaluationResult{dynamicRefResult}, nil
			}})
	}

	if s.ResolvedRecursiveRef != nil {
		add(&KeywordConstraint{Keyword: "$recursiveRef", Priority: registryPriority("$recursiveRef", 0), Annotating: true,
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				target := s.ResolvedRecursiveRef
				if target.RecursiveAnchor != nil && *target.RecursiveAnchor {
					if outer := dynamicScope.LookupRecursiveAnchor(); outer != nil {
						target = outer
					}
				}
				recursiveRefResult, props, items := target.evaluateAt(instance, dynamicScope, instancePath)
				mergeStringMaps(evaluatedProps, props)
				mergeIntMaps(evaluatedItems, items)
				if recursiveRefResult == nil {
					return nil, nil
				}
				if !recursiveRefResult.IsValid() {
					return []*EvaluationResult{recursiveRefResult}, []*EvaluationError{
						NewEvaluationError("$recursiveRef", "recursive_ref_mismatch", "Value does not match the recursive reference schema"),
					}
				}
				return []*EvaluationResult{recursiveRefResult}, nil
			}})
	}

	if s.Type != nil {
		add(singleErrorConstraint("type", func(instance interface{}) *EvaluationError { return evaluateType(s, instance) }))
	}
	if s.Enum != nil {
		add(singleErrorConstraint("enum", func(instance interface{}) *EvaluationError { return evaluateEnum(s, instance) }))
	}
	if s.Const != nil {
		add(singleErrorConstraint("const", func(instance interface{}) *EvaluationError { return evaluateConst(s, instance) }))
	}

	if s.AllOf != nil {
		add(&KeywordConstraint{Keyword: "allOf", Priority: registryPriority("allOf", 10), Annotating: true,
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				results, err := evaluateAllOf(s, instance, instancePath, evaluatedProps, evaluatedItems, dynamicScope)
				return results, errSlice(err)
			}})
	}
	if s.AnyOf != nil {
		add(&KeywordConstraint{Keyword: "anyOf", Priority: registryPriority("anyOf", 10), Annotating: true,
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				results, err := evaluateAnyOf(s, instance, instancePath, evaluatedProps, evaluatedItems, dynamicScope)
				return results, errSlice(err)
			}})
	}
	if s.OneOf != nil {
		add(&KeywordConstraint{Keyword: "oneOf", Priority: registryPriority("oneOf", 10), Annotating: true,
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				results, err := evaluateOneOf(s, instance, instancePath, evaluatedProps, evaluatedItems, dynamicScope)
				return results, errSlice(err)
			}})
	}
	if s.Not != nil {
		add(&KeywordConstraint{Keyword: "not", Priority: registryPriority("not", 10),
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				result, err := evaluateNot(s, instance, instancePath, evaluatedProps, evaluatedItems, dynamicScope)
				return resultSlice(result), errSlice(err)
			}})
	}
	if s.If != nil || s.Then != nil || s.Else != nil {
		add(&KeywordConstraint{Keyword: "if", Priority: registryPriority("if", 5), Annotating: true,
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				results, err := evaluateConditional(s, instance, instancePath, evaluatedProps, evaluatedItems, dynamicScope)
				return results, errSlice(err)
			}})
	}

	if s.Properties != nil {
		add(&KeywordConstraint{Keyword: "properties", Priority: registryPriority("properties", 20), Annotating: true,
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				object, ok := instance.(map[string]interface{})
				if !ok {
					return nil, nil
				}
				results, err := evaluateProperties(s, object, instancePath, evaluatedProps, evaluatedItems, dynamicScope)
				return results, errSlice(err)
			}})
	}
	if s.PatternProperties != nil {
		add(&KeywordConstraint{Keyword: "patternProperties", Priority: registryPriority("patternProperties", 20), Annotating: true,
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				object, ok := instance.(map[string]interface{})
				if !ok {
					return nil, nil
				}
				results, err := evaluatePatternProperties(s, object, instancePath, evaluatedProps, evaluatedItems, dynamicScope)
				return results, errSlice(err)
			}})
	}
	if s.AdditionalProperties != nil {
		add(&KeywordConstraint{Keyword: "additionalProperties", Priority: registryPriority("additionalProperties", 25), Annotating: true,
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				object, ok := instance.(map[string]interface{})
				if !ok {
					return nil, nil
				}
				results, err := evaluateAdditionalProperties(s, object, instancePath, evaluatedProps, evaluatedItems, dynamicScope)
				return results, errSlice(err)
			}})
	}
	if s.PropertyNames != nil {
		add(&KeywordConstraint{Keyword: "propertyNames", Priority: registryPriority("propertyNames", 20),
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				object, ok := instance.(map[string]interface{})
				if !ok {
					return nil, nil
				}
				results, err := evaluatePropertyNames(s, object, instancePath, evaluatedProps, evaluatedItems, dynamicScope)
				return results, errSlice(err)
			}})
	}

	if s.MaxProperties != nil || s.MinProperties != nil || len(s.Required) > 0 || len(s.DependentRequired) > 0 {
		add(&KeywordConstraint{Keyword: "object-validation", Priority: 1,
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				object, ok := instance.(map[string]interface{})
				if !ok {
					return nil, nil
				}
				var errs []*EvaluationError
				if s.MaxProperties != nil {
					if err := evaluateMaxProperties(s, object); err != nil {
						errs = append(errs, err)
					}
				}
				if s.MinProperties != nil {
					if err := evaluateMinProperties(s, object); err != nil {
						errs = append(errs, err)
					}
				}
				if len(s.Required) > 0 {
					if err := evaluateRequired(s, object); err != nil {
						errs = append(errs, err)
					}
				}
				if len(s.DependentRequired) > 0 {
					if err := evaluateDependentRequired(s, object); err != nil {
						errs = append(errs, err)
					}
				}
				return nil, errs
			}})
	}

	if len(s.PrefixItems) > 0 {
		add(&KeywordConstraint{Keyword: "prefixItems", Priority: registryPriority("prefixItems", 20), Annotating: true,
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				array, ok := instance.([]interface{})
				if !ok {
					return nil, nil
				}
				results, err := evaluatePrefixItems(s, array, instancePath, evaluatedProps, evaluatedItems, dynamicScope)
				return results, errSlice(err)
			}})
	}
	if s.Items != nil {
		add(&KeywordConstraint{Keyword: "items", Priority: registryPriority("items", 21), Annotating: true,
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				array, ok := instance.([]interface{})
				if !ok {
					return nil, nil
				}
				results, err := evaluateItems(s, array, instancePath, evaluatedProps, evaluatedItems, dynamicScope)
				return results, errSlice(err)
			}})
	}
	if s.Contains != nil || (s.MaxContains != nil && s.MinContains != nil) {
		add(&KeywordConstraint{Keyword: "contains", Priority: registryPriority("contains", 22), Annotating: true,
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				array, ok := instance.([]interface{})
				if !ok {
					return nil, nil
				}
				results, err := evaluateContains(s, array, instancePath, evaluatedProps, evaluatedItems, dynamicScope)
				return results, errSlice(err)
			}})
	}
	if s.MaxItems != nil || s.MinItems != nil || s.UniqueItems != nil {
		add(&KeywordConstraint{Keyword: "array-validation", Priority: 1,
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				array, ok := instance.([]interface{})
				if !ok {
					return nil, nil
				}
				var errs []*EvaluationError
				if s.MaxItems != nil {
					if err := evaluateMaxItems(s, array); err != nil {
						errs = append(errs, err)
					}
				}
				if s.MinItems != nil {
					if err := evaluateMinItems(s, array); err != nil {
						errs = append(errs, err)
					}
				}
				if s.UniqueItems != nil && *s.UniqueItems {
					if err := evaluateUniqueItems(s, array); err != nil {
						errs = append(errs, err)
					}
				}
				return nil, errs
			}})
	}

	if s.MultipleOf != nil || s.Maximum != nil || s.ExclusiveMaximum != nil || s.Minimum != nil || s.ExclusiveMinimum != nil {
		add(&KeywordConstraint{Keyword: "number", Priority: 1,
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				return nil, evaluateNumeric(s, instance)
			}})
	}
	if s.MaxLength != nil || s.MinLength != nil || s.Pattern != nil {
		add(&KeywordConstraint{Keyword: "string", Priority: 1,
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				return nil, evaluateString(s, instance)
			}})
	}
	if s.Format != nil {
		add(singleErrorConstraint("format", func(instance interface{}) *EvaluationError { return evaluateFormat(s, instance) }))
	}

	if s.DependentSchemas != nil {
		add(&KeywordConstraint{Keyword: "dependentSchemas", Priority: registryPriority("dependentSchemas", 20), Annotating: true,
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				results, err := evaluateDependentSchemas(s, instance, instancePath, evaluatedProps, evaluatedItems, dynamicScope)
				return results, errSlice(err)
			}})
	}
	if s.UnevaluatedProperties != nil {
		add(&KeywordConstraint{Keyword: "unevaluatedProperties", Priority: registryPriority("unevaluatedProperties", 90), Annotating: true,
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				results, err := evaluateUnevaluatedProperties(s, instance, instancePath, evaluatedProps, evaluatedItems, dynamicScope)
				return results, errSlice(err)
			}})
	}
	if s.UnevaluatedItems != nil {
		add(&KeywordConstraint{Keyword: "unevaluatedItems", Priority: registryPriority("unevaluatedItems", 90), Annotating: true,
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				results, err := evaluateUnevaluatedItems(s, instance, instancePath, evaluatedProps, evaluatedItems, dynamicScope)
				return results, errSlice(err)
			}})
	}
	if s.ContentEncoding != nil || s.ContentMediaType != nil || s.ContentSchema != nil {
		add(&KeywordConstraint{Keyword: "content", Priority: registryPriority("contentSchema", 61),
			Run: func(instance interface{}, instancePath string, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
				result, err := evaluateContent(s, instance, instancePath, evaluatedProps, evaluatedItems, dynamicScope)
				return resultSlice(result), errSlice(err)
			}})
	}

	sort.SliceStable(constraints, func(i, j int) bool { return constraints[i].Priority < constraints[j].Priority })

	return &SchemaConstraint{Constraints: constraints}
}

func singleErrorConstraint(keyword string, fn func(instance interface{}) *EvaluationError) *KeywordConstraint {
	return &KeywordConstraint{
		Keyword:  keyword,
		Priority: registryPriority(keyword, 1),
		Run: func(instance interface{}, _ string, _ map[string]bool, _ map[int]bool, _ *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
			if err := fn(instance); err != nil {
				return nil, []*EvaluationError{err}
			}
			return nil, nil
		},
	}
}

func errSlice(err *EvaluationError) []*EvaluationError {
	if err == nil {
		return nil
	}
	return []*EvaluationError{err}
}

func resultSlice(result *EvaluationResult) []*EvaluationResult {
	if result == nil {
		return nil
	}
	return []*EvaluationResult{result}
}
