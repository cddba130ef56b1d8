package jsonschema

import "strings"

// Draft identifies a JSON Schema specification version. The evaluator gates which
// keyword forms are legal per draft; it never changes how a keyword is evaluated
// once accepted.
type Draft string

const (
	Draft6        Draft = "draft6"
	Draft7        Draft = "draft7"
	Draft2019     Draft = "2019-09"
	Draft2020     Draft = "2020-12"
	DraftNext     Draft = "draft-next"
	DraftUnknown  Draft = ""
	defaultDraft        = Draft2020
)

func (d Draft) String() string {
	if d == DraftUnknown {
		return "unknown draft"
	}
	return string(d)
}

// schemaIDToDraft maps the well-known $schema URIs to a Draft. Prefixes are matched
// rather than exact strings so that hash fragments or trailing slashes don't matter.
var schemaIDToDraft = []struct {
	prefix string
	draft  Draft
}{
	{"https://json-schema.org/draft/2020-12/schema", Draft2020},
	{"http://json-schema.org/draft/2020-12/schema", Draft2020},
	{"https://json-schema.org/draft/2019-09/schema", Draft2019},
	{"http://json-schema.org/draft/2019-09/schema", Draft2019},
	{"http://json-schema.org/draft-07/schema", Draft7},
	{"https://json-schema.org/draft-07/schema", Draft7},
	{"http://json-schema.org/draft-06/schema", Draft6},
	{"https://json-schema.org/draft-06/schema", Draft6},
}

// detectDraft resolves the effective dialect for a compile, following the
// precedence explicit-option > $schema > compiler default > package default.
func detectDraft(schemaKeyword string, opts *CompileOptions, compilerDefault Draft) (Draft, error) {
	if opts != nil && opts.Draft != DraftUnknown {
		return opts.Draft, nil
	}

	if schemaKeyword != "" {
		trimmed := strings.TrimSuffix(schemaKeyword, "#")
		for _, candidate := range schemaIDToDraft {
			if strings.HasPrefix(trimmed, candidate.prefix) {
				return candidate.draft, nil
			}
		}
		if opts != nil && opts.AllowUnknownDialect {
			return compilerDefaultOrPackageDefault(compilerDefault), nil
		}
		return DraftUnknown, ErrUnknownDialect
	}

	return compilerDefaultOrPackageDefault(compilerDefault), nil
}

func compilerDefaultOrPackageDefault(compilerDefault Draft) Draft {
	if compilerDefault != DraftUnknown {
		return compilerDefault
	}
	return defaultDraft
}

// checkDraftCompatibility walks the schema tree and rejects keyword forms that are
// syntactically valid JSON but not legal under the resolved dialect. It also stamps
// every reachable node with the resolved Draft, so evaluation-time code (the
// constraint graph, the registry-driven keyword walk) never has to re-derive it.
func checkDraftCompatibility(root *Schema, draft Draft) error {
	visited := make(map[*Schema]bool)
	return walkSchemaTree(root, "#", visited, func(s *Schema, location string) error {
		s.Draft = draft

		if s.itemsWasArrayForm && (draft == Draft2020 || draft == DraftNext) {
			return &DraftIncompatibleError{
				Keyword:        "items",
				Draft:          draft,
				SchemaLocation: location,
				Reason:         "the array (tuple) form of \"items\" was removed in 2020-12; use \"prefixItems\" instead",
			}
		}

		if (s.RecursiveRef != "" || (s.RecursiveAnchor != nil && *s.RecursiveAnchor)) &&
			(s.DynamicRef != "" || s.DynamicAnchor != "") {
			return ErrMixedDynamicKeywords
		}

		for _, keyword := range s.activeKeywords() {
			meta, ok := defaultKeywordRegistry.Lookup(keyword)
			if !ok {
				continue // unregistered keyword (custom extension); nothing to gate
			}
			if !meta.SupportsDraft(draft) {
				return &DraftIncompatibleError{
					Keyword:        keyword,
					Draft:          draft,
					SchemaLocation: location,
					Reason:         "\"" + keyword + "\" is not part of the " + draft.String() + " vocabulary set",
				}
			}
		}

		return nil
	})
}

// activeKeywords lists the keywords actually present on this schema node, for the
// registry-driven draft-compatibility pass (checkDraftCompatibility). Presence
// mirrors the nil/zero checks evaluate() used to perform inline one by one.
func (s *Schema) activeKeywords() []string {
	var keywords []string
	add := func(present bool, name string) {
		if present {
			keywords = append(keywords, name)
		}
	}

	add(s.Ref != "", "$ref")
	add(s.DynamicRef != "", "$dynamicRef")
	add(s.DynamicAnchor != "", "$dynamicAnchor")
	add(s.RecursiveRef != "", "$recursiveRef")
	add(s.RecursiveAnchor != nil, "$recursiveAnchor")
	add(s.Anchor != "", "$anchor")
	add(len(s.Defs) > 0, "$defs")
	add(s.Type != nil, "type")
	add(s.Enum != nil, "enum")
	add(s.Const != nil, "const")
	add(s.MultipleOf != nil, "multipleOf")
	add(s.Maximum != nil, "maximum")
	add(s.ExclusiveMaximum != nil, "exclusiveMaximum")
	add(s.Minimum != nil, "minimum")
	add(s.ExclusiveMinimum != nil, "exclusiveMinimum")
	add(s.MaxLength != nil, "maxLength")
	add(s.MinLength != nil, "minLength")
	add(s.Pattern != nil, "pattern")
	add(s.MaxItems != nil, "maxItems")
	add(s.MinItems != nil, "minItems")
	add(s.UniqueItems != nil, "uniqueItems")
	add(s.MaxContains != nil, "maxContains")
	add(s.MinContains != nil, "minContains")
	add(s.MaxProperties != nil, "maxProperties")
	add(s.MinProperties != nil, "minProperties")
	add(len(s.Required) > 0, "required")
	add(len(s.DependentRequired) > 0, "dependentRequired")
	add(len(s.AllOf) > 0, "allOf")
	add(len(s.AnyOf) > 0, "anyOf")
	add(len(s.OneOf) > 0, "oneOf")
	add(s.Not != nil, "not")
	add(s.If != nil, "if")
	add(s.Then != nil, "then")
	add(s.Else != nil, "else")
	add(len(s.DependentSchemas) > 0, "dependentSchemas")
	// The array form of "items" is parsed into PrefixItems; report it as "items".
	add(len(s.PrefixItems) > 0 && !s.itemsWasArrayForm, "prefixItems")
	add(s.Items != nil || s.itemsWasArrayForm, "items")
	add(s.Contains != nil, "contains")
	add(s.Properties != nil, "properties")
	add(s.PatternProperties != nil, "patternProperties")
	add(s.AdditionalProperties != nil, "additionalProperties")
	add(s.PropertyNames != nil, "propertyNames")
	add(s.UnevaluatedItems != nil, "unevaluatedItems")
	add(s.UnevaluatedProperties != nil, "unevaluatedProperties")
	add(s.Format != nil, "format")
	add(s.ContentEncoding != nil, "contentEncoding")
	add(s.ContentMediaType != nil, "contentMediaType")
	add(s.ContentSchema != nil, "contentSchema")
	add(s.Deprecated != nil, "deprecated")
	add(s.ReadOnly != nil, "readOnly")
	add(s.WriteOnly != nil, "writeOnly")
	add(len(s.Examples) > 0, "examples")

	return keywords
}

// walkSchemaTree visits every subschema reachable from root exactly once, calling
// visit with the subschema and its evaluation-path-style location string.
func walkSchemaTree(s *Schema, location string, visited map[*Schema]bool, visit func(*Schema, string) error) error {
	if s == nil || visited[s] {
		return nil
	}
	visited[s] = true

	if err := visit(s, location); err != nil {
		return err
	}

	step := func(child *Schema, token string) error {
		return walkSchemaTree(child, location+"/"+token, visited, visit)
	}
	stepMap := func(m map[string]*Schema, prefix string) error {
		for key, child := range m {
			if err := step(child, prefix+"/"+key); err != nil {
				return err
			}
		}
		return nil
	}
	stepSlice := func(children []*Schema, prefix string) error {
		for i, child := range children {
			if err := step(child, prefix+"/"+itoa(i)); err != nil {
				return err
			}
		}
		return nil
	}

	if err := stepMap(s.Defs, "$defs"); err != nil {
		return err
	}
	if s.Properties != nil {
		if err := stepMap(*s.Properties, "properties"); err != nil {
			return err
		}
	}
	if s.PatternProperties != nil {
		if err := stepMap(*s.PatternProperties, "patternProperties"); err != nil {
			return err
		}
	}
	if err := stepMap(s.DependentSchemas, "dependentSchemas"); err != nil {
		return err
	}
	if err := stepSlice(s.AllOf, "allOf"); err != nil {
		return err
	}
	if err := stepSlice(s.AnyOf, "anyOf"); err != nil {
		return err
	}
	if err := stepSlice(s.OneOf, "oneOf"); err != nil {
		return err
	}
	if err := stepSlice(s.PrefixItems, "prefixItems"); err != nil {
		return err
	}
	if err := step(s.Not, "not"); err != nil {
		return err
	}
	if err := step(s.If, "if"); err != nil {
		return err
	}
	if err := step(s.Then, "then"); err != nil {
		return err
	}
	if err := step(s.Else, "else"); err != nil {
		return err
	}
	if err := step(s.Items, "items"); err != nil {
		return err
	}
	if err := step(s.Contains, "contains"); err != nil {
		return err
	}
	if err := step(s.AdditionalProperties, "additionalProperties"); err != nil {
		return err
	}
	if err := step(s.PropertyNames, "propertyNames"); err != nil {
		return err
	}
	if err := step(s.UnevaluatedItems, "unevaluatedItems"); err != nil {
		return err
	}
	if err := step(s.UnevaluatedProperties, "unevaluatedProperties"); err != nil {
		return err
	}
	return step(s.ContentSchema, "contentSchema")
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// KeywordMeta describes where a keyword belongs in the vocabulary/draft model.
type KeywordMeta struct {
	Drafts     []Draft // drafts the keyword is legal under; empty means "all"
	Vocabulary string  // e.g. "applicator", "validation", "core", "format", "content", "unevaluated", "meta-data"
	Priority   int      // ascending evaluation order; lower runs first
}

// KeywordRegistry is an explicit, inspectable table of keyword metadata, used by the
// dialect gate and by anything that needs to enumerate keywords in priority order.
// The constraint graph (registryPriority in constraint.go) takes each keyword's
// evaluation order from this table, and checkDraftCompatibility takes each
// keyword's legal drafts from it.
type KeywordRegistry struct {
	keywords map[string]KeywordMeta
}

// DefaultRegistry returns the keyword table for the full 2020-12 vocabulary set plus
// the Draft 2019-09 recursive-reference pair and the Draft 6/7 "definitions" alias.
func DefaultRegistry() *KeywordRegistry {
	r := &KeywordRegistry{keywords: make(map[string]KeywordMeta)}

	add := func(name, vocab string, priority int, drafts ...Draft) {
		r.keywords[name] = KeywordMeta{Drafts: drafts, Vocabulary: vocab, Priority: priority}
	}

	all := []Draft{Draft6, Draft7, Draft2019, Draft2020, DraftNext}

	// Core
	add("$id", "core", -100, all...)
	add("$schema", "core", -100, all...)
	add("$ref", "core", 0, all...)
	add("$defs", "core", -100, all...)
	add("definitions", "core", -100, Draft6, Draft7)
	add("$dynamicRef", "core", 0, Draft2020, DraftNext)
	add("$dynamicAnchor", "core", -100, Draft2020, DraftNext)
	add("$recursiveRef", "core", 0, Draft2019)
	add("$recursiveAnchor", "core", -100, Draft2019)
	add("$anchor", "core", -100, Draft2019, Draft2020, DraftNext)

	// Applicator
	add("allOf", "applicator", 10, all...)
	add("anyOf", "applicator", 10, all...)
	add("oneOf", "applicator", 10, all...)
	add("not", "applicator", 10, all...)
	add("if", "applicator", 5, all...)
	add("then", "applicator", 6, all...)
	add("else", "applicator", 6, all...)
	add("dependentSchemas", "applicator", 20, Draft2019, Draft2020, DraftNext)
	add("prefixItems", "applicator", 20, Draft2020, DraftNext)
	add("items", "applicator", 21, all...)
	add("contains", "applicator", 22, Draft6, Draft7, Draft2019, Draft2020, DraftNext)
	add("properties", "applicator", 20, all...)
	add("patternProperties", "applicator", 20, all...)
	add("additionalProperties", "applicator", 25, all...)
	add("propertyNames", "applicator", 20, Draft6, Draft7, Draft2019, Draft2020, DraftNext)
	add("unevaluatedItems", "unevaluated", 90, Draft2019, Draft2020, DraftNext)
	add("unevaluatedProperties", "unevaluated", 90, Draft2019, Draft2020, DraftNext)

	// Validation
	add("type", "validation", 1, all...)
	add("enum", "validation", 1, all...)
	add("const", "validation", 1, Draft6, Draft7, Draft2019, Draft2020, DraftNext)
	add("multipleOf", "validation", 1, all...)
	add("maximum", "validation", 1, all...)
	add("exclusiveMaximum", "validation", 1, all...)
	add("minimum", "validation", 1, all...)
	add("exclusiveMinimum", "validation", 1, all...)
	add("maxLength", "validation", 1, all...)
	add("minLength", "validation", 1, all...)
	add("pattern", "validation", 1, all...)
	add("maxItems", "validation", 1, all...)
	add("minItems", "validation", 1, all...)
	add("uniqueItems", "validation", 1, all...)
	add("maxContains", "validation", 1, Draft2019, Draft2020, DraftNext)
	add("minContains", "validation", 1, Draft2019, Draft2020, DraftNext)
	add("maxProperties", "validation", 1, all...)
	add("minProperties", "validation", 1, all...)
	add("required", "validation", 1, all...)
	add("dependentRequired", "validation", 1, Draft2019, Draft2020, DraftNext)

	// Format
	add("format", "format", 50, all...)

	// Content
	add("contentEncoding", "content", 60, Draft7, Draft2019, Draft2020, DraftNext)
	add("contentMediaType", "content", 60, Draft7, Draft2019, Draft2020, DraftNext)
	add("contentSchema", "content", 61, Draft2019, Draft2020, DraftNext)

	// Meta-data (annotation only, never affects validity)
	add("title", "meta-data", 1, all...)
	add("description", "meta-data", 1, all...)
	add("default", "meta-data", 1, all...)
	add("deprecated", "meta-data", 1, Draft2019, Draft2020, DraftNext)
	add("readOnly", "meta-data", 1, Draft7, Draft2019, Draft2020, DraftNext)
	add("writeOnly", "meta-data", 1, Draft7, Draft2019, Draft2020, DraftNext)
	add("examples", "meta-data", 1, Draft6, Draft7, Draft2019, Draft2020, DraftNext)

	return r
}

// Lookup returns the metadata for a keyword, if known.
func (r *KeywordRegistry) Lookup(keyword string) (KeywordMeta, bool) {
	m, ok := r.keywords[keyword]
	return m, ok
}

// SupportsDraft reports whether a keyword is legal under the given draft. Keywords
// with no Drafts restriction are legal under every draft.
func (m KeywordMeta) SupportsDraft(d Draft) bool {
	if len(m.Drafts) == 0 {
		return true
	}
	for _, candidate := range m.Drafts {
		if candidate == d {
			return true
		}
	}
	return false
}

var defaultKeywordRegistry = DefaultRegistry()
