package jsonschema

import (
	"errors"
	"fmt"
)

// === Network and IO Related Errors ===
var (
	// ErrNoLoaderRegistered is returned when no loader is registered for the specified scheme.
	ErrNoLoaderRegistered = errors.New("no loader registered for scheme")

	// ErrDataRead is returned when data cannot be read from the specified URL.
	ErrDataRead = errors.New("data read failed")

	// ErrNetworkFetch is returned when there is an error fetching from the URL.
	ErrNetworkFetch = errors.New("network fetch failed")

	// ErrInvalidStatusCode is returned when an invalid HTTP status code is returned.
	ErrInvalidStatusCode = errors.New("invalid http status code")
)

// === Serialization Related Errors ===
var (
	// ErrJSONUnmarshal is returned when there is an error unmarshalling JSON.
	ErrJSONUnmarshal = errors.New("json unmarshal failed")

	// ErrXMLUnmarshal is returned when there is an error unmarshalling XML.
	ErrXMLUnmarshal = errors.New("xml unmarshal failed")

	// ErrYAMLUnmarshal is returned when there is an error unmarshalling YAML.
	ErrYAMLUnmarshal = errors.New("yaml unmarshal failed")
)

// === Schema Compilation and Parsing Related Errors ===
var (
	// ErrSchemaCompilation is returned when a schema compilation fails.
	ErrSchemaCompilation = errors.New("schema compilation failed")

	// ErrReferenceResolution is returned when a reference cannot be resolved.
	ErrReferenceResolution = errors.New("reference resolution failed")

	// ErrGlobalReferenceResolution is returned when a global reference cannot be resolved.
	ErrGlobalReferenceResolution = errors.New("global reference resolution failed")

	// ErrJSONPointerSegmentDecode is returned when a segment cannot be decoded.
	ErrJSONPointerSegmentDecode = errors.New("json pointer segment decode failed")

	// ErrJSONPointerSegmentNotFound is returned when a segment is not found in the schema context.
	ErrJSONPointerSegmentNotFound = errors.New("json pointer segment not found")

	// ErrInvalidJSONSchemaType is returned when the JSON schema type is invalid.
	ErrInvalidJSONSchemaType = errors.New("invalid schema type")

	// ErrRegexValidation is the root error wrapped by every RegexPatternError joined
	// from Schema.validateRegexSyntax.
	ErrRegexValidation = errors.New("schema contains invalid regular expressions")

	// ErrMixedDynamicKeywords is returned at compile time when a schema tree mixes
	// $recursiveRef/$recursiveAnchor (Draft 2019-09) with $dynamicRef/$dynamicAnchor
	// (2020-12+). The two mechanisms resolve dynamic scope differently and are not
	// meant to coexist in one schema tree.
	ErrMixedDynamicKeywords = errors.New("schema mixes $recursiveRef/$recursiveAnchor with $dynamicRef/$dynamicAnchor")

	// ErrUnknownDialect is returned when $schema names a draft the registry does not
	// recognize and CompileOptions.AllowUnknownDialect is false.
	ErrUnknownDialect = errors.New("unrecognized $schema dialect")
)

// === Numeric and Format Related Errors ===
var (
	// ErrNilConstValue is returned when trying to unmarshal into a nil ConstValue.
	ErrNilConstValue = errors.New("cannot unmarshal into nil ConstValue")

	// ErrUnsupportedTypeForRat is returned when a value cannot be represented as a Rat.
	ErrUnsupportedTypeForRat = errors.New("unsupported type for rat conversion")

	// ErrFailedToConvertToRat is returned when converting a value to *big.Rat fails.
	ErrFailedToConvertToRat = errors.New("failed to convert value to rat")

	// ErrIPv6AddressNotEnclosed is returned when an IPv6 host in a URI is not bracket-enclosed.
	ErrIPv6AddressNotEnclosed = errors.New("ipv6 address must be enclosed in brackets")

	// ErrInvalidIPv6Address is returned when an IPv6 address fails to parse.
	ErrInvalidIPv6Address = errors.New("invalid ipv6 address")
)

// RegexPatternError reports a single invalid regular expression found while compiling
// a schema, located by its evaluation path within that schema.
type RegexPatternError struct {
	Keyword  string // "pattern" or "patternProperties"
	Location string // "#"-prefixed JSON Pointer to the failing keyword
	Pattern  string // the offending pattern text
	Err      error  // underlying regexp.Compile error
}

func (e *RegexPatternError) Error() string {
	return fmt.Sprintf("%s at %s: invalid pattern %q: %v", e.Keyword, e.Location, e.Pattern, e.Err)
}

func (e *RegexPatternError) Unwrap() error {
	return e.Err
}

// SchemaParseError wraps a failure to parse raw schema bytes into the Schema DOM,
// before any compilation or reference resolution is attempted.
type SchemaParseError struct {
	Source string // the URI or in-memory identifier of the offending document, if known
	Err    error
}

func (e *SchemaParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("parse schema %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("parse schema: %v", e.Err)
}

func (e *SchemaParseError) Unwrap() error { return e.Err }

// DraftIncompatibleError is returned by Compile when a schema uses a keyword form
// that is syntactically valid JSON but is not legal under the dialect the schema
// declares (or was told to compile against) — e.g. the Draft-07 array form of
// "items" under a 2020-12 dialect.
type DraftIncompatibleError struct {
	Keyword        string
	Draft          Draft
	SchemaLocation string
	Reason         string
}

func (e *DraftIncompatibleError) Error() string {
	return fmt.Sprintf("keyword %q at %s is not valid under %s: %s", e.Keyword, e.SchemaLocation, e.Draft, e.Reason)
}

// UnresolvedReferenceError describes a $ref/$dynamicRef/$recursiveRef whose target
// could not be located. Compile does not return it: unresolved references are left
// in place and tracked on the Compiler until a schema with the target URI is compiled.
type UnresolvedReferenceError struct {
	Ref            string
	SchemaLocation string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference %q at %s", e.Ref, e.SchemaLocation)
}

// CyclicReferenceError describes a $ref graph that loops back on itself. No option
// in this package turns such a cycle into an error, and nothing here returns it,
// since JSON Schema itself permits recursive schemas.
type CyclicReferenceError struct {
	Path []string // evaluation-path breadcrumbs that make up the cycle
}

func (e *CyclicReferenceError) Error() string {
	return fmt.Sprintf("cyclic reference detected: %v", e.Path)
}

// ErrCancelled is returned (wrapped with context) when Evaluate's context is done
// before evaluation completes.
var ErrCancelled = errors.New("schema evaluation cancelled")
